package integration

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// isolate keeps a developer's wikilinks.yaml and WIKILINKS_* variables out
// of the run.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "WIKILINKS_") {
			t.Setenv(k, "")
			require.NoError(t, os.Unsetenv(k))
		}
	}
	return dir
}

func page(title, body string) string {
	return fmt.Sprintf("  <page>\n    <title>%s</title>\n    <revision>\n      <text xml:space=\"preserve\">%s</text>\n    </revision>\n  </page>\n", title, body)
}

func dump(pages ...string) string {
	return "<mediawiki xmlns=\"http://www.mediawiki.org/xml/export-0.10/\">\n" + strings.Join(pages, "") + "</mediawiki>\n"
}

func ring(n int) string {
	pages := make([]string, n)
	for i := range pages {
		pages[i] = page(fmt.Sprintf("P%d", i), fmt.Sprintf("[[P%d]] [[Category:Ring]] [[P%d|x]]", (i+1)%n, (i+3)%n))
	}
	return dump(pages...)
}

func writeGzip(t *testing.T, dir, name, doc string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func sortedLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	sort.Strings(lines)
	return lines
}
