package archive

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

const samplePage = "<mediawiki><page><title>A</title><revision><text>Links to [[B]]</text></revision></page></mediawiki>\n"

func writeGzip(t *testing.T, path string, data []byte) string {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func writeZstd(t *testing.T, path string, data []byte) string {
	t.Helper()
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf, zstd.WithEncoderConcurrency(1))
	require.NoError(t, err)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func readSource(t *testing.T, path string) (string, string) {
	t.Helper()
	src, err := Open(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, src.Close()) }()
	b, err := io.ReadAll(src)
	require.NoError(t, err)
	return src.Codec, string(b)
}

func TestOpen_DetectsCodecByMagic(t *testing.T) {
	dir := t.TempDir()

	// Suffixes are deliberately misleading; magic bytes win.
	gz := writeGzip(t, filepath.Join(dir, "dump.dat"), []byte(samplePage))
	zs := writeZstd(t, filepath.Join(dir, "dump.bin"), []byte(samplePage))
	plain := filepath.Join(dir, "dump.gz.txt")
	require.NoError(t, os.WriteFile(plain, []byte(samplePage), 0o644))

	cases := map[string]struct {
		path  string
		codec string
	}{
		"gzip":     {path: gz, codec: "gzip"},
		"zstd":     {path: zs, codec: "zstd"},
		"bzip2":    {path: filepath.Join("testdata", "page.xml.bz2"), codec: "bzip2"},
		"identity": {path: plain, codec: "identity"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			codec, body := readSource(t, tc.path)
			require.Equal(t, tc.codec, codec)
			require.Equal(t, samplePage, body)
		})
	}
}

func TestOpen_MissingFileIsSourceError(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.xml.bz2"))
	require.ErrorIs(t, err, ErrSource)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpen_BadGzipHeaderFailsFast(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "broken.gz")
	require.NoError(t, os.WriteFile(fn, []byte("definitely not gzip"), 0o644))
	_, err := Open(fn)
	require.ErrorIs(t, err, ErrSource)
}

func TestOpen_EmptyPlainFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "empty.xml")
	require.NoError(t, os.WriteFile(fn, nil, 0o644))
	codec, body := readSource(t, fn)
	require.Equal(t, "identity", codec)
	require.Empty(t, body)
}

func TestCodecs_Registered(t *testing.T) {
	require.Equal(t, []string{"bzip2", "gzip", "zstd"}, Codecs())
}
