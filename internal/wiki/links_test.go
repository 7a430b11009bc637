package wiki

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanLink_DisplayTextAndWhitespace(t *testing.T) {
	cases := map[string]string{
		"[[Target|Display Text]]": "Target",
		"[[Target]]":              "Target",
		"[[ Target ]]":            "Target",
		"[[ Target | shown ]]":    "Target",
		"[[A|b|c]]":               "A",
		"Target":                  "Target",
	}
	for in, want := range cases {
		got, ok := CleanLink(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}
}

func TestCleanLink_RejectsEmpty(t *testing.T) {
	for _, in := range []string{"[[]]", "[[   ]]", "[[|shown]]", "[[ | ]]", ""} {
		_, ok := CleanLink(in)
		require.False(t, ok, "%q should be rejected", in)
	}
}

func TestCleanLink_Idempotent(t *testing.T) {
	inputs := []string{
		"[[Target|Display]]", "[[ Target ]]", "[[[[Nested]]", "[[ [[x]] |y]]",
		"[[Ünïcödé Title]]", "[[a]]b]]", "[[C++]]", "plain title",
	}
	for _, in := range inputs {
		once, ok := CleanLink(in)
		if !ok {
			continue
		}
		twice, ok2 := CleanLink(once)
		require.True(t, ok2, in)
		require.Equal(t, once, twice, in)
	}
}

func randomCase(r *rand.Rand, s string) string {
	var b strings.Builder
	for _, c := range s {
		if r.Intn(2) == 0 {
			b.WriteString(strings.ToUpper(string(c)))
		} else {
			b.WriteString(strings.ToLower(string(c)))
		}
	}
	return b.String()
}

func TestCleanLink_NamespaceFilterAnyCasingAndPadding(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	pads := []string{"", " ", "  ", "\t"}
	for _, prefix := range ReservedPrefixes {
		for i := 0; i < 50; i++ {
			target := randomCase(r, prefix) + "Something.png"
			tok := "[[" + pads[r.Intn(len(pads))] + target + pads[r.Intn(len(pads))] + "|alt]]"
			_, ok := CleanLink(tok)
			require.False(t, ok, "%q should be filtered", tok)
		}
	}
}

func TestCleanLink_NamespaceNeedsPrefix(t *testing.T) {
	got, ok := CleanLink("[[Wikipedia]]")
	require.True(t, ok)
	require.Equal(t, "Wikipedia", got)

	got, ok = CleanLink("[[Help:Contents]]")
	require.True(t, ok)
	require.Equal(t, "Help:Contents", got)
}

func TestExtractLinks_Dedup(t *testing.T) {
	links, err := ExtractLinks("[[A]] then [[A]] and again [[A|shown]]")
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, links)
}

func TestExtractLinks_OrderAndFilter(t *testing.T) {
	body := "Links to [[B]] and [[File:x.png]], see [[C|the c]] or [[Category:Stuff]] [[ B ]]"
	links, err := ExtractLinks(body)
	require.NoError(t, err)
	require.Equal(t, []string{"B", "C"}, links)
}

func TestExtractLinks_NoLinks(t *testing.T) {
	links, err := ExtractLinks("no links here [single] ]]")
	require.NoError(t, err)
	require.NotNil(t, links)
	require.Empty(t, links)
}

func TestExtractLinks_DoesNotSpanLines(t *testing.T) {
	links, err := ExtractLinks("[[A\nB]] [[C]]")
	require.NoError(t, err)
	require.Equal(t, []string{"C"}, links)
}

func TestExtractLinks_InvalidUTF8(t *testing.T) {
	_, err := ExtractLinks("[[A]] \xff\xfe")
	require.ErrorIs(t, err, ErrExtraction)
}

func TestSite_WrapsTitle(t *testing.T) {
	_, err := Site(PageRecord{Title: "Broken", Body: "\xff"})
	require.ErrorIs(t, err, ErrExtraction)
	require.Contains(t, err.Error(), `"Broken"`)

	s, err := Site(PageRecord{Title: "B", Body: "See [[A|back]]"})
	require.NoError(t, err)
	require.Equal(t, SiteRecord{Name: "B", Links: []string{"A"}}, s)
}

func TestIsRedirect_LiteralPrefix(t *testing.T) {
	require.True(t, IsRedirect("#REDIRECT [[Target]]"))
	require.False(t, IsRedirect(" #REDIRECT [[Target]]"))
	require.False(t, IsRedirect("#redirect [[Target]]"))
	require.False(t, IsRedirect("Text mentioning #REDIRECT later"))
}

func TestPageRecord_Valid(t *testing.T) {
	require.True(t, PageRecord{Title: "a", Body: "b"}.Valid())
	require.False(t, PageRecord{Title: "a"}.Valid())
	require.False(t, PageRecord{Body: "b"}.Valid())
}
