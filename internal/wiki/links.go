package wiki

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// linkPattern matches the shortest [[...]] span on a single line.
var linkPattern = regexp.MustCompile(`\[\[.*?\]\]`)

// ReservedPrefixes are the namespaces whose links are not page-to-page edges.
// Matching is case-insensitive against the cleaned target.
var ReservedPrefixes = []string{"file:", "image:", "category:", "wikipedia:", "wp:", "template:"}

// RawLinks returns every [[...]] token in body, in order of appearance.
func RawLinks(body string) []string {
	return linkPattern.FindAllString(body, -1)
}

// CleanLink maps a raw token (or an already cleaned title) to a page title.
// It strips the outer brackets, keeps the segment before the first '|',
// trims whitespace and rejects reserved namespaces and empty results.
// CleanLink(CleanLink(x)) == CleanLink(x) for every x that is accepted.
func CleanLink(token string) (string, bool) {
	cur := token
	for {
		next := cleanOnce(cur)
		if next == cur {
			break
		}
		cur = next
	}
	if cur == "" || reserved(cur) {
		return "", false
	}
	return cur, true
}

func cleanOnce(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[[") && strings.HasSuffix(s, "]]") && len(s) >= 4 {
		s = s[2 : len(s)-2]
	}
	if i := strings.IndexByte(s, '|'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func reserved(title string) bool {
	for _, p := range ReservedPrefixes {
		if len(title) >= len(p) && strings.EqualFold(title[:len(p)], p) {
			return true
		}
	}
	return false
}

// ExtractLinks scans body and returns its distinct clean links in first-seen
// order. Bodies that are not valid UTF-8 fail with ErrExtraction.
func ExtractLinks(body string) ([]string, error) {
	if !utf8.ValidString(body) {
		return nil, fmt.Errorf("%w: body is not valid UTF-8", ErrExtraction)
	}
	raw := RawLinks(body)
	if len(raw) == 0 {
		return []string{}, nil
	}
	seen := make(map[string]struct{}, len(raw))
	links := make([]string, 0, len(raw))
	for _, tok := range raw {
		l, ok := CleanLink(tok)
		if !ok {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		links = append(links, l)
	}
	return links, nil
}

// Site builds the SiteRecord for one page.
func Site(p PageRecord) (SiteRecord, error) {
	links, err := ExtractLinks(p.Body)
	if err != nil {
		return SiteRecord{}, fmt.Errorf("page %q: %w", p.Title, err)
	}
	return SiteRecord{Name: p.Title, Links: links}, nil
}
