package wiki

import "errors"

var (
	// ErrMalformedPage marks a page unit missing its title or its body.
	ErrMalformedPage = errors.New("malformed page")
	// ErrExtraction marks a body that could not be scanned for links.
	ErrExtraction = errors.New("link extraction failed")
)

// PageRecord is one parsed (title, body) pair.
type PageRecord struct {
	Title string
	Body  string
}

// Valid reports whether both fields are populated.
func (p PageRecord) Valid() bool { return p.Title != "" && p.Body != "" }

// Batch is the unit of transfer between the parser and the worker pool.
type Batch []PageRecord

// SiteRecord is the final per-page unit: the page title and its
// deduplicated outbound links in first-seen order.
type SiteRecord struct {
	Name  string
	Links []string
}
