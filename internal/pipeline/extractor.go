package pipeline

import "wikilinks/internal/wiki"

// Extractor is the minimal capability a worker needs.
// Any implementation (including fakes in tests) can satisfy this.
type Extractor interface {
	Extract(wiki.PageRecord) (wiki.SiteRecord, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(wiki.PageRecord) (wiki.SiteRecord, error)

func (f ExtractorFunc) Extract(p wiki.PageRecord) (wiki.SiteRecord, error) { return f(p) }

// Links is the default Extractor.
var Links Extractor = ExtractorFunc(wiki.Site)
