package wikixml

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"wikilinks/internal/concurrency"
	"wikilinks/internal/logger"
	"wikilinks/internal/metrics"
	"wikilinks/internal/wiki"
)

// ErrParse marks a malformed document. Batches completed before the fault
// have already been emitted.
var ErrParse = errors.New("parse")

const DefaultBatchSize = 1000

type Options struct {
	BatchSize int
	Stats     *metrics.Stats
	Logger    logger.Logger
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Stats == nil {
		o.Stats = &metrics.Stats{}
	}
	if o.Logger == nil {
		o.Logger = logger.NewNoopLogger()
	}
	return o
}

// field identifies which element's text is being captured.
type field int

const (
	fieldNone field = iota
	fieldTitle
	fieldText
)

func classify(local string) field {
	switch {
	case strings.HasSuffix(local, "title"):
		return fieldTitle
	case strings.HasSuffix(local, "text"):
		return fieldText
	}
	return fieldNone
}

func isPage(local string) bool { return strings.HasSuffix(local, "page") }

type parser struct {
	opt     Options
	out     chan<- wiki.Batch
	batch   wiki.Batch
	title   strings.Builder
	text    strings.Builder
	capture field
}

// Parse reads r and sends full batches of pages on out, then any partial
// batch. Redirect pages are counted and skipped; pages missing a title or a
// body are counted and dropped. out is closed on every return path, which
// is the end of stream signal for all consumers.
//
// Ill-formed UTF-8 is replaced with U+FFFD before decoding, so a bad byte
// affects only the text it sits in. Cancellation is not an error: Parse
// returns nil once ctx is done and sends nothing further. A malformed
// document yields ErrParse after the pages before the fault have been
// flushed.
func Parse(ctx context.Context, r io.Reader, out chan<- wiki.Batch, opt Options) error {
	defer close(out)

	p := &parser{opt: opt.withDefaults(), out: out}
	p.batch = make(wiki.Batch, 0, p.opt.BatchSize)

	dec := xml.NewDecoder(transform.NewReader(r, runes.ReplaceIllFormed()))
	for {
		tok, err := dec.Token()
		if ctx.Err() != nil {
			return nil
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			p.flush(ctx)
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
		if !p.handle(ctx, tok) {
			return nil
		}
	}
	p.flush(ctx)
	return nil
}

// handle consumes one token. It returns false once ctx is done.
func (p *parser) handle(ctx context.Context, tok xml.Token) bool {
	switch t := tok.(type) {
	case xml.StartElement:
		if isPage(t.Name.Local) {
			p.title.Reset()
			p.text.Reset()
		}
		switch classify(t.Name.Local) {
		case fieldTitle:
			p.title.Reset()
			p.capture = fieldTitle
		case fieldText:
			p.text.Reset()
			p.capture = fieldText
		}
	case xml.CharData:
		switch p.capture {
		case fieldTitle:
			p.title.Write(t)
		case fieldText:
			p.text.Write(t)
		}
	case xml.EndElement:
		local := t.Name.Local
		if f := classify(local); f != fieldNone && f == p.capture {
			p.capture = fieldNone
		}
		if isPage(local) {
			return p.finish(ctx)
		}
	}
	return true
}

// finish closes the current page unit.
func (p *parser) finish(ctx context.Context) bool {
	rec := wiki.PageRecord{Title: p.title.String(), Body: p.text.String()}
	p.title.Reset()
	p.text.Reset()
	p.capture = fieldNone

	stats := p.opt.Stats
	stats.Pages.Add(1)
	switch {
	case !rec.Valid():
		stats.Malformed.Add(1)
		p.opt.Logger.Debug("dropping page",
			zap.Error(wiki.ErrMalformedPage),
			zap.String("title", rec.Title),
			zap.Int("body_bytes", len(rec.Body)))
		return true
	case wiki.IsRedirect(rec.Body):
		stats.Redirects.Add(1)
		return true
	}

	p.batch = append(p.batch, rec)
	if len(p.batch) < p.opt.BatchSize {
		return true
	}
	return p.flush(ctx)
}

// flush sends the pending batch, if any.
func (p *parser) flush(ctx context.Context) bool {
	if len(p.batch) == 0 {
		return true
	}
	if !concurrency.TrySend(ctx, p.batch, p.out) {
		return false
	}
	p.opt.Stats.Batches.Add(1)
	p.batch = make(wiki.Batch, 0, p.opt.BatchSize)
	return true
}
