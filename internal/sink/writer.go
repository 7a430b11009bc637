package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/multierr"

	"wikilinks/internal/wiki"
	"wikilinks/pkg/api"
)

// Reuse a 64 KiB buffered writer across outputs to avoid per-run mallocs.
var bwPool = sync.Pool{
	New: func() any {
		return bufio.NewWriterSize(io.Discard, 64<<10)
	},
}

// Writer appends one JSON line per site record. It is not safe for
// concurrent use; Run is its only caller during a pipeline run.
type Writer struct {
	Path string

	bw     *bufio.Writer
	codec  io.WriteCloser
	file   *os.File
	closed bool
}

// Create opens path for writing, truncating it. "-" or "" writes to
// stdout, which is flushed but never closed. A ".gz" or ".zst" suffix
// compresses the output.
func Create(path string) (*Writer, error) {
	if path == "" || path == "-" {
		return NewWriter(os.Stdout), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	w := &Writer{Path: path, file: f}
	var dst io.Writer = f
	if enc, ok := encoderFor(path); ok {
		c, err := enc(f)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("create output encoder: %w", err), f.Close())
		}
		w.codec = c
		dst = c
	}
	w.bw = bwPool.Get().(*bufio.Writer)
	w.bw.Reset(dst)
	return w, nil
}

// NewWriter writes uncompressed lines to dst, reported as "-". Close
// flushes but does not close dst.
func NewWriter(dst io.Writer) *Writer {
	bw := bwPool.Get().(*bufio.Writer)
	bw.Reset(dst)
	return &Writer{Path: "-", bw: bw}
}

// Write appends one record as a single line.
func (w *Writer) Write(rec wiki.SiteRecord) error {
	if w.closed {
		return fmt.Errorf("write %q: %w", rec.Name, os.ErrClosed)
	}
	line, err := api.EncodeLine(api.SiteLinksV1{Name: rec.Name, Links: rec.Links})
	if err != nil {
		return fmt.Errorf("encode %q: %w", rec.Name, err)
	}
	_, err = w.bw.Write(line)
	return err
}

// Close flushes buffered lines, finishes the codec stream and, for files,
// syncs and closes them. All failures are reported.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.bw.Flush()
	w.bw.Reset(io.Discard)
	bwPool.Put(w.bw)

	if w.codec != nil {
		err = multierr.Append(err, w.codec.Close())
	}
	if w.file != nil {
		err = multierr.Append(err, w.file.Sync())
		err = multierr.Append(err, w.file.Close())
	}
	return err
}
