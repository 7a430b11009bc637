package archive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrSource marks an archive that is missing, unreadable or corrupt.
var ErrSource = errors.New("archive source error")

const sniffBufSize = 64 << 10

// Source is an opened, decoding archive. It is owned by exactly one
// Decompress call, which closes it.
type Source struct {
	Path  string
	Codec string
	io.Reader
	closers []io.Closer
}

// Close releases the codec and then the underlying file.
func (s *Source) Close() error {
	var err error
	for _, c := range s.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Abort closes the underlying handle so a read blocked on it returns.
// Close must still be called. Stdin is never closed, so a read stalled on
// it is not interrupted.
func (s *Source) Abort() error {
	if len(s.closers) == 0 {
		return nil
	}
	return s.closers[len(s.closers)-1].Close()
}

// Open opens path ("-" for stdin), detects its compression and returns a
// decoding Source. All failures wrap ErrSource so callers can fail before
// any stage starts.
func Open(path string) (*Source, error) {
	var (
		fh     io.ReadCloser
		closer io.Closer
	)
	if path == "-" {
		fh = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSource, err)
		}
		fh = f
	}
	closer = fh

	br := bufio.NewReaderSize(fh, sniffBufSize)
	head, err := br.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		_ = closer.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrSource, path, err)
	}
	codec := detect(path, head)
	rc, err := codec.NewReader(br)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("%w: %s: open %s stream: %w", ErrSource, path, codec.Name, err)
	}
	return &Source{
		Path:    path,
		Codec:   codec.Name,
		Reader:  rc,
		closers: []io.Closer{rc, closer},
	}, nil
}
