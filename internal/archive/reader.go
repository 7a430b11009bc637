package archive

import (
	"context"
	"io"
)

// ChunkReader exposes a chunk channel as a byte source. It is not safe for
// concurrent use; it synchronizes with the producer only when it needs
// more bytes.
type ChunkReader struct {
	ctx context.Context
	in  <-chan Chunk
	buf []byte
	eof bool
}

var _ io.Reader = (*ChunkReader)(nil)

// NewChunkReader reads from in until it is closed or ctx is done.
func NewChunkReader(ctx context.Context, in <-chan Chunk) *ChunkReader {
	return &ChunkReader{ctx: ctx, in: in}
}

// fill blocks for one more chunk.
func (r *ChunkReader) fill() error {
	select {
	case c, ok := <-r.in:
		if !ok {
			r.eof = true
			return nil
		}
		if len(r.buf) == 0 {
			r.buf = c
		} else {
			r.buf = append(r.buf, c...)
		}
		return nil
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

// Read implements io.Reader. It blocks only when nothing is buffered and
// returns io.EOF once the stream is drained.
func (r *ChunkReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(r.buf) == 0 {
		if r.eof {
			return 0, io.EOF
		}
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// ReadN returns up to n bytes, waiting until n are buffered or the stream
// ends. n < 0 reads everything that remains. After the stream is drained it
// returns an empty slice and io.EOF without blocking. Bytes are never
// reordered or repeated.
func (r *ChunkReader) ReadN(n int) ([]byte, error) {
	if n == 0 {
		if r.eof && len(r.buf) == 0 {
			return []byte{}, io.EOF
		}
		return []byte{}, nil
	}
	for (n < 0 || len(r.buf) < n) && !r.eof {
		if err := r.fill(); err != nil {
			return nil, err
		}
	}
	if len(r.buf) == 0 {
		return []byte{}, io.EOF
	}
	if n < 0 || n > len(r.buf) {
		n = len(r.buf)
	}
	data := r.buf[:n:n]
	r.buf = r.buf[n:]
	return data, nil
}

// Buffered reports how many bytes are held but not yet returned.
func (r *ChunkReader) Buffered() int { return len(r.buf) }
