package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Chunk is an immutable run of plaintext bytes. It is produced once and
// consumed once.
type Chunk []byte

const (
	DefaultChunkSize = 8 << 10
	DefaultCapacity  = 1000
)

// Options controls the decompression stage.
type Options struct {
	ChunkSize int // bytes per chunk (<=0 uses DefaultChunkSize)
	Capacity  int // channel capacity in chunks (<=0 uses DefaultCapacity)
	// OnChunk, if set, is called after each chunk is handed downstream.
	OnChunk func(n int)
}

// aborter is implemented by sources whose blocking reads can be cut short
// by closing the underlying handle from another goroutine.
type aborter interface {
	Abort() error
}

// Decompress reads src on its own goroutine and publishes its plaintext as
// chunks on a bounded channel. Sends block while the channel is full. If src
// has an Abort method it is called once ctx is done, so a read stalled on a
// pipe returns instead of pinning the goroutine.
//
// The chunk channel is always closed exactly once, whether the source is
// exhausted, corrupt, or ctx is done, so the consumer never waits on a
// stage that has exited. The error channel yields exactly one value, and it
// is ready before the chunk channel closes: nil on clean end of input or
// cancellation, an ErrSource otherwise. Chunks already published stay valid
// after a failure.
func Decompress(ctx context.Context, src io.ReadCloser, opt Options) (<-chan Chunk, <-chan error) {
	if opt.ChunkSize <= 0 {
		opt.ChunkSize = DefaultChunkSize
	}
	if opt.Capacity <= 0 {
		opt.Capacity = DefaultCapacity
	}
	out := make(chan Chunk, opt.Capacity)
	errCh := make(chan error, 1)

	go func() {
		var err error
		stop := func() bool { return true }
		if a, ok := src.(aborter); ok {
			stop = context.AfterFunc(ctx, func() { _ = a.Abort() })
		}
		defer func() {
			aborted := !stop()
			if cerr := src.Close(); cerr != nil && err == nil && !aborted {
				err = fmt.Errorf("%w: close: %w", ErrSource, cerr)
			}
			errCh <- err
			close(out)
		}()

		for {
			buf := make([]byte, opt.ChunkSize)
			n, rerr := readChunk(src, buf)
			if n > 0 {
				select {
				case out <- Chunk(buf[:n]):
				case <-ctx.Done():
					return
				}
				if opt.OnChunk != nil {
					opt.OnChunk(n)
				}
			}
			switch {
			case rerr == nil:
				continue
			case errors.Is(rerr, io.EOF):
				return
			case ctx.Err() != nil:
				return
			default:
				err = fmt.Errorf("%w: decompress: %w", ErrSource, rerr)
				return
			}
		}
	}()

	return out, errCh
}

// readChunk fills buf unless r ends or fails first. Unlike io.ReadFull it
// never rewrites the reader's error, so a truncated stream reported as
// io.ErrUnexpectedEOF by the codec stays distinguishable from a clean end.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
