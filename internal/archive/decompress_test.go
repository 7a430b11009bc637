package archive

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func collect(t *testing.T, ch <-chan Chunk, errCh <-chan error) ([]byte, error) {
	t.Helper()
	var all []byte
	for c := range ch {
		all = append(all, c...)
	}
	return all, <-errCh
}

func TestDecompress_PreservesBytesInOrder(t *testing.T) {
	data := []byte(strings.Repeat("0123456789abcdef", 1000) + "tail")
	for _, size := range []int{1, 7, 4096, 8 << 10, 1 << 20} {
		ch, errCh := Decompress(context.Background(), io.NopCloser(bytes.NewReader(data)), Options{ChunkSize: size, Capacity: 3})
		got, err := collect(t, ch, errCh)
		require.NoError(t, err)
		require.Equal(t, data, got, "chunk size %d", size)
	}
}

func TestDecompress_ChunksAreBounded(t *testing.T) {
	data := bytes.Repeat([]byte{'x'}, 10_000)
	ch, errCh := Decompress(context.Background(), io.NopCloser(bytes.NewReader(data)), Options{ChunkSize: 512})
	n := 0
	for c := range ch {
		require.LessOrEqual(t, len(c), 512)
		require.NotEmpty(t, c)
		n++
	}
	require.NoError(t, <-errCh)
	require.Equal(t, 20, n)
}

func TestDecompress_EmptySourceClosesCleanly(t *testing.T) {
	ch, errCh := Decompress(context.Background(), io.NopCloser(bytes.NewReader(nil)), Options{})
	got, err := collect(t, ch, errCh)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDecompress_TruncatedArchiveKeepsPartialOutput(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(1))
	plain := make([]byte, 256<<10)
	for i := range plain {
		plain[i] = "abcdefghijklmnopqrstuvwxyz<>/[] "[rng.Intn(32)]
	}
	full := writeGzip(t, filepath.Join(dir, "full.gz"), plain)
	raw, err := os.ReadFile(full)
	require.NoError(t, err)
	cut := filepath.Join(dir, "cut.gz")
	require.NoError(t, os.WriteFile(cut, raw[:len(raw)/2], 0o644))

	src, err := Open(cut)
	require.NoError(t, err)
	ch, errCh := Decompress(context.Background(), src, Options{ChunkSize: 1024})
	got, err := collect(t, ch, errCh)
	require.ErrorIs(t, err, ErrSource)
	require.NotEmpty(t, got)
	require.Less(t, len(got), len(plain))
	require.True(t, bytes.HasPrefix(plain, got))
}

func TestDecompress_BackpressureBound(t *testing.T) {
	const capacity = 4
	var produced atomic.Int64
	data := bytes.Repeat([]byte{'y'}, 64*100)
	ch, errCh := Decompress(context.Background(), io.NopCloser(bytes.NewReader(data)), Options{
		ChunkSize: 64,
		Capacity:  capacity,
		OnChunk:   func(int) { produced.Add(1) },
	})

	// Nobody reads yet: the producer must stall with exactly capacity chunks queued.
	require.Eventually(t, func() bool { return produced.Load() == capacity }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int64(capacity), produced.Load())
	require.LessOrEqual(t, len(ch), capacity)

	n := 0
	for range ch {
		require.LessOrEqual(t, len(ch), capacity)
		time.Sleep(100 * time.Microsecond)
		n++
	}
	require.NoError(t, <-errCh)
	require.Equal(t, 100, n)
}

func TestDecompress_CancelUnblocksProducer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	data := bytes.Repeat([]byte{'z'}, 1<<20)
	ch, errCh := Decompress(ctx, io.NopCloser(bytes.NewReader(data)), Options{ChunkSize: 16, Capacity: 1})
	<-ch
	cancel()
	for range ch {
	}
	require.NoError(t, <-errCh)
}

func TestDecompress_CancelInterruptsStalledRead(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()
	_, err = w.WriteString("<mediawiki>")
	require.NoError(t, err)

	src := &Source{Path: "pipe", Codec: "identity", Reader: r, closers: []io.Closer{r}}
	ctx, cancel := context.WithCancel(context.Background())
	ch, errCh := Decompress(ctx, src, Options{ChunkSize: 64})

	done := make(chan error, 1)
	go func() {
		for range ch {
		}
		done <- <-errCh
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("read on the pipe was not interrupted")
	}
}

type closeTracker struct {
	io.Reader
	closed atomic.Bool
}

func (c *closeTracker) Close() error { c.closed.Store(true); return nil }

func TestDecompress_ClosesSource(t *testing.T) {
	src := &closeTracker{Reader: strings.NewReader("abc")}
	ch, errCh := Decompress(context.Background(), src, Options{})
	_, err := collect(t, ch, errCh)
	require.NoError(t, err)
	require.True(t, src.closed.Load())
}
