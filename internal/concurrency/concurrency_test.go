package concurrency

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrySend(t *testing.T) {
	var testcases = map[string]struct {
		ctxCancelled bool
	}{
		`ctx_cancel`:    {ctxCancelled: true},
		`no_ctx_cancel`: {ctxCancelled: false},
	}

	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			channel := make(chan int, 1)
			if tc.ctxCancelled {
				var cancel context.CancelFunc
				ctx, cancel = context.WithCancel(ctx)
				cancel()
			}
			sent := TrySend(ctx, 7, channel)
			require.Equal(t, !tc.ctxCancelled, sent)
			require.Len(t, channel, map[bool]int{true: 0, false: 1}[tc.ctxCancelled])
		})
	}
}

func TestTrySend_BlocksUntilCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	channel := make(chan int)
	done := make(chan bool)
	go func() { done <- TrySend(ctx, 1, channel) }()
	cancel()
	require.False(t, <-done)
}

func TestTryRecv(t *testing.T) {
	ch := make(chan string, 1)
	ch <- "a"
	v, ok := TryRecv(context.Background(), ch)
	require.True(t, ok)
	require.Equal(t, "a", v)

	close(ch)
	_, ok = TryRecv(context.Background(), ch)
	require.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok = TryRecv(ctx, make(chan string))
	require.False(t, ok)
}
