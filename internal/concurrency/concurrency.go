package concurrency

import "context"

// TrySend attempts to send msg on ch. It gives up, returning false, once ctx
// is done; a send that is already possible still loses to a done context.
func TrySend[T any](ctx context.Context, msg T, ch chan<- T) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case ch <- msg:
		return true
	}
}

// TryRecv receives one value from ch. ok is false when ch is closed or ctx
// is done, so callers treat both as end of input.
func TryRecv[T any](ctx context.Context, ch <-chan T) (v T, ok bool) {
	select {
	case <-ctx.Done():
		return v, false
	case v, ok = <-ch:
		return v, ok
	}
}
