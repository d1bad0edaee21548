package streaming

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when a bounded wait expires.
var ErrTimeout = errors.New("streaming: timed out")

type result[T any] struct {
	v   T
	err error
}

// WithTimeout runs call and waits at most d for it. On expiry the call is
// abandoned: it keeps running in its goroutine and its result is dropped.
// d <= 0 waits without bound.
func WithTimeout[T any](d time.Duration, call func() (T, error)) (T, error) {
	if d <= 0 {
		return call()
	}
	done := make(chan result[T], 1)
	go func() {
		v, err := call()
		done <- result[T]{v, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case r := <-done:
		return r.v, r.err
	case <-timer.C:
		var zero T
		return zero, ErrTimeout
	}
}

// NextWithin pulls one element from src, waiting at most d.
func NextWithin[T any](ctx context.Context, src Source[T], d time.Duration) (T, error) {
	return WithTimeout(d, func() (T, error) { return src.Next(ctx) })
}
