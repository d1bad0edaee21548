package streaming

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrQueueClosed is returned by Put after Close.
var ErrQueueClosed = errors.New("streaming: queue closed")

// Queue is a bounded FIFO feeding a blocking Next. Put blocks while the
// queue is full. After Close, Next drains what is buffered, then returns
// io.EOF.
type Queue[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once
}

// NewQueue returns a queue holding at most size items (minimum 1).
func NewQueue[T any](size int) *Queue[T] {
	if size < 1 {
		size = 1
	}
	return &Queue[T]{
		ch:   make(chan T, size),
		done: make(chan struct{}),
	}
}

// Put enqueues v, blocking while the queue is full.
func (q *Queue[T]) Put(ctx context.Context, v T) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case q.ch <- v:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next dequeues the oldest item, blocking until one is available.
func (q *Queue[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case v := <-q.ch:
		return v, nil
	default:
	}
	select {
	case v := <-q.ch:
		return v, nil
	case <-q.done:
		// drain anything that raced with Close
		select {
		case v := <-q.ch:
			return v, nil
		default:
			return zero, io.EOF
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close stops accepting items. It is safe to call more than once.
func (q *Queue[T]) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}

// Len reports the number of buffered items.
func (q *Queue[T]) Len() int { return len(q.ch) }
