// Package streaming provides pull-based sequences and the adapters that
// connect them to byte readers, bounded queues and timeouts.
package streaming

import (
	"context"
	"errors"
	"io"
	"iter"
)

// Source is a single-pass, pull-based sequence. Next returns io.EOF once
// the sequence is exhausted. A Source that holds resources also implements
// io.Closer.
type Source[T any] interface {
	Next(ctx context.Context) (T, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func(ctx context.Context) (T, error)

func (f SourceFunc[T]) Next(ctx context.Context) (T, error) { return f(ctx) }

// Close releases src if it holds resources.
func Close[T any](src Source[T]) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type sliceSource[T any] struct {
	items []T
	pos   int
}

// FromSlice yields items in order.
func FromSlice[T any](items ...T) Source[T] {
	return &sliceSource[T]{items: items}
}

func (s *sliceSource[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if s.pos >= len(s.items) {
		return zero, io.EOF
	}
	item := s.items[s.pos]
	s.pos++
	return item, nil
}

type mapped[T, U any] struct {
	src Source[T]
	fn  func(T) (U, error)
}

// Map applies fn to each element of src as it is pulled. Closing the
// result closes src.
func Map[T, U any](src Source[T], fn func(T) (U, error)) Source[U] {
	return &mapped[T, U]{src: src, fn: fn}
}

func (m *mapped[T, U]) Next(ctx context.Context) (U, error) {
	var zero U
	v, err := m.src.Next(ctx)
	if err != nil {
		return zero, err
	}
	return m.fn(v)
}

func (m *mapped[T, U]) Close() error { return Close(m.src) }

type filtered[T any] struct {
	src  Source[T]
	keep func(T) (bool, error)
}

// Filter yields only the elements for which keep returns true.
func Filter[T any](src Source[T], keep func(T) (bool, error)) Source[T] {
	return &filtered[T]{src: src, keep: keep}
}

func (f *filtered[T]) Next(ctx context.Context) (T, error) {
	for {
		v, err := f.src.Next(ctx)
		if err != nil {
			return v, err
		}
		ok, err := f.keep(v)
		if err != nil {
			var zero T
			return zero, err
		}
		if ok {
			return v, nil
		}
	}
}

func (f *filtered[T]) Close() error { return Close(f.src) }

type concat[T any] struct {
	srcs []Source[T]
}

// Concat yields every element of each source in turn.
func Concat[T any](srcs ...Source[T]) Source[T] {
	return &concat[T]{srcs: srcs}
}

func (c *concat[T]) Next(ctx context.Context) (T, error) {
	for len(c.srcs) > 0 {
		v, err := c.srcs[0].Next(ctx)
		if errors.Is(err, io.EOF) {
			Close(c.srcs[0])
			c.srcs = c.srcs[1:]
			continue
		}
		return v, err
	}
	var zero T
	return zero, io.EOF
}

func (c *concat[T]) Close() error {
	var errs []error
	for _, s := range c.srcs {
		errs = append(errs, Close(s))
	}
	c.srcs = nil
	return errors.Join(errs...)
}

// Collect drains src into a slice and closes it.
func Collect[T any](ctx context.Context, src Source[T]) ([]T, error) {
	defer Close(src)
	var out []T
	for {
		v, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

// All ranges over src. A terminal error other than io.EOF is yielded once
// with the zero value. src is closed when the loop ends.
func All[T any](ctx context.Context, src Source[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer Close(src)
		for {
			v, err := src.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(v, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}
