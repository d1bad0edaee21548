package streaming_test

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xenon-middleware/xenon-go/domain/streaming"
)

func TestStreamReader_ConcatenatesChunks(t *testing.T) {
	ctx := context.Background()
	src := streaming.FromSlice([]byte("Hello, "), []byte(""), []byte("World!"))
	reader := streaming.NewStreamReader(ctx, src, false)

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "Hello, World!" {
		t.Errorf("got %q", data)
	}
	if got := reader.GetTotalBytes(); got != 13 {
		t.Errorf("total bytes = %d, want 13", got)
	}
	// empty chunks are skipped
	if got := reader.GetMetrics().ChunkCount; got != 2 {
		t.Errorf("chunk count = %d, want 2", got)
	}
}

func TestStreamReader_SmallBuffer(t *testing.T) {
	ctx := context.Background()
	src := streaming.FromSlice([]byte("0123456789"), []byte("abc"))
	reader := streaming.NewStreamReader(ctx, src, true)

	buf := make([]byte, 4)
	var out strings.Builder
	for {
		n, err := reader.Read(buf)
		out.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read error: %v", err)
		}
	}

	if out.String() != "0123456789abc" {
		t.Errorf("got %q", out.String())
	}
	m := reader.GetMetrics()
	if string(m.AllData) != "0123456789abc" || string(m.LastChunk) != "abc" {
		t.Errorf("metrics = %+v", m)
	}
}

func TestStreamReader_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	src := streaming.SourceFunc[[]byte](func(context.Context) ([]byte, error) { return nil, boom })
	reader := streaming.NewStreamReader(context.Background(), src, false)

	if _, err := reader.Read(make([]byte, 8)); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestFromReader(t *testing.T) {
	ctx := context.Background()
	chunks, err := streaming.Collect(ctx, streaming.FromReader(strings.NewReader("abcdefg"), 3))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var got []string
	for _, c := range chunks {
		got = append(got, string(c))
	}
	if want := []string{"abc", "def", "g"}; !reflect.DeepEqual(got, want) {
		t.Errorf("chunks = %v, want %v", got, want)
	}
}

type closeCounter struct {
	streaming.Source[int]
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestMap_ForwardsClose(t *testing.T) {
	ctx := context.Background()
	inner := &closeCounter{Source: streaming.FromSlice(1, 2, 3)}
	doubled := streaming.Map[int, int](inner, func(v int) (int, error) { return v * 2, nil })

	got, err := streaming.Collect(ctx, doubled)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !reflect.DeepEqual(got, []int{2, 4, 6}) {
		t.Errorf("got %v", got)
	}
	if inner.closed != 1 {
		t.Errorf("inner closed %d times, want 1", inner.closed)
	}
}

func TestFilterAndConcat(t *testing.T) {
	ctx := context.Background()
	all := streaming.Concat(streaming.FromSlice(1, 2, 3), streaming.FromSlice[int](), streaming.FromSlice(4, 5))
	odd := streaming.Filter(all, func(v int) (bool, error) { return v%2 == 1, nil })

	got, err := streaming.Collect(ctx, odd)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 3, 5}) {
		t.Errorf("got %v", got)
	}
}

func TestAll(t *testing.T) {
	ctx := context.Background()
	var got []string
	for v, err := range streaming.All(ctx, streaming.FromSlice("a", "b", "c")) {
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		got = append(got, v)
		if v == "b" {
			break
		}
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("got %v", got)
	}
}

func TestQueue_OrderAndClose(t *testing.T) {
	ctx := context.Background()
	q := streaming.NewQueue[string](2)

	go func() {
		for _, s := range []string{"A", "B", "C", "D"} {
			if err := q.Put(ctx, s); err != nil {
				return
			}
		}
		q.Close()
	}()

	got, err := streaming.Collect[string](ctx, q)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"A", "B", "C", "D"}) {
		t.Errorf("got %v", got)
	}
	if err := q.Put(ctx, "E"); !errors.Is(err, streaming.ErrQueueClosed) {
		t.Errorf("Put after Close = %v", err)
	}
}

func TestQueue_NextHonoursContext(t *testing.T) {
	q := streaming.NewQueue[int](1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestWithTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	_, err := streaming.WithTimeout(10*time.Millisecond, func() (int, error) {
		<-release
		return 1, nil
	})
	if !errors.Is(err, streaming.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}

	v, err := streaming.WithTimeout(time.Second, func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("got %d, %v", v, err)
	}
}

func TestNextWithin(t *testing.T) {
	ctx := context.Background()

	empty := streaming.NewQueue[int](1)
	defer empty.Close()
	if _, err := streaming.NextWithin[int](ctx, empty, 10*time.Millisecond); !errors.Is(err, streaming.ErrTimeout) {
		t.Errorf("empty queue: err = %v", err)
	}

	ready := streaming.NewQueue[int](1)
	defer ready.Close()
	ready.Put(ctx, 3)
	if v, err := streaming.NextWithin[int](ctx, ready, time.Second); err != nil || v != 3 {
		t.Errorf("got %d, %v", v, err)
	}
}
