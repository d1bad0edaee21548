package streaming

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"
)

// StreamMetrics tracks metrics for a chunked byte stream.
type StreamMetrics struct {
	TotalBytes    int64
	ChunkCount    int64
	LastChunk     []byte // Last chunk pulled from the source
	AllData       []byte // Accumulated data (only when AccumulateAll)
	AccumulateAll bool
}

// StreamReader exposes a Source of byte chunks as an io.ReadCloser,
// concatenating chunks in arrival order.
type StreamReader struct {
	ctx        context.Context
	src        Source[[]byte]
	pending    []byte
	totalBytes atomic.Int64
	chunkCount atomic.Int64
	lastChunk  []byte
	buffer     bytes.Buffer
	accumulate bool
	err        error
}

// NewStreamReader creates a reader pulling chunks from src with ctx.
// If accumulate is true, all data is kept (uses more memory).
func NewStreamReader(ctx context.Context, src Source[[]byte], accumulate bool) *StreamReader {
	return &StreamReader{
		ctx:        ctx,
		src:        src,
		accumulate: accumulate,
	}
}

// Read implements io.Reader.
func (s *StreamReader) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		chunk, err := s.src.Next(s.ctx)
		if err != nil {
			s.err = err
			continue
		}
		if len(chunk) == 0 {
			continue
		}
		s.totalBytes.Add(int64(len(chunk)))
		s.chunkCount.Add(1)
		s.lastChunk = chunk
		if s.accumulate {
			s.buffer.Write(chunk)
		}
		s.pending = chunk
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Close closes the underlying source.
func (s *StreamReader) Close() error {
	if s.err == nil {
		s.err = io.ErrClosedPipe
	}
	return Close(s.src)
}

// GetMetrics returns the accumulated stream metrics.
func (s *StreamReader) GetMetrics() StreamMetrics {
	metrics := StreamMetrics{
		TotalBytes:    s.totalBytes.Load(),
		ChunkCount:    s.chunkCount.Load(),
		LastChunk:     s.lastChunk,
		AccumulateAll: s.accumulate,
	}
	if s.accumulate {
		metrics.AllData = s.buffer.Bytes()
	}
	return metrics
}

// GetTotalBytes returns the total bytes pulled from the source.
func (s *StreamReader) GetTotalBytes() int64 {
	return s.totalBytes.Load()
}

type readerSource struct {
	r    io.Reader
	size int
}

// FromReader splits r into chunks of at most size bytes.
func FromReader(r io.Reader, size int) Source[[]byte] {
	if size <= 0 {
		size = 32 * 1024
	}
	return &readerSource{r: r, size: size}
}

func (s *readerSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, s.size)
	n, err := io.ReadFull(s.r, buf)
	if n > 0 {
		return buf[:n], nil
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return nil, err
}

func (s *readerSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
