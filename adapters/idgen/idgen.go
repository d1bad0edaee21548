// Package idgen generates identifiers for resources created by the
// in-memory service.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/xenon-middleware/xenon-go/ports"
)

// UUID generates random v4 UUIDs behind an optional prefix.
type UUID struct {
	Prefix string
}

func (g UUID) New() string {
	return g.Prefix + uuid.NewString()
}

// Sequential generates "<prefix>1", "<prefix>2", ... and is safe for
// concurrent use. Tests use it for predictable identifiers.
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

// Reset restarts the sequence.
func (s *Sequential) Reset() {
	s.counter.Store(0)
}

var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = (*Sequential)(nil)
)
