package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/xenon-middleware/xenon-go/adapters/clock"
	"github.com/xenon-middleware/xenon-go/adapters/idgen"
	"github.com/xenon-middleware/xenon-go/domain/wire"
	"github.com/xenon-middleware/xenon-go/ports"
)

// Identifiers of the resources every Service starts with.
const (
	LocalFileSystemID = "local"
	LocalSchedulerID  = "local"
)

// Queues of every scheduler. The first one is the default.
var schedulerQueues = []string{"single", "multi", "unlimited"}

// Service is an in-memory Xenon service. It keeps file systems as path
// maps and runs a few well-known executables itself:
//
//	cat    echoes interactive stdin, or copies its stdin file for batch jobs
//	echo   prints its arguments
//	sleep  stays running until cancelled
//	false  exits with status 1
//
// Any other executable exits 0 without output.
type Service struct {
	clock     ports.Clock
	ids       ports.IDGenerator
	chunkSize int

	mu         sync.Mutex
	fsOrder    []string
	fileSys    map[string]*memFS
	copies     map[string]*copyOp
	schedOrder []string
	scheds     map[string]*memScheduler
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for file timestamps.
func WithClock(c ports.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithIDs sets the generator for resource identifiers.
func WithIDs(g ports.IDGenerator) Option {
	return func(s *Service) { s.ids = g }
}

// WithReadChunkSize sets the fragment size of readFromFile streams.
func WithReadChunkSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// NewService creates a service holding the local file system and the
// local scheduler.
func NewService(opts ...Option) *Service {
	s := &Service{
		clock:     clock.Real{},
		ids:       idgen.NewSequential(""),
		chunkSize: 32 * 1024,
		fileSys:   make(map[string]*memFS),
		copies:    make(map[string]*copyOp),
		scheds:    make(map[string]*memScheduler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.addFileSystem(newMemFS(LocalFileSystemID, "file", "/", nil, s.now()))
	s.addScheduler(newMemScheduler(LocalSchedulerID, "local", "local://", nil, LocalFileSystemID))
	return s
}

// NewLoopback returns a transport serving a fresh Service.
func NewLoopback(opts ...Option) (*Transport, *Service) {
	t := NewTransport()
	s := NewService(opts...)
	s.Register(t)
	return t, s
}

func (s *Service) now() int64 { return s.clock.Now().UnixMilli() }

func (s *Service) newID(kind string) string { return kind + "-" + s.ids.New() }

// Register installs a handler for every operation of both services.
func (s *Service) Register(t *Transport) {
	s.registerFileSystem(t)
	s.registerScheduler(t)
}

func unary[Req any](t *Transport, svc *wire.Service, op string, fn func(context.Context, *Req) (any, error)) {
	if _, ok := svc.Operation(op); !ok {
		panic(fmt.Sprintf("memory: %s has no operation %s", svc.Name, op))
	}
	t.HandleUnary(svc.Method(op), func() any { return new(Req) }, func(ctx context.Context, req any) (any, error) {
		return fn(ctx, req.(*Req))
	})
}

func stream(t *Transport, svc *wire.Service, op string, h StreamHandler) {
	if _, ok := svc.Operation(op); !ok {
		panic(fmt.Sprintf("memory: %s has no operation %s", svc.Name, op))
	}
	t.HandleStream(svc.Method(op), h)
}

func notFound(format string, args ...any) error {
	return status.Errorf(codes.NotFound, format, args...)
}

func copyProps(p map[string]string) map[string]string {
	if len(p) == 0 {
		return nil
	}
	return maps.Clone(p)
}
