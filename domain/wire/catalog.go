package wire

import (
	"fmt"
	"sort"
)

// Kind is the wire shape of an operation.
type Kind int

const (
	Unary Kind = iota
	ServerStream
	ClientStream
	BidiStream
)

func (k Kind) String() string {
	switch k {
	case Unary:
		return "unary"
	case ServerStream:
		return "server_stream"
	case ClientStream:
		return "client_stream"
	case BidiStream:
		return "bidi_stream"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ClientStreams reports whether the client sends a fragment stream.
func (k Kind) ClientStreams() bool { return k == ClientStream || k == BidiStream }

// ServerStreams reports whether the server replies with a fragment stream.
func (k Kind) ServerStreams() bool { return k == ServerStream || k == BidiStream }

// Operation is one remote operation of a service.
type Operation struct {
	Name        string
	Kind        Kind
	NewRequest  func() any
	NewResponse func() any
	Doc         string
}

// Service is the operation catalog of one remote service.
type Service struct {
	Name string
	ops  map[string]Operation
}

func newService(name string, ops ...Operation) *Service {
	s := &Service{Name: name, ops: make(map[string]Operation, len(ops))}
	for _, op := range ops {
		if _, dup := s.ops[op.Name]; dup {
			panic(fmt.Sprintf("wire: duplicate operation %s/%s", name, op.Name))
		}
		s.ops[op.Name] = op
	}
	return s
}

// Operation returns the catalog entry for a lower-camel operation name.
func (s *Service) Operation(name string) (Operation, bool) {
	op, ok := s.ops[name]
	return op, ok
}

// Operations returns all entries ordered by name.
func (s *Service) Operations() []Operation {
	out := make([]Operation, 0, len(s.ops))
	for _, op := range s.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Method returns the full method path used on the wire.
func (s *Service) Method(op string) string {
	return "/" + s.Name + "/" + op
}

func op[Req, Resp any](name string, kind Kind, doc string) Operation {
	return Operation{
		Name:        name,
		Kind:        kind,
		NewRequest:  func() any { return new(Req) },
		NewResponse: func() any { return new(Resp) },
		Doc:         doc,
	}
}
