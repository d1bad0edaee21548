package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/xenon-middleware/xenon-go/core/convention"
	"github.com/xenon-middleware/xenon-go/domain/streaming"
	"github.com/xenon-middleware/xenon-go/domain/wire"
	"github.com/xenon-middleware/xenon-go/ports"
)

// Method is one synthesized remote method.
type Method[H Handle] struct {
	desc       Descriptor[H]
	service    *wire.Service
	op         wire.Operation
	schema     wire.Schema
	fieldName  string
	params     []string
	convention Convention
}

// Name is the underscore method name.
func (m *Method[H]) Name() string { return m.desc.Name }

// Operation is the remote operation name.
func (m *Method[H]) Operation() string { return m.op.Name }

// FullMethod is the wire method path.
func (m *Method[H]) FullMethod() string { return m.service.Method(m.op.Name) }

func (m *Method[H]) Kind() wire.Kind { return m.op.Kind }

func (m *Method[H]) Static() bool { return m.desc.Static }

func (m *Method[H]) Convention() Convention { return m.convention }

// Request is the request type name, or "" for simple and transform calls.
func (m *Method[H]) Request() string {
	if m.schema == nil {
		return ""
	}
	return m.schema.Name()
}

// FieldName is the request field that receives the receiver.
func (m *Method[H]) FieldName() string { return m.fieldName }

// Params lists the arguments the method accepts, in positional order.
func (m *Method[H]) Params() []string { return slices.Clone(m.params) }

func (m *Method[H]) Doc() string {
	if m.desc.Doc != "" {
		return m.desc.Doc
	}
	return m.op.Doc
}

// Call runs the method on recv. Binding errors are returned before any
// transport call.
func (m *Method[H]) Call(ctx context.Context, recv Receiver[H], args Args) (any, error) {
	h := recv.Handle()
	out, err := m.outbound(recv, args)
	if err != nil {
		if o, ok := any(h).(ports.CallMetrics); ok {
			o.ObserveBindingError(m.FullMethod(), bindingKind(err))
		}
		return nil, err
	}

	raw, err := m.dispatch(ctx, h.Transport(), out)
	if err != nil {
		return nil, err
	}
	if m.desc.Output == nil {
		return raw, nil
	}
	return m.desc.Output(ctx, h, raw)
}

func (m *Method[H]) outbound(recv Receiver[H], args Args) (Outbound, error) {
	switch m.convention {
	case SimpleCall:
		if !args.Empty() {
			if _, err := Bind(m.desc.Name, "", nil, args); err != nil {
				return Outbound{}, err
			}
		}
		if m.desc.Static {
			return Single(&wire.Empty{}), nil
		}
		return Single(Unwrap(recv.Wrapped())), nil

	case TransformCall:
		return m.desc.Input(recv, args)

	default:
		msg, err := m.build(recv, args)
		if err != nil {
			return Outbound{}, err
		}
		return Single(msg), nil
	}
}

// build binds args against the request schema and inserts the receiver.
func (m *Method[H]) build(recv Receiver[H], args Args) (any, error) {
	values, err := Bind(m.desc.Name, m.schema.Name(), m.params, args)
	if err != nil {
		return nil, err
	}
	if !m.desc.Static {
		values[m.fieldName] = Unwrap(recv.Wrapped())
	}
	msg, err := m.schema.Build(values)
	if err != nil {
		return nil, &ArgumentBindingError{Method: m.desc.Name, Reason: "cannot build " + m.schema.Name(), Err: err}
	}
	return msg, nil
}

func (m *Method[H]) dispatch(ctx context.Context, tr ports.Transport, out Outbound) (any, error) {
	method := m.FullMethod()

	if m.op.Kind == wire.Unary {
		if out.Fragments != nil {
			return nil, &ArgumentBindingError{Method: m.desc.Name, Reason: "unary operation takes a single request"}
		}
		resp := m.op.NewResponse()
		if err := tr.Invoke(ctx, method, out.Message, resp); err != nil {
			return nil, &RemoteOperationError{Method: method, Err: err}
		}
		return resp, nil
	}

	sctx, cancel := context.WithCancel(ctx)
	stream, err := tr.NewStream(sctx, method, m.op.Kind)
	if err != nil {
		cancel()
		return nil, &RemoteOperationError{Method: method, Err: err}
	}

	switch m.op.Kind {
	case wire.ServerStream:
		if out.Fragments != nil {
			cancel()
			return nil, &ArgumentBindingError{Method: m.desc.Name, Reason: "server stream takes a single request"}
		}
		if err := stream.Send(out.Message); err != nil {
			cancel()
			return nil, &RemoteOperationError{Method: method, Err: err}
		}
		if err := stream.CloseSend(); err != nil {
			cancel()
			return nil, &RemoteOperationError{Method: method, Err: err}
		}
		return newResponseStream(method, stream, m.op.NewResponse, cancel), nil

	case wire.ClientStream:
		defer cancel()
		if err := sendAll(sctx, method, stream, out.source()); err != nil {
			return nil, err
		}
		resp := m.op.NewResponse()
		if err := stream.Recv(resp); err != nil {
			return nil, &RemoteOperationError{Method: method, Err: err}
		}
		return resp, nil

	default:
		rs := newResponseStream(method, stream, m.op.NewResponse, cancel)
		go func() {
			if err := sendAll(sctx, method, stream, out.source()); err != nil {
				rs.fail(err)
			}
		}()
		return rs, nil
	}
}

// sendAll forwards every fragment of src in order, then half-closes. When
// Send reports io.EOF the server has already ended the call; forwarding
// stops without error and Recv reports the call's status.
func sendAll(ctx context.Context, method string, stream ports.ClientStream, src streaming.Source[any]) error {
	defer streaming.Close(src)
	for {
		frag, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: reading input: %w", method, err)
		}
		if err := stream.Send(frag); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return &RemoteOperationError{Method: method, Err: err}
		}
	}
	if err := stream.CloseSend(); err != nil {
		return &RemoteOperationError{Method: method, Err: err}
	}
	return nil
}

// Table is the method table of one wrapper type.
type Table[H Handle] struct {
	service *wire.Service
	methods map[string]*Method[H]
	order   []string
}

// NewTable synthesizes one method per descriptor. defaultField is the
// request field receiving the receiver when a descriptor names none.
func NewTable[H Handle](service *wire.Service, defaultField string, descs ...Descriptor[H]) (*Table[H], error) {
	t := &Table[H]{
		service: service,
		methods: make(map[string]*Method[H], len(descs)),
	}
	for _, d := range descs {
		if _, dup := t.methods[d.Name]; dup {
			return nil, fmt.Errorf("%s.%s: %w", service.Name, d.Name, ErrDuplicateMethod)
		}
		m, err := newMethod(service, defaultField, d)
		if err != nil {
			return nil, err
		}
		t.methods[d.Name] = m
		t.order = append(t.order, d.Name)
	}
	return t, nil
}

// MustNewTable is NewTable for package-level tables. It panics on error.
func MustNewTable[H Handle](service *wire.Service, defaultField string, descs ...Descriptor[H]) *Table[H] {
	t, err := NewTable(service, defaultField, descs...)
	if err != nil {
		panic(err)
	}
	return t
}

func newMethod[H Handle](service *wire.Service, defaultField string, d Descriptor[H]) (*Method[H], error) {
	opName := convention.LowerCamelCase(d.Name)
	op, ok := service.Operation(opName)
	if !ok {
		return nil, fmt.Errorf("%s/%s (%s): %w", service.Name, opName, d.Name, ErrUnknownOperation)
	}

	m := &Method[H]{desc: d, service: service, op: op}

	switch {
	case d.Input != nil:
		m.convention = TransformCall
		m.params = slices.Clone(d.Params)

	case d.IsSimple():
		m.convention = SimpleCall
		if op.Kind.ClientStreams() {
			return nil, &ArgumentBindingError{Method: d.Name, Reason: "streaming request needs an input transform"}
		}

	default:
		if op.Kind.ClientStreams() {
			return nil, &ArgumentBindingError{Method: d.Name, Reason: "streaming request needs an input transform"}
		}
		m.convention = RequestCall
		schema, ok := wire.Lookup(d.RequestName())
		if !ok {
			return nil, fmt.Errorf("%s: %s: %w", d.Name, d.RequestName(), ErrUnknownSchema)
		}
		m.schema = schema
		m.params = schema.Fields()

		if !d.Static {
			field := d.FieldName
			if field == "" {
				field = defaultField
			}
			if field == "" {
				return nil, &ArgumentBindingError{Method: d.Name, Reason: "no field name for the receiver of " + schema.Name()}
			}
			if !schema.Has(field) {
				return nil, &ArgumentBindingError{Method: d.Name, Reason: fmt.Sprintf("%s has no receiver field %q", schema.Name(), field)}
			}
			m.fieldName = field
			m.params = slices.DeleteFunc(m.params, func(f string) bool { return f == field })
		}
	}
	return m, nil
}

// Service is the catalog the table dispatches to.
func (t *Table[H]) Service() *wire.Service { return t.service }

// Method looks a method up by underscore name.
func (t *Table[H]) Method(name string) (*Method[H], bool) {
	m, ok := t.methods[name]
	return m, ok
}

// Methods returns the methods in declaration order.
func (t *Table[H]) Methods() []*Method[H] {
	out := make([]*Method[H], len(t.order))
	for i, name := range t.order {
		out[i] = t.methods[name]
	}
	return out
}

// Call runs the named method on recv.
func (t *Table[H]) Call(ctx context.Context, name string, recv Receiver[H], args Args) (any, error) {
	m, ok := t.methods[name]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", t.service.Name, name, ErrUnknownMethod)
	}
	return m.Call(ctx, recv, args)
}
