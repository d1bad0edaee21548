package wire

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownField is returned by Schema.Build for a name the schema lacks.
var ErrUnknownField = errors.New("unknown field")

// Schema describes one message type: its ordered field names, its zero
// value, and typed construction from a name → value map.
type Schema interface {
	// Name is the message type name, e.g. "PathRequest".
	Name() string

	// Fields lists field names in declaration order.
	Fields() []string

	// Has reports whether field is part of the message.
	Has(field string) bool

	// New returns a pointer to a zero message.
	New() any

	// Build returns a pointer to a message with the given fields set.
	// Fields not present in values keep their zero value.
	Build(values map[string]any) (any, error)

	// Get reads one field from a message (pointer or value).
	Get(msg any, field string) (any, bool)
}

// FieldTypeError reports a value that cannot be stored in a field.
type FieldTypeError struct {
	Message string
	Field   string
	Want    string
	Got     any
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("%s.%s: cannot use %T as %s", e.Message, e.Field, e.Got, e.Want)
}

type fieldSpec[M any] struct {
	name string
	want string
	set  func(m *M, v any) (ok bool, err error)
	get  func(m *M) any
}

type messageSchema[M any] struct {
	name   string
	fields []fieldSpec[M]
	index  map[string]int
	names  []string
}

func newSchema[M any](name string, fields ...fieldSpec[M]) *messageSchema[M] {
	s := &messageSchema[M]{
		name:   name,
		fields: fields,
		index:  make(map[string]int, len(fields)),
		names:  make([]string, len(fields)),
	}
	for i, f := range fields {
		if _, dup := s.index[f.name]; dup {
			panic(fmt.Sprintf("wire: duplicate field %s.%s", name, f.name))
		}
		s.index[f.name] = i
		s.names[i] = f.name
	}
	return s
}

func (s *messageSchema[M]) Name() string { return s.name }

func (s *messageSchema[M]) Fields() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *messageSchema[M]) Has(field string) bool {
	_, ok := s.index[field]
	return ok
}

func (s *messageSchema[M]) New() any { return new(M) }

func (s *messageSchema[M]) Build(values map[string]any) (any, error) {
	m := new(M)
	for name, v := range values {
		i, ok := s.index[name]
		if !ok {
			return nil, fmt.Errorf("%s.%s: %w", s.name, name, ErrUnknownField)
		}
		f := s.fields[i]
		ok, err := f.set(m, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.name, name, err)
		}
		if !ok {
			return nil, &FieldTypeError{Message: s.name, Field: name, Want: f.want, Got: v}
		}
	}
	return m, nil
}

func (s *messageSchema[M]) Get(msg any, field string) (any, bool) {
	i, ok := s.index[field]
	if !ok {
		return nil, false
	}
	switch m := msg.(type) {
	case *M:
		if m == nil {
			return nil, false
		}
		return s.fields[i].get(m), true
	case M:
		return s.fields[i].get(&m), true
	}
	return nil, false
}

// field stores a value of exactly T (or *T, or nil for zero).
func field[M, T any](name string, ptr func(*M) *T) fieldSpec[M] {
	return fieldSpec[M]{
		name: name,
		want: fmt.Sprintf("%T", *new(T)),
		set: func(m *M, v any) (bool, error) {
			switch x := v.(type) {
			case nil:
				return true, nil
			case T:
				*ptr(m) = x
				return true, nil
			case *T:
				if x != nil {
					*ptr(m) = *x
				}
				return true, nil
			}
			return false, nil
		},
		get: func(m *M) any { return *ptr(m) },
	}
}

// optional stores into a pointer field; nil leaves it unset.
func optional[M, T any](name string, ptr func(*M) **T) fieldSpec[M] {
	return fieldSpec[M]{
		name: name,
		want: fmt.Sprintf("%T", new(T)),
		set: func(m *M, v any) (bool, error) {
			switch x := v.(type) {
			case nil:
				return true, nil
			case *T:
				*ptr(m) = x
				return true, nil
			case T:
				*ptr(m) = &x
				return true, nil
			}
			return false, nil
		},
		get: func(m *M) any { return *ptr(m) },
	}
}

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// number stores any integer kind or an Enum into an integer field, checking
// range.
func number[M any, T integer](name string, ptr func(*M) *T) fieldSpec[M] {
	return fieldSpec[M]{
		name: name,
		want: fmt.Sprintf("%T", *new(T)),
		set: func(m *M, v any) (bool, error) {
			if v == nil {
				return true, nil
			}
			if x, ok := v.(T); ok {
				*ptr(m) = x
				return true, nil
			}
			n, neg, ok := toInt(v)
			if !ok {
				return false, nil
			}
			t, err := convert[T](n, neg)
			if err != nil {
				return true, err
			}
			*ptr(m) = t
			return true, nil
		},
		get: func(m *M) any { return *ptr(m) },
	}
}

// enumList stores an enumeration slice given as []E, []int32, []int, []any
// of integers, or an EnumList.
func enumList[M any, E ~int32](name string, ptr func(*M) *[]E) fieldSpec[M] {
	return fieldSpec[M]{
		name: name,
		want: fmt.Sprintf("%T", []E(nil)),
		set: func(m *M, v any) (bool, error) {
			var out []E
			switch x := v.(type) {
			case nil:
				return true, nil
			case []E:
				out = append(out, x...)
			case EnumList:
				for _, n := range x.EnumNumbers() {
					out = append(out, E(n))
				}
			case []int32:
				for _, n := range x {
					out = append(out, E(n))
				}
			case []int:
				for _, n := range x {
					e, err := convert[E](magnitude(int64(n)), n < 0)
					if err != nil {
						return true, err
					}
					out = append(out, e)
				}
			case []any:
				for _, item := range x {
					n, neg, ok := toInt(item)
					if !ok {
						return false, nil
					}
					e, err := convert[E](n, neg)
					if err != nil {
						return true, err
					}
					out = append(out, e)
				}
			default:
				return false, nil
			}
			*ptr(m) = out
			return true, nil
		},
		get: func(m *M) any { return *ptr(m) },
	}
}

// toInt splits an integer-like value into magnitude and sign.
func toInt(v any) (uint64, bool, bool) {
	switch x := v.(type) {
	case Enum:
		n := int64(x.EnumNumber())
		return magnitude(n), n < 0, true
	case int:
		return magnitude(int64(x)), x < 0, true
	case int8:
		return magnitude(int64(x)), x < 0, true
	case int16:
		return magnitude(int64(x)), x < 0, true
	case int32:
		return magnitude(int64(x)), x < 0, true
	case int64:
		return magnitude(x), x < 0, true
	case uint:
		return uint64(x), false, true
	case uint8:
		return uint64(x), false, true
	case uint16:
		return uint64(x), false, true
	case uint32:
		return uint64(x), false, true
	case uint64:
		return x, false, true
	}
	return 0, false, false
}

func magnitude(n int64) uint64 {
	if n < 0 {
		if n == math.MinInt64 {
			return uint64(math.MaxInt64) + 1
		}
		return uint64(-n)
	}
	return uint64(n)
}

func convert[T integer](n uint64, neg bool) (T, error) {
	var zero T
	signed := ^zero < 0
	if neg {
		if !signed {
			return zero, fmt.Errorf("negative value -%d for unsigned %T", n, zero)
		}
		if n > uint64(math.MaxInt64)+1 {
			return zero, fmt.Errorf("value -%d overflows %T", n, zero)
		}
		s := -int64(n)
		t := T(s)
		if int64(t) != s {
			return zero, fmt.Errorf("value %d overflows %T", s, zero)
		}
		return t, nil
	}
	t := T(n)
	if uint64(t) != n || (signed && t < 0) {
		return zero, fmt.Errorf("value %d overflows %T", n, zero)
	}
	return t, nil
}
