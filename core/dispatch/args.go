package dispatch

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sort"

	"github.com/xenon-middleware/xenon-go/domain/wire"
)

// Args are the loosely typed arguments of one call site.
type Args struct {
	Positional []any
	Keyword    map[string]any
}

// Pos returns Args with the given positional values.
func Pos(values ...any) Args {
	return Args{Positional: values}
}

// Kw returns Args with one keyword value.
func Kw(name string, v any) Args {
	return Args{}.With(name, v)
}

// With returns a copy of a with the keyword name set to v.
func (a Args) With(name string, v any) Args {
	kw := make(map[string]any, len(a.Keyword)+1)
	maps.Copy(kw, a.Keyword)
	kw[name] = v
	return Args{Positional: a.Positional, Keyword: kw}
}

// Empty reports whether no arguments were passed.
func (a Args) Empty() bool {
	return len(a.Positional) == 0 && len(a.Keyword) == 0
}

// Proxy is implemented by every local wrapper of a remote value.
type Proxy interface {
	Wrapped() any
}

var enumType = reflect.TypeFor[wire.Enum]()

// Unwrap normalizes one argument value: proxies become their wrapped form,
// enums become their scalar, and enum lists or any slice of enums become
// scalar slices.
func Unwrap(v any) any {
	switch x := v.(type) {
	case Proxy:
		return x.Wrapped()
	case wire.Enum:
		return x.EnumNumber()
	case wire.EnumList:
		return x.EnumNumbers()
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Unwrap(item)
		}
		return out
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice && rv.Type().Elem().Implements(enumType) {
		out := make([]int32, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface().(wire.Enum).EnumNumber()
		}
		return out
	}
	return v
}

// Bind matches args against params: positionals left to right, then
// keywords. Values are unwrapped. request names the schema in errors and
// may be empty.
func Bind(method, request string, params []string, args Args) (map[string]any, error) {
	if len(args.Positional) > len(params) {
		return nil, &ArgumentBindingError{
			Method: method,
			Reason: fmt.Sprintf("takes at most %d positional arguments, got %d", len(params), len(args.Positional)),
		}
	}

	values := make(map[string]any, len(args.Positional)+len(args.Keyword))
	for i, v := range args.Positional {
		values[params[i]] = Unwrap(v)
	}

	names := make([]string, 0, len(args.Keyword))
	for name := range args.Keyword {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !slices.Contains(params, name) {
			return nil, &UnknownFieldError{Method: method, Request: request, Field: name}
		}
		if _, dup := values[name]; dup {
			return nil, &ArgumentBindingError{
				Method: method,
				Reason: fmt.Sprintf("got multiple values for %q", name),
			}
		}
		values[name] = Unwrap(args.Keyword[name])
	}
	return values, nil
}
