package app

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/xenon-middleware/xenon-go/domain/streaming"
	"github.com/xenon-middleware/xenon-go/domain/wire"
)

// AttributeFilter evaluates boolean Expr predicates over PathAttributes,
// e.g. `is_regular && size > 1024 && ext(name) == ".txt"`.
//
// Every public attribute is a variable under its wire name. Paths are
// strings, permissions are lists of names such as "OWNER_READ", times are
// milliseconds since the epoch. name and dir hold the last element and the
// parent of path.
type AttributeFilter struct {
	// Compiled program cache
	cache   map[string]*vm.Program
	cacheMu sync.RWMutex

	envOptions []expr.Option
}

// NewAttributeFilter creates a filter with an empty program cache.
func NewAttributeFilter() *AttributeFilter {
	f := &AttributeFilter{
		cache: make(map[string]*vm.Program),
	}

	f.envOptions = []expr.Option{
		expr.Function("ext", func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("ext requires 1 argument")
			}
			return path.Ext(toString(params[0])), nil
		}, new(func(string) string)),
		expr.Function("glob", func(params ...any) (any, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("glob requires 2 arguments (pattern, name)")
			}
			return path.Match(toString(params[0]), toString(params[1]))
		}, new(func(string, string) bool)),
		expr.Function("perm", func(params ...any) (any, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("perm requires 2 arguments (permissions, name)")
			}
			perms, _ := params[0].([]string)
			want := strings.ToUpper(toString(params[1]))
			for _, p := range perms {
				if p == want {
					return true, nil
				}
			}
			return false, nil
		}, new(func([]string, string) bool)),
	}
	return f
}

// Compile checks expression and caches its program.
func (f *AttributeFilter) Compile(expression string) error {
	_, err := f.getOrCompile(expression)
	return err
}

// Match reports whether a satisfies expression.
func (f *AttributeFilter) Match(expression string, a PathAttributes) (bool, error) {
	program, err := f.getOrCompile(expression)
	if err != nil {
		return false, err
	}
	out, err := expr.Run(program, attributeEnv(a.value))
	if err != nil {
		return false, fmt.Errorf("run filter: %w", err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Apply narrows src to the entries matching expression. The expression is
// compiled before any entry is pulled.
func (f *AttributeFilter) Apply(src streaming.Source[PathAttributes], expression string) (streaming.Source[PathAttributes], error) {
	if err := f.Compile(expression); err != nil {
		return nil, err
	}
	return streaming.Filter(src, func(a PathAttributes) (bool, error) {
		return f.Match(expression, a)
	}), nil
}

// ClearCache clears the compiled expression cache.
func (f *AttributeFilter) ClearCache() {
	f.cacheMu.Lock()
	f.cache = make(map[string]*vm.Program)
	f.cacheMu.Unlock()
}

func (f *AttributeFilter) getOrCompile(expression string) (*vm.Program, error) {
	f.cacheMu.RLock()
	program, ok := f.cache[expression]
	f.cacheMu.RUnlock()

	if ok {
		return program, nil
	}

	opts := append([]expr.Option{expr.Env(attributeEnv(wire.PathAttributes{})), expr.AsBool()}, f.envOptions...)
	program, err := expr.Compile(expression, opts...)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}

	f.cacheMu.Lock()
	f.cache[expression] = program
	f.cacheMu.Unlock()

	return program, nil
}

// attributeEnv flattens the public attributes into expression variables.
func attributeEnv(a wire.PathAttributes) map[string]any {
	sc, _ := wire.Lookup("PathAttributes")
	env := make(map[string]any, len(pathAttributesPublic)+2)
	for _, name := range pathAttributesPublic {
		v, _ := sc.Get(a, name)
		env[name] = v
	}

	p := PathFromWire(a.Path)
	env["path"] = p.String()
	env["name"] = p.Base()
	env["dir"] = p.Dir().String()

	perms := make([]string, len(a.Permissions))
	for i, perm := range a.Permissions {
		perms[i] = perm.String()
	}
	env["permissions"] = perms
	return env
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}
