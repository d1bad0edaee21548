package app

import (
	"slices"

	"github.com/xenon-middleware/xenon-go/core/dispatch"
	"github.com/xenon-middleware/xenon-go/domain/wire"
)

// proxy is the common part of every wrapper: the shared session and the
// wrapped wire value it owns.
type proxy[W any] struct {
	session *Session
	value   W
}

func newProxy[W any](s *Session, v W) proxy[W] {
	return proxy[W]{session: s, value: v}
}

// Handle returns the session the proxy dispatches through.
func (p proxy[W]) Handle() *Session { return p.session }

// Wrapped returns the wire value sent when the proxy is a call argument or
// receiver.
func (p proxy[W]) Wrapped() any { return p.value }

// Raw returns a copy of the wrapped wire value.
func (p proxy[W]) Raw() W { return p.value }

// attr reads a public field of the wrapped value by schema name. Names
// outside public are not resolved.
func (p proxy[W]) attr(schema string, public []string, name string) (any, bool) {
	if !slices.Contains(public, name) {
		return nil, false
	}
	sc, ok := wire.Lookup(schema)
	if !ok {
		return nil, false
	}
	return sc.Get(p.value, name)
}

var _ dispatch.Receiver[*Session] = proxy[wire.FileSystem]{}

// fields resolves every public field of the wrapped value.
func (p proxy[W]) fields(schema string, public []string) map[string]any {
	out := make(map[string]any, len(public))
	for _, name := range public {
		if v, ok := p.attr(schema, public, name); ok {
			out[name] = v
		}
	}
	return out
}
