package app

import (
	"path"
	"strings"

	"github.com/xenon-middleware/xenon-go/domain/wire"
)

// Separator is the only separator Path understands.
const Separator = "/"

// Path is a POSIX path on a remote file system. The zero value is the
// empty relative path.
type Path struct {
	p string
}

// NewPath joins elements into a cleaned path.
func NewPath(elem ...string) Path {
	if len(elem) == 0 {
		return Path{}
	}
	return Path{p: path.Join(elem...)}
}

// PathFromWire converts a wire path. A non-"/" separator is rewritten.
func PathFromWire(w wire.Path) Path {
	p := w.Path
	if w.Separator != "" && w.Separator != Separator {
		p = strings.ReplaceAll(p, w.Separator, Separator)
	}
	return Path{p: p}
}

func (p Path) String() string { return p.p }

// Wrapped returns the wire form sent when a Path is a call argument.
func (p Path) Wrapped() any { return wire.Path{Path: p.p, Separator: Separator} }

// Join appends elements.
func (p Path) Join(elem ...string) Path {
	return NewPath(append([]string{p.p}, elem...)...)
}

// Base returns the last element.
func (p Path) Base() string { return path.Base(p.p) }

// Dir returns all but the last element.
func (p Path) Dir() Path { return Path{p: path.Dir(p.p)} }

// IsAbs reports whether the path starts at the root.
func (p Path) IsAbs() bool { return path.IsAbs(p.p) }

// IsHidden reports whether the last element starts with a dot.
func (p Path) IsHidden() bool {
	base := path.Base(p.p)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
