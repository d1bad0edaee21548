// Package registry indexes the synthesized methods of every wrapper kind.
// It rejects two methods claiming the same name or wire operation and
// provides lookup for tooling.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xenon-middleware/xenon-go/domain/wire"
)

// Method is the read-only view of a synthesized method.
type Method interface {
	Name() string
	Operation() string
	FullMethod() string
	Kind() wire.Kind
	Static() bool
	Params() []string
	Doc() string
}

// Entry is a registered method together with the wrapper kind owning it.
type Entry struct {
	Group  string
	Method Method
}

// Registry holds registered methods grouped by wrapper kind.
type Registry struct {
	mu sync.RWMutex

	// methods by group, then by name
	groups map[string]map[string]Method

	// wire methods to the entry claiming them
	wire map[string]Entry
}

// New creates a new registry.
func New() *Registry {
	return &Registry{
		groups: make(map[string]map[string]Method),
		wire:   make(map[string]Entry),
	}
}

// Register adds every method under group. Nothing is registered when any
// method conflicts.
func (r *Registry) Register(group string, methods ...Method) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.groups[group]; exists {
		return fmt.Errorf("group %q already registered", group)
	}

	if conflicts := r.detectConflicts(group, methods); len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}

	byName := make(map[string]Method, len(methods))
	for _, m := range methods {
		byName[m.Name()] = m
		r.wire[m.FullMethod()] = Entry{Group: group, Method: m}
	}
	r.groups[group] = byName
	return nil
}

// Unregister removes a group and its wire claims.
func (r *Registry) Unregister(group string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	methods, exists := r.groups[group]
	if !exists {
		return fmt.Errorf("group %q not registered", group)
	}
	for _, m := range methods {
		delete(r.wire, m.FullMethod())
	}
	delete(r.groups, group)
	return nil
}

// Get returns the method called name in group.
func (r *Registry) Get(group, name string) (Method, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.groups[group][name]
	return m, ok
}

// LookupWire finds the entry that owns a wire method path.
func (r *Registry) LookupWire(fullMethod string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.wire[fullMethod]
	return e, ok
}

// Groups returns the registered group names, sorted.
func (r *Registry) Groups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the entries of group, or of every group when group is
// empty, sorted by group and name.
func (r *Registry) List(group string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []Entry
	for g, methods := range r.groups {
		if group != "" && g != group {
			continue
		}
		for _, m := range methods {
			entries = append(entries, Entry{Group: g, Method: m})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Group != entries[j].Group {
			return entries[i].Group < entries[j].Group
		}
		return entries[i].Method.Name() < entries[j].Method.Name()
	})
	return entries
}

// detectConflicts checks for claims without modifying the registry.
func (r *Registry) detectConflicts(group string, methods []Method) []Conflict {
	var conflicts []Conflict

	names := make(map[string]bool, len(methods))
	claimed := make(map[string]string, len(methods))
	for _, m := range methods {
		if names[m.Name()] {
			conflicts = append(conflicts, Conflict{Kind: "name", Key: m.Name(), Groups: []string{group, group}})
		}
		names[m.Name()] = true

		full := m.FullMethod()
		if existing, ok := r.wire[full]; ok {
			conflicts = append(conflicts, Conflict{Kind: "wire", Key: full, Groups: []string{existing.Group, group}})
		} else if prev, ok := claimed[full]; ok {
			conflicts = append(conflicts, Conflict{Kind: "wire", Key: full, Groups: []string{group + "." + prev, group + "." + m.Name()}})
		}
		claimed[full] = m.Name()
	}

	return conflicts
}

// Conflict is one name or wire operation claimed twice.
type Conflict struct {
	Kind   string // "name" or "wire"
	Key    string
	Groups []string
}

func (c Conflict) Error() string {
	return fmt.Sprintf("%s %q claimed by %s", c.Kind, c.Key, strings.Join(c.Groups, " and "))
}

// ConflictError represents one or more conflicting claims.
type ConflictError struct {
	Conflicts []Conflict
}

// Error returns the conflict error message.
func (e *ConflictError) Error() string {
	var msgs []string
	for _, c := range e.Conflicts {
		msgs = append(msgs, c.Error())
	}
	return fmt.Sprintf("method conflicts detected:\n  - %s", strings.Join(msgs, "\n  - "))
}

// HasConflicts returns true if there are any conflicts.
func (e *ConflictError) HasConflicts() bool {
	return len(e.Conflicts) > 0
}
