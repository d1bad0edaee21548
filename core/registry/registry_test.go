package registry

import (
	"errors"
	"strings"
	"testing"

	"github.com/xenon-middleware/xenon-go/domain/wire"
)

type fakeMethod struct {
	name, full string
	kind       wire.Kind
	static     bool
}

func (m fakeMethod) Name() string       { return m.name }
func (m fakeMethod) Operation() string  { return m.full[strings.LastIndex(m.full, "/")+1:] }
func (m fakeMethod) FullMethod() string { return m.full }
func (m fakeMethod) Kind() wire.Kind    { return m.kind }
func (m fakeMethod) Static() bool       { return m.static }
func (m fakeMethod) Params() []string   { return nil }
func (m fakeMethod) Doc() string        { return "" }

func fm(name, full string) Method {
	return fakeMethod{name: name, full: full}
}

func TestNew(t *testing.T) {
	r := New()
	if r.groups == nil || r.wire == nil {
		t.Fatal("maps should be initialized")
	}
	if len(r.Groups()) != 0 || len(r.List("")) != 0 {
		t.Error("new registry should be empty")
	}
}

func TestRegistry_Register(t *testing.T) {
	r := New()
	err := r.Register("fs", fm("list", "/svc.FS/list"), fm("exists", "/svc.FS/exists"))
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if _, ok := r.Get("fs", "list"); !ok {
		t.Error("list not found")
	}
	if _, ok := r.Get("fs", "copy"); ok {
		t.Error("copy should not exist")
	}
	if _, ok := r.Get("sched", "list"); ok {
		t.Error("unknown group should not match")
	}

	e, ok := r.LookupWire("/svc.FS/exists")
	if !ok || e.Group != "fs" || e.Method.Name() != "exists" {
		t.Errorf("LookupWire = %+v, %v", e, ok)
	}
}

func TestRegistry_RegisterDuplicateGroup(t *testing.T) {
	r := New()
	r.Register("fs", fm("list", "/svc.FS/list"))
	if err := r.Register("fs", fm("copy", "/svc.FS/copy")); err == nil {
		t.Error("duplicate group accepted")
	}
}

func TestRegistry_Conflicts(t *testing.T) {
	tests := []struct {
		name     string
		existing []Method
		methods  []Method
		kinds    []string
	}{
		{
			name:    "duplicate name",
			methods: []Method{fm("list", "/svc.FS/list"), fm("list", "/svc.FS/list2")},
			kinds:   []string{"name"},
		},
		{
			name:    "same wire method in group",
			methods: []Method{fm("list", "/svc.FS/list"), fm("ls", "/svc.FS/list")},
			kinds:   []string{"wire"},
		},
		{
			name:     "wire method of another group",
			existing: []Method{fm("list", "/svc.FS/list")},
			methods:  []Method{fm("list", "/svc.FS/list")},
			kinds:    []string{"wire"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			if tt.existing != nil {
				if err := r.Register("first", tt.existing...); err != nil {
					t.Fatal(err)
				}
			}

			err := r.Register("second", tt.methods...)
			var ce *ConflictError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want ConflictError", err)
			}
			if !ce.HasConflicts() || len(ce.Conflicts) != len(tt.kinds) {
				t.Fatalf("conflicts = %+v", ce.Conflicts)
			}
			for i, k := range tt.kinds {
				if ce.Conflicts[i].Kind != k {
					t.Errorf("conflict %d kind = %s, want %s", i, ce.Conflicts[i].Kind, k)
				}
			}
			if !strings.Contains(err.Error(), "method conflicts detected") {
				t.Errorf("Error() = %q", err.Error())
			}
			if _, ok := r.Get("second", tt.methods[0].Name()); ok {
				t.Error("conflicting group was partially registered")
			}
		})
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := New()
	r.Register("fs", fm("list", "/svc.FS/list"))

	if err := r.Unregister("fs"); err != nil {
		t.Fatalf("Unregister error: %v", err)
	}
	if _, ok := r.LookupWire("/svc.FS/list"); ok {
		t.Error("wire claim survived Unregister")
	}
	if err := r.Unregister("fs"); err == nil {
		t.Error("second Unregister should fail")
	}
	// The wire method is free again.
	if err := r.Register("other", fm("list", "/svc.FS/list")); err != nil {
		t.Errorf("re-register error: %v", err)
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	r := New()
	r.Register("sched", fm("submit", "/svc.S/submit"), fm("cancel", "/svc.S/cancel"))
	r.Register("fs", fm("rename", "/svc.FS/rename"), fm("copy", "/svc.FS/copy"))

	var got []string
	for _, e := range r.List("") {
		got = append(got, e.Group+"."+e.Method.Name())
	}
	want := "fs.copy fs.rename sched.cancel sched.submit"
	if strings.Join(got, " ") != want {
		t.Errorf("List = %v, want %s", got, want)
	}

	if n := len(r.List("fs")); n != 2 {
		t.Errorf("List(fs) = %d entries", n)
	}
	if groups := r.Groups(); strings.Join(groups, ",") != "fs,sched" {
		t.Errorf("Groups = %v", groups)
	}
}
