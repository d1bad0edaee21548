package app_test

import (
	"context"
	"testing"

	"github.com/xenon-middleware/xenon-go/app"
	"github.com/xenon-middleware/xenon-go/core/dispatch"
	"github.com/xenon-middleware/xenon-go/domain/wire"
)

func TestPath(t *testing.T) {
	tests := []struct {
		name   string
		path   app.Path
		want   string
		base   string
		dir    string
		abs    bool
		hidden bool
	}{
		{"absolute", app.NewPath("/home/user/file.txt"), "/home/user/file.txt", "file.txt", "/home/user", true, false},
		{"joined", app.NewPath("/data").Join("in", "x"), "/data/in/x", "x", "/data/in", true, false},
		{"cleaned", app.NewPath("/a//b/../c"), "/a/c", "c", "/a", true, false},
		{"relative", app.NewPath("rel", "p"), "rel/p", "p", "rel", false, false},
		{"hidden", app.NewPath("/home/.bashrc"), "/home/.bashrc", ".bashrc", "/home", true, true},
		{"dot dir", app.NewPath("/home/.."), "/", "/", "/", true, false},
		{"from wire", app.PathFromWire(wire.Path{Path: `C:\tmp\x`, Separator: `\`}), "C:/tmp/x", "x", "C:/tmp", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if got := tt.path.Base(); got != tt.base {
				t.Errorf("Base() = %q, want %q", got, tt.base)
			}
			if got := tt.path.Dir().String(); got != tt.dir {
				t.Errorf("Dir() = %q, want %q", got, tt.dir)
			}
			if got := tt.path.IsAbs(); got != tt.abs {
				t.Errorf("IsAbs() = %v", got)
			}
			if got := tt.path.IsHidden(); got != tt.hidden {
				t.Errorf("IsHidden() = %v", got)
			}
		})
	}
}

func TestPath_Wrapped(t *testing.T) {
	w, ok := dispatch.Unwrap(app.NewPath("/x")).(wire.Path)
	if !ok {
		t.Fatalf("Unwrap(Path) = %T, want wire.Path", dispatch.Unwrap(app.NewPath("/x")))
	}
	if w.Path != "/x" || w.Separator != "/" {
		t.Errorf("wrapped = %+v", w)
	}
}

func TestEnums(t *testing.T) {
	p, err := app.ParsePosixFilePermission("GROUP_WRITE")
	if err != nil {
		t.Fatalf("ParsePosixFilePermission: %v", err)
	}
	if p != app.GroupWrite || p.String() != "GROUP_WRITE" {
		t.Errorf("parsed %v (%d)", p, p.EnumNumber())
	}
	if got := dispatch.Unwrap(app.CopyReplace); got != int32(app.CopyReplace) {
		t.Errorf("Unwrap(CopyReplace) = %v", got)
	}
	perms := app.Permissions{app.OwnerRead, app.OthersExecute}
	got, ok := dispatch.Unwrap(perms).([]int32)
	if !ok || len(got) != 2 || got[1] != int32(app.OthersExecute) {
		t.Errorf("Unwrap(Permissions) = %v", dispatch.Unwrap(perms))
	}
}

func TestAttr(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()
	fs := localFS(t, s)
	mustWrite(t, fs, "/f", "12345")

	attrs, err := fs.Attributes(ctx, app.NewPath("/f"))
	if err != nil {
		t.Fatalf("Attributes: %v", err)
	}
	sc := localScheduler(t, s)
	job, err := sc.SubmitBatchJob(ctx, app.JobDescription{Executable: "echo"})
	if err != nil {
		t.Fatalf("SubmitBatchJob: %v", err)
	}
	st, err := sc.JobStatus(ctx, job)
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}

	type attrer interface {
		Attr(string) (any, bool)
	}
	tests := []struct {
		name  string
		of    attrer
		field string
		want  any
		ok    bool
	}{
		{"size", attrs, "size", int64(5), true},
		{"regular", attrs, "is_regular", true, true},
		{"go field name", attrs, "Size", nil, false},
		{"unknown", attrs, "inode", nil, false},
		{"job state", st, "state", "DONE", true},
		{"job exit", st, "exit_code", int32(0), true},
		{"job not public", st, "job", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.of.Attr(tt.field)
			if ok != tt.ok {
				t.Fatalf("Attr(%q) ok = %v, want %v", tt.field, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Attr(%q) = %v (%T), want %v (%T)", tt.field, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestProxy_RawAndHandle(t *testing.T) {
	s, _ := newTestSession(t)
	fs := localFS(t, s)
	if fs.Handle() != s {
		t.Error("Handle() is not the session")
	}
	if fs.Raw() != (wire.FileSystem{ID: "local"}) {
		t.Errorf("Raw() = %+v", fs.Raw())
	}
	if _, ok := fs.Wrapped().(wire.FileSystem); !ok {
		t.Errorf("Wrapped() = %T", fs.Wrapped())
	}
}
