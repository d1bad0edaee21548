package app_test

import (
	"context"
	"slices"
	"testing"

	"github.com/xenon-middleware/xenon-go/app"
	"github.com/xenon-middleware/xenon-go/domain/streaming"
)

func TestAttributeFilter(t *testing.T) {
	s, _ := newTestSession(t)
	fs := localFS(t, s)
	ctx := context.Background()

	if err := fs.CreateDirectory(ctx, app.NewPath("/d")); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	mustWrite(t, fs, "/d/small.txt", "x")
	mustWrite(t, fs, "/d/big.txt", "0123456789abcdef")
	mustWrite(t, fs, "/d/.hidden", "secret")
	mustWrite(t, fs, "/d/data.csv", "a,b")
	if err := fs.CreateDirectory(ctx, app.NewPath("/d/sub")); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}

	f := app.NewAttributeFilter()
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"directories", `is_directory`, []string{"sub"}},
		{"size", `is_regular && size > 4`, []string{".hidden", "big.txt"}},
		{"extension", `ext(name) == ".txt"`, []string{"big.txt", "small.txt"}},
		{"glob", `glob("*.csv", name)`, []string{"data.csv"}},
		{"hidden", `is_hidden`, []string{".hidden"}},
		{"parent", `dir == "/d" && not is_hidden && is_regular`, []string{"big.txt", "data.csv", "small.txt"}},
		{"permission", `is_regular && perm(permissions, "owner_read") && size < 2`, []string{"small.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := fs.List(ctx, app.NewPath("/d"), false)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			filtered, err := f.Apply(src, tt.expr)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			entries, err := streaming.Collect(ctx, filtered)
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			var got []string
			for _, e := range entries {
				got = append(got, e.Path().Base())
			}
			slices.Sort(got)
			if !slices.Equal(got, tt.want) {
				t.Errorf("%s matched %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestAttributeFilter_CompileErrors(t *testing.T) {
	f := app.NewAttributeFilter()
	tests := []struct {
		name string
		expr string
	}{
		{"syntax", `size >`},
		{"unknown variable", `inode == 3`},
		{"not boolean", `size + 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.Compile(tt.expr); err == nil {
				t.Errorf("Compile(%q) succeeded", tt.expr)
			}
			if _, err := f.Apply(streaming.FromSlice[app.PathAttributes](), tt.expr); err == nil {
				t.Errorf("Apply(%q) succeeded", tt.expr)
			}
		})
	}
}

func TestAttributeFilter_ClearCache(t *testing.T) {
	f := app.NewAttributeFilter()
	if err := f.Compile(`size > 1`); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	f.ClearCache()
	ok, err := f.Match(`size > 1`, app.PathAttributes{})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if ok {
		t.Error("zero attributes matched size > 1")
	}
}
