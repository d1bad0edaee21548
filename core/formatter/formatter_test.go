package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func testView() View {
	return View{
		Kind:   "path",
		Hidden: []string{"owner"},
	}
}

func testRecords() []map[string]any {
	return []map[string]any{
		{"path": "/a.txt", "size": int64(11), "is_directory": false, "owner": "root"},
		{"path": "/dir", "size": int64(0), "is_directory": true, "owner": "root"},
	}
}

// ===========================================
// Registry Tests
// ===========================================

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.formatters == nil {
		t.Fatal("formatters map should be initialized")
	}
	if r.defaultFmt != "table" {
		t.Errorf("default format should be 'table', got %q", r.defaultFmt)
	}
	if r.Default() != nil {
		t.Error("empty registry should have no default")
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewJSONFormatter()); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := r.Register(NewJSONFormatter()); err == nil {
		t.Error("duplicate Register should fail")
	}

	if _, ok := r.Get("json"); !ok {
		t.Error("json formatter not found")
	}
	if _, ok := r.Get("csv"); ok {
		t.Error("csv formatter should not exist")
	}

	// No table formatter: Default falls back to any registered one.
	if d := r.Default(); d == nil || d.Name() != "json" {
		t.Errorf("Default() = %v, want json fallback", d)
	}
}

func TestRegistry_SetDefault(t *testing.T) {
	r := NewRegistry()
	r.Register(NewTableFormatter())
	r.Register(NewYAMLFormatter())

	if err := r.SetDefault("xml"); err == nil {
		t.Error("SetDefault accepted an unregistered formatter")
	}
	if err := r.SetDefault("yaml"); err != nil {
		t.Fatalf("SetDefault error: %v", err)
	}
	if got := r.Default().Name(); got != "yaml" {
		t.Errorf("Default() = %s, want yaml", got)
	}
}

func TestDefaultRegistry(t *testing.T) {
	names := List()
	want := []string{"json", "table", "yaml"}
	if !slices.Equal(names, want) {
		t.Errorf("List() = %v, want %v", names, want)
	}
	if Default().Name() != "table" {
		t.Errorf("default formatter = %s, want table", Default().Name())
	}
	if _, ok := Get("yaml"); !ok {
		t.Error("yaml not registered")
	}
}

// ===========================================
// View Tests
// ===========================================

func TestView_Columns(t *testing.T) {
	tests := []struct {
		name      string
		view      View
		requested []string
		want      []string
	}{
		{"sorted visible keys", testView(), nil, []string{"is_directory", "path", "size"}},
		{"requested wins", testView(), []string{"size", "owner"}, []string{"size", "owner"}},
		{"view order", View{Columns: []string{"size", "path"}}, nil, []string{"size", "path"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.view.columns(testRecords(), tt.requested)
			if !slices.Equal(got, tt.want) {
				t.Errorf("columns = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestView_Filter(t *testing.T) {
	v := testView()
	rec := testRecords()[0]

	got := v.filter(rec, nil)
	if _, ok := got["owner"]; ok {
		t.Error("hidden key kept")
	}
	if len(got) != 3 {
		t.Errorf("filtered = %v", got)
	}

	got = v.filter(rec, []string{"owner", "missing"})
	if len(got) != 1 || got["owner"] != "root" {
		t.Errorf("requested filter = %v", got)
	}
}

// ===========================================
// Table Tests
// ===========================================

func TestTableFormatter_FormatList(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter()
	if err := f.FormatList(&buf, testView(), testRecords(), FormatOptions{}); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if fields := strings.Fields(lines[0]); !slices.Equal(fields, []string{"IS_DIRECTORY", "PATH", "SIZE"}) {
		t.Errorf("header = %v", fields)
	}
	if fields := strings.Fields(lines[1]); !slices.Equal(fields, []string{"no", "/a.txt", "11"}) {
		t.Errorf("row = %v", fields)
	}
	if strings.Contains(buf.String(), "root") {
		t.Error("hidden column printed")
	}
}

func TestTableFormatter_Options(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter()
	opts := FormatOptions{Columns: []string{"path"}, NoHeader: true, MaxWidth: 5}
	if err := f.FormatList(&buf, testView(), testRecords(), opts); err != nil {
		t.Fatal(err)
	}
	want := "/a...\n/dir\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestTableFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewTableFormatter().FormatList(&buf, testView(), nil, FormatOptions{})
	if !strings.Contains(buf.String(), "No records found.") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	NewTableFormatter().FormatRecord(&buf, testView(), nil, FormatOptions{})
	if !strings.Contains(buf.String(), "Record not found.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTableFormatter_FormatRecord(t *testing.T) {
	var buf bytes.Buffer
	rec := map[string]any{"exit_code": int32(3), "is_done": true}
	if err := NewTableFormatter().FormatRecord(&buf, View{Kind: "job"}, rec, FormatOptions{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Exit Code:", "3", "Is Done:", "yes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTableFormatter_FormatValue(t *testing.T) {
	f := NewTableFormatter()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name string
		val  any
		want string
	}{
		{"nil", nil, "-"},
		{"string", "x", "x"},
		{"bool", false, "no"},
		{"bytes", []byte{1}, "[binary]"},
		{"whole float", float64(4), "4"},
		{"float", 1.234, "1.23"},
		{"strings", []string{"OWNER_READ", "OWNER_WRITE"}, "OWNER_READ,OWNER_WRITE"},
		{"time", ts, "2024-01-02T03:04:05Z"},
		{"map", map[string]int{"a": 1}, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.formatValue(tt.val, 0); got != tt.want {
				t.Errorf("formatValue(%v) = %q, want %q", tt.val, got, tt.want)
			}
		})
	}
}

// ===========================================
// JSON / YAML Tests
// ===========================================

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter()
	if err := f.FormatList(&buf, testView(), testRecords(), FormatOptions{Compact: true}); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("compact output spans lines: %q", buf.String())
	}

	var out struct {
		Kind  string           `json:"kind"`
		Count int              `json:"count"`
		Data  []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Kind != "path" || out.Count != 2 || out.Data[0]["path"] != "/a.txt" {
		t.Errorf("decoded = %+v", out)
	}
	if _, ok := out.Data[0]["owner"]; ok {
		t.Error("hidden key encoded")
	}

	buf.Reset()
	f.FormatError(&buf, errors.New("boom"))
	if !strings.Contains(buf.String(), `"error": "boom"`) {
		t.Errorf("error output = %q", buf.String())
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewYAMLFormatter()
	if err := f.FormatRecord(&buf, testView(), testRecords()[1], FormatOptions{Columns: []string{"path"}}); err != nil {
		t.Fatal(err)
	}

	var out map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data, _ := out["data"].(map[string]any)
	if out["kind"] != "path" || data["path"] != "/dir" || len(data) != 1 {
		t.Errorf("decoded = %v", out)
	}

	buf.Reset()
	f.FormatError(&buf, errors.New("boom"))
	if strings.TrimSpace(buf.String()) != "error: boom" {
		t.Errorf("error output = %q", buf.String())
	}
}
