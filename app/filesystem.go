package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xenon-middleware/xenon-go/core/dispatch"
	"github.com/xenon-middleware/xenon-go/domain/streaming"
	"github.com/xenon-middleware/xenon-go/domain/wire"
)

// DefaultChunkSize is the buffer size used when writing from an io.Reader.
const DefaultChunkSize = 32 * 1024

type fsDesc = dispatch.Descriptor[*Session]

var fileSystemTable = dispatch.MustNewTable[*Session](wire.FileSystemService, "filesystem",
	fsDesc{Name: "get_adaptor_descriptions", Static: true, Output: convert(func(_ *Session, r *wire.FileSystemAdaptorDescriptions) any {
		return r.Descriptions
	})},
	fsDesc{Name: "get_adaptor_names", Static: true, Output: namesOutput()},
	fsDesc{Name: "get_adaptor_description", Static: true, Request: "AdaptorName", Output: convert(func(_ *Session, r *wire.FileSystemAdaptorDescription) any {
		return *r
	})},
	fsDesc{Name: "create", Static: true, Request: "CreateFileSystemRequest", Output: convert(func(s *Session, r *wire.FileSystem) any {
		return FileSystem{newProxy(s, *r)}
	})},
	fsDesc{Name: "local_file_systems", Static: true, Output: fileSystemsOutput()},
	fsDesc{Name: "list_file_systems", Static: true, Output: fileSystemsOutput()},

	fsDesc{Name: "get_adaptor_name", Output: nameOutput()},
	fsDesc{Name: "get_location", Output: locationOutput()},
	fsDesc{Name: "get_properties", Output: propertiesOutput()},
	fsDesc{Name: "get_path_separator", Output: convert(func(_ *Session, r *wire.GetPathSeparatorResponse) any {
		return r.Separator
	})},
	fsDesc{Name: "rename", UsesRequest: true},
	fsDesc{Name: "create_symbolic_link", UsesRequest: true},
	fsDesc{Name: "get_working_directory", Output: pathOutput()},
	fsDesc{Name: "set_working_directory", Request: "PathRequest"},
	fsDesc{Name: "is_open", Output: isOutput()},
	fsDesc{Name: "close"},
	fsDesc{Name: "cancel", Request: "CopyOperationRequest", Output: copyStatusOutput()},
	fsDesc{Name: "get_status", Request: "CopyOperationRequest", Output: copyStatusOutput()},
	fsDesc{Name: "wait_until_done", UsesRequest: true, Output: copyStatusOutput()},
	fsDesc{Name: "create_directories", Request: "PathRequest"},
	fsDesc{Name: "create_directory", Request: "PathRequest"},
	fsDesc{Name: "create_file", Request: "PathRequest"},
	fsDesc{Name: "exists", Request: "PathRequest", Output: isOutput()},
	fsDesc{Name: "read_from_file", Request: "PathRequest", Output: each(func(_ *Session, r *wire.ReadFromFileResponse) []byte {
		return r.Buffer
	})},
	fsDesc{Name: "get_attributes", Request: "PathRequest", Output: convert(func(s *Session, r *wire.PathAttributes) any {
		return newPathAttributes(s, r)
	})},
	fsDesc{Name: "read_symbolic_link", Request: "PathRequest", Output: pathOutput()},
	fsDesc{Name: "write_to_file", Input: writeInput(false), Params: writeParams},
	fsDesc{Name: "append_to_file", Input: writeInput(true), Params: writeParams},
	fsDesc{Name: "delete", UsesRequest: true},
	fsDesc{Name: "copy", UsesRequest: true, Output: convert(func(s *Session, r *wire.CopyOperation) any {
		return CopyOperation{newProxy(s, *r)}
	})},
	fsDesc{Name: "set_posix_file_permissions", UsesRequest: true},
	fsDesc{Name: "list", UsesRequest: true, Output: each(newPathAttributes)},
)

func fileSystemsOutput() dispatch.OutputTransform[*Session] {
	return convert(func(s *Session, r *wire.FileSystems) any {
		out := make([]FileSystem, len(r.Filesystems))
		for i, fs := range r.Filesystems {
			out[i] = FileSystem{newProxy(s, fs)}
		}
		return out
	})
}

func copyStatusOutput() dispatch.OutputTransform[*Session] {
	return convert(func(s *Session, r *wire.CopyStatus) any { return CopyStatus{newProxy(s, *r)} })
}

var writeParams = []string{"path", "data"}

// writeInput streams a header fragment carrying the file system and path,
// then one fragment per chunk of data.
func writeInput(appending bool) dispatch.InputTransform[*Session] {
	name := "write_to_file"
	if appending {
		name = "append_to_file"
	}
	return func(recv dispatch.Receiver[*Session], args dispatch.Args) (dispatch.Outbound, error) {
		values, err := dispatch.Bind(name, "", writeParams, args)
		if err != nil {
			return dispatch.Outbound{}, err
		}
		p, err := wirePath(name, values["path"])
		if err != nil {
			return dispatch.Outbound{}, err
		}
		chunks, err := chunkSource(name, values["data"])
		if err != nil {
			return dispatch.Outbound{}, err
		}

		fs, _ := recv.Wrapped().(wire.FileSystem)
		var header any = &wire.WriteToFileRequest{Filesystem: fs, Path: p}
		frag := func(b []byte) (any, error) { return &wire.WriteToFileRequest{Buffer: b}, nil }
		if appending {
			header = &wire.AppendToFileRequest{Filesystem: fs, Path: p}
			frag = func(b []byte) (any, error) { return &wire.AppendToFileRequest{Buffer: b}, nil }
		}
		return dispatch.Fragments(header, streaming.Map(chunks, frag)), nil
	}
}

// wirePath accepts a Path, a wire.Path or a string.
func wirePath(method string, v any) (wire.Path, error) {
	switch p := dispatch.Unwrap(v).(type) {
	case wire.Path:
		return p, nil
	case *wire.Path:
		if p != nil {
			return *p, nil
		}
	case string:
		return NewPath(p).Wrapped().(wire.Path), nil
	}
	return wire.Path{}, &dispatch.ArgumentBindingError{Method: method, Reason: fmt.Sprintf("path: cannot use %T", v)}
}

// chunkSource accepts a byte-chunk source, a byte slice, a string or an
// io.Reader.
func chunkSource(method string, v any) (streaming.Source[[]byte], error) {
	switch d := v.(type) {
	case streaming.Source[[]byte]:
		return d, nil
	case []byte:
		return streaming.FromSlice(d), nil
	case string:
		return streaming.FromSlice([]byte(d)), nil
	case io.Reader:
		return streaming.FromReader(d, DefaultChunkSize), nil
	case nil:
		return streaming.FromSlice[[]byte](), nil
	}
	return nil, &dispatch.ArgumentBindingError{Method: method, Reason: fmt.Sprintf("data: cannot use %T", v)}
}

// -----------------------------------------------------------------------------
// FileSystem
// -----------------------------------------------------------------------------

// FileSystem is a remote file system.
type FileSystem struct {
	proxy[wire.FileSystem]
}

// ID returns the remote identifier.
func (fs FileSystem) ID() string { return fs.value.ID }

// Equal reports whether both proxies wrap the same remote file system.
func (fs FileSystem) Equal(other FileSystem) bool { return fs.value == other.value }

func (fs FileSystem) String() string { return "FileSystem(" + fs.value.ID + ")" }

// Call runs any file-system method by its underscore name.
func (fs FileSystem) Call(ctx context.Context, method string, args dispatch.Args) (any, error) {
	return fileSystemTable.Call(ctx, method, fs, args)
}

func (fs FileSystem) call(ctx context.Context, method string, args dispatch.Args) error {
	_, err := fileSystemTable.Call(ctx, method, fs, args)
	return err
}

// FileSystemMethods lists the synthesized file-system methods.
func FileSystemMethods() []*dispatch.Method[*Session] { return fileSystemTable.Methods() }

// FileSystemAdaptorDescriptions describes every file-system adaptor.
func (s *Session) FileSystemAdaptorDescriptions(ctx context.Context) ([]wire.FileSystemAdaptorDescription, error) {
	return result[[]wire.FileSystemAdaptorDescription](fileSystemTable.Call(ctx, "get_adaptor_descriptions", s, dispatch.Args{}))
}

// FileSystemAdaptorNames names every file-system adaptor.
func (s *Session) FileSystemAdaptorNames(ctx context.Context) ([]string, error) {
	return result[[]string](fileSystemTable.Call(ctx, "get_adaptor_names", s, dispatch.Args{}))
}

// FileSystemAdaptorDescription describes one adaptor.
func (s *Session) FileSystemAdaptorDescription(ctx context.Context, name string) (wire.FileSystemAdaptorDescription, error) {
	return result[wire.FileSystemAdaptorDescription](fileSystemTable.Call(ctx, "get_adaptor_description", s, dispatch.Pos(name)))
}

// CreateFileSystem opens a file system. args bind against
// CreateFileSystemRequest: adaptor, location, properties, and one of
// default_cred, password_cred or certificate_cred.
func (s *Session) CreateFileSystem(ctx context.Context, args dispatch.Args) (FileSystem, error) {
	return result[FileSystem](fileSystemTable.Call(ctx, "create", s, args))
}

// LocalFileSystems returns the file systems of the service host.
func (s *Session) LocalFileSystems(ctx context.Context) ([]FileSystem, error) {
	return result[[]FileSystem](fileSystemTable.Call(ctx, "local_file_systems", s, dispatch.Args{}))
}

// ListFileSystems returns the open file systems of the service.
func (s *Session) ListFileSystems(ctx context.Context) ([]FileSystem, error) {
	return result[[]FileSystem](fileSystemTable.Call(ctx, "list_file_systems", s, dispatch.Args{}))
}

func (fs FileSystem) AdaptorName(ctx context.Context) (string, error) {
	return result[string](fs.Call(ctx, "get_adaptor_name", dispatch.Args{}))
}

func (fs FileSystem) Location(ctx context.Context) (string, error) {
	return result[string](fs.Call(ctx, "get_location", dispatch.Args{}))
}

func (fs FileSystem) Properties(ctx context.Context) (map[string]string, error) {
	return result[map[string]string](fs.Call(ctx, "get_properties", dispatch.Args{}))
}

func (fs FileSystem) PathSeparator(ctx context.Context) (string, error) {
	return result[string](fs.Call(ctx, "get_path_separator", dispatch.Args{}))
}

func (fs FileSystem) Rename(ctx context.Context, source, target Path) error {
	return fs.call(ctx, "rename", dispatch.Pos(source, target))
}

// CreateSymbolicLink creates link pointing at target.
func (fs FileSystem) CreateSymbolicLink(ctx context.Context, link, target Path) error {
	return fs.call(ctx, "create_symbolic_link", dispatch.Pos(link, target))
}

func (fs FileSystem) WorkingDirectory(ctx context.Context) (Path, error) {
	return result[Path](fs.Call(ctx, "get_working_directory", dispatch.Args{}))
}

func (fs FileSystem) SetWorkingDirectory(ctx context.Context, dir Path) error {
	return fs.call(ctx, "set_working_directory", dispatch.Pos(dir))
}

func (fs FileSystem) IsOpen(ctx context.Context) (bool, error) {
	is, err := result[Is](fs.Call(ctx, "is_open", dispatch.Args{}))
	return is.Bool(), err
}

// Close closes the remote file system. The session stays open.
func (fs FileSystem) Close(ctx context.Context) error {
	return fs.call(ctx, "close", dispatch.Args{})
}

func (fs FileSystem) CreateDirectories(ctx context.Context, dir Path) error {
	return fs.call(ctx, "create_directories", dispatch.Pos(dir))
}

func (fs FileSystem) CreateDirectory(ctx context.Context, dir Path) error {
	return fs.call(ctx, "create_directory", dispatch.Pos(dir))
}

func (fs FileSystem) CreateFile(ctx context.Context, p Path) error {
	return fs.call(ctx, "create_file", dispatch.Pos(p))
}

func (fs FileSystem) Exists(ctx context.Context, p Path) (bool, error) {
	is, err := result[Is](fs.Call(ctx, "exists", dispatch.Pos(p)))
	return is.Bool(), err
}

// ReadFromFile streams the file in chunks, in arrival order.
func (fs FileSystem) ReadFromFile(ctx context.Context, p Path) (streaming.Source[[]byte], error) {
	return result[streaming.Source[[]byte]](fs.Call(ctx, "read_from_file", dispatch.Pos(p)))
}

// Open returns the file content as an io.ReadCloser.
func (fs FileSystem) Open(ctx context.Context, p Path) (*streaming.StreamReader, error) {
	src, err := fs.ReadFromFile(ctx, p)
	if err != nil {
		return nil, err
	}
	return streaming.NewStreamReader(ctx, src, false), nil
}

// ReadFile returns the whole file content.
func (fs FileSystem) ReadFile(ctx context.Context, p Path) ([]byte, error) {
	r, err := fs.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (fs FileSystem) Attributes(ctx context.Context, p Path) (PathAttributes, error) {
	return result[PathAttributes](fs.Call(ctx, "get_attributes", dispatch.Pos(p)))
}

func (fs FileSystem) ReadSymbolicLink(ctx context.Context, link Path) (Path, error) {
	return result[Path](fs.Call(ctx, "read_symbolic_link", dispatch.Pos(link)))
}

// WriteToFile creates p from data: a streaming.Source[[]byte], []byte,
// string or io.Reader. The file must not exist.
func (fs FileSystem) WriteToFile(ctx context.Context, p Path, data any) error {
	return fs.call(ctx, "write_to_file", dispatch.Pos(p, data))
}

// AppendToFile appends data, given as for WriteToFile, to an existing file.
func (fs FileSystem) AppendToFile(ctx context.Context, p Path, data any) error {
	return fs.call(ctx, "append_to_file", dispatch.Pos(p, data))
}

func (fs FileSystem) Delete(ctx context.Context, p Path, recursive bool) error {
	return fs.call(ctx, "delete", dispatch.Pos(p, recursive))
}

// CopyOptions are the optional arguments of Copy.
type CopyOptions struct {
	// Destination file system; the receiver when zero.
	Destination *FileSystem
	Mode        CopyMode
	Recursive   bool
}

// Copy starts copying source to destination.
func (fs FileSystem) Copy(ctx context.Context, source, destination Path, opts CopyOptions) (CopyOperation, error) {
	dst := fs
	if opts.Destination != nil {
		dst = *opts.Destination
	}
	args := dispatch.Pos(source, dst, destination).
		With("mode", opts.Mode).
		With("recursive", opts.Recursive)
	return result[CopyOperation](fs.Call(ctx, "copy", args))
}

func (fs FileSystem) CopyStatus(ctx context.Context, op CopyOperation) (CopyStatus, error) {
	return result[CopyStatus](fs.Call(ctx, "get_status", dispatch.Pos(op)))
}

func (fs FileSystem) CancelCopy(ctx context.Context, op CopyOperation) (CopyStatus, error) {
	return result[CopyStatus](fs.Call(ctx, "cancel", dispatch.Pos(op)))
}

// WaitUntilCopied blocks until op is done or timeout passes; zero waits
// without bound.
func (fs FileSystem) WaitUntilCopied(ctx context.Context, op CopyOperation, timeout time.Duration) (CopyStatus, error) {
	return result[CopyStatus](fs.Call(ctx, "wait_until_done", dispatch.Pos(op, millis(timeout))))
}

func (fs FileSystem) SetPosixFilePermissions(ctx context.Context, p Path, perms Permissions) error {
	return fs.call(ctx, "set_posix_file_permissions", dispatch.Pos(p, perms))
}

// List returns the entries below dir as a lazy, single-pass source. Close
// it when stopping early.
func (fs FileSystem) List(ctx context.Context, dir Path, recursive bool) (streaming.Source[PathAttributes], error) {
	return result[streaming.Source[PathAttributes]](fs.Call(ctx, "list", dispatch.Pos(dir, recursive)))
}

// ParsePermissions parses a comma-separated list of permission names.
func ParsePermissions(s string) (Permissions, error) {
	var out Permissions
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, err := ParsePosixFilePermission(strings.ToUpper(name))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
