package memory

import (
	"context"
	"path"
	"sort"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/xenon-middleware/xenon-go/domain/wire"
)

const separator = "/"

var fileSystemAdaptors = []wire.FileSystemAdaptorDescription{
	{
		Name:                            "file",
		Description:                     "In-memory stand-in for the local file system.",
		SupportedLocations:              []string{"/"},
		IsConnectionless:                true,
		CanCreateSymbolicLinks:          true,
		CanReadSymbolicLinks:            true,
		CanSetPermissions:               true,
		CanAppend:                       true,
		SupportsReadingPosixPermissions: true,
	},
	{
		Name:                            "memory",
		Description:                     "Scratch file system that lives for the duration of the session.",
		SupportedLocations:              []string{"memory://<name>"},
		IsConnectionless:                true,
		SupportsThirdPartyCopy:          true,
		CanCreateSymbolicLinks:          true,
		CanReadSymbolicLinks:            true,
		CanSetPermissions:               true,
		CanAppend:                       true,
		SupportsReadingPosixPermissions: true,
	},
}

type nodeKind int

const (
	dirNode nodeKind = iota
	fileNode
	linkNode
)

type node struct {
	kind     nodeKind
	data     []byte
	target   string
	perms    []wire.PosixFilePermission
	created  int64
	modified int64
	accessed int64
}

func (n *node) clone() *node {
	c := *n
	c.data = append([]byte(nil), n.data...)
	c.perms = append([]wire.PosixFilePermission(nil), n.perms...)
	return &c
}

var (
	defaultFilePerms = []wire.PosixFilePermission{wire.OwnerRead, wire.OwnerWrite, wire.GroupRead, wire.OthersRead}
	defaultDirPerms  = []wire.PosixFilePermission{
		wire.OwnerRead, wire.OwnerWrite, wire.OwnerExecute,
		wire.GroupRead, wire.GroupExecute,
		wire.OthersRead, wire.OthersExecute,
	}
)

type memFS struct {
	id       string
	adaptor  string
	location string
	props    map[string]string
	open     bool
	cwd      string
	nodes    map[string]*node
}

func newMemFS(id, adaptor, location string, props map[string]string, now int64) *memFS {
	return &memFS{
		id:       id,
		adaptor:  adaptor,
		location: location,
		props:    copyProps(props),
		open:     true,
		cwd:      "/",
		nodes: map[string]*node{
			"/": {kind: dirNode, perms: defaultDirPerms, created: now, modified: now, accessed: now},
		},
	}
}

func (fs *memFS) resolve(p wire.Path) string {
	if path.IsAbs(p.Path) {
		return path.Clean(p.Path)
	}
	return path.Join(fs.cwd, p.Path)
}

func (fs *memFS) lookup(p string) (*node, error) {
	n, ok := fs.nodes[p]
	if !ok {
		return nil, notFound("no such path %s", p)
	}
	return n, nil
}

func (fs *memFS) requireParent(p string) error {
	if p == "/" {
		return status.Error(codes.AlreadyExists, "/ already exists")
	}
	parent, ok := fs.nodes[path.Dir(p)]
	if !ok {
		return notFound("parent of %s does not exist", p)
	}
	if parent.kind != dirNode {
		return status.Errorf(codes.FailedPrecondition, "parent of %s is not a directory", p)
	}
	return nil
}

func (fs *memFS) create(p string, n *node) error {
	if _, exists := fs.nodes[p]; exists {
		return status.Errorf(codes.AlreadyExists, "path %s already exists", p)
	}
	if err := fs.requireParent(p); err != nil {
		return err
	}
	fs.nodes[p] = n
	return nil
}

// below returns the paths under dir, sorted; only direct children unless
// recursive.
func (fs *memFS) below(dir string, recursive bool) []string {
	prefix := dir + "/"
	if dir == "/" {
		prefix = "/"
	}
	var out []string
	for p := range fs.nodes {
		if p == dir || !strings.HasPrefix(p, prefix) {
			continue
		}
		if !recursive && strings.Contains(p[len(prefix):], "/") {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (fs *memFS) attributes(p string, n *node) wire.PathAttributes {
	has := func(perm wire.PosixFilePermission) bool {
		for _, x := range n.perms {
			if x == perm {
				return true
			}
		}
		return false
	}
	return wire.PathAttributes{
		Path:             wire.Path{Path: p, Separator: separator},
		IsDirectory:      n.kind == dirNode,
		IsRegular:        n.kind == fileNode,
		IsSymbolicLink:   n.kind == linkNode,
		IsHidden:         strings.HasPrefix(path.Base(p), "."),
		IsReadable:       has(wire.OwnerRead),
		IsWritable:       has(wire.OwnerWrite),
		IsExecutable:     has(wire.OwnerExecute),
		Size:             int64(len(n.data)),
		CreationTime:     n.created,
		LastAccessTime:   n.accessed,
		LastModifiedTime: n.modified,
		Owner:            "xenon",
		Group:            "xenon",
		Permissions:      append([]wire.PosixFilePermission(nil), n.perms...),
	}
}

type copyOp struct {
	fsID   string
	status wire.CopyStatus
}

func (s *Service) addFileSystem(fs *memFS) {
	s.fileSys[fs.id] = fs
	s.fsOrder = append(s.fsOrder, fs.id)
}

// fileSystem returns an open file system; callers hold s.mu.
func (s *Service) fileSystem(ref wire.FileSystem) (*memFS, error) {
	fs, ok := s.fileSys[ref.ID]
	if !ok {
		return nil, notFound("no such file system %q", ref.ID)
	}
	if !fs.open {
		return nil, status.Errorf(codes.FailedPrecondition, "file system %q is closed", ref.ID)
	}
	return fs, nil
}

// withFS runs fn on an open file system under the service lock.
func (s *Service) withFS(ref wire.FileSystem, fn func(fs *memFS) (any, error)) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs, err := s.fileSystem(ref)
	if err != nil {
		return nil, err
	}
	return fn(fs)
}

func (s *Service) registerFileSystem(t *Transport) {
	svc := wire.FileSystemService

	unary(t, svc, "getAdaptorDescriptions", func(ctx context.Context, _ *wire.Empty) (any, error) {
		return &wire.FileSystemAdaptorDescriptions{Descriptions: fileSystemAdaptors}, nil
	})
	unary(t, svc, "getAdaptorNames", func(ctx context.Context, _ *wire.Empty) (any, error) {
		out := &wire.AdaptorNames{}
		for _, d := range fileSystemAdaptors {
			out.Name = append(out.Name, d.Name)
		}
		return out, nil
	})
	unary(t, svc, "getAdaptorDescription", func(ctx context.Context, req *wire.AdaptorName) (any, error) {
		for _, d := range fileSystemAdaptors {
			if d.Name == req.Name {
				return &d, nil
			}
		}
		return nil, notFound("no file system adaptor %q", req.Name)
	})
	unary(t, svc, "create", func(ctx context.Context, req *wire.CreateFileSystemRequest) (any, error) {
		known := false
		for _, d := range fileSystemAdaptors {
			known = known || d.Name == req.Adaptor
		}
		if !known {
			return nil, notFound("no file system adaptor %q", req.Adaptor)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		fs := newMemFS(s.newID(req.Adaptor), req.Adaptor, req.Location, req.Properties, s.now())
		s.addFileSystem(fs)
		return &wire.FileSystem{ID: fs.id}, nil
	})
	unary(t, svc, "localFileSystems", func(ctx context.Context, _ *wire.Empty) (any, error) {
		return &wire.FileSystems{Filesystems: []wire.FileSystem{{ID: LocalFileSystemID}}}, nil
	})
	unary(t, svc, "listFileSystems", func(ctx context.Context, _ *wire.Empty) (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		out := &wire.FileSystems{}
		for _, id := range s.fsOrder {
			if s.fileSys[id].open {
				out.Filesystems = append(out.Filesystems, wire.FileSystem{ID: id})
			}
		}
		return out, nil
	})
	unary(t, svc, "getAdaptorName", func(ctx context.Context, req *wire.FileSystem) (any, error) {
		return s.withFS(*req, func(fs *memFS) (any, error) { return &wire.AdaptorName{Name: fs.adaptor}, nil })
	})
	unary(t, svc, "getLocation", func(ctx context.Context, req *wire.FileSystem) (any, error) {
		return s.withFS(*req, func(fs *memFS) (any, error) { return &wire.Location{Location: fs.location}, nil })
	})
	unary(t, svc, "getProperties", func(ctx context.Context, req *wire.FileSystem) (any, error) {
		return s.withFS(*req, func(fs *memFS) (any, error) { return &wire.Properties{Properties: copyProps(fs.props)}, nil })
	})
	unary(t, svc, "getPathSeparator", func(ctx context.Context, req *wire.FileSystem) (any, error) {
		return s.withFS(*req, func(fs *memFS) (any, error) { return &wire.GetPathSeparatorResponse{Separator: separator}, nil })
	})
	unary(t, svc, "getWorkingDirectory", func(ctx context.Context, req *wire.FileSystem) (any, error) {
		return s.withFS(*req, func(fs *memFS) (any, error) { return &wire.Path{Path: fs.cwd, Separator: separator}, nil })
	})
	unary(t, svc, "setWorkingDirectory", func(ctx context.Context, req *wire.PathRequest) (any, error) {
		return s.withFS(req.Filesystem, func(fs *memFS) (any, error) {
			p := fs.resolve(req.Path)
			n, err := fs.lookup(p)
			if err != nil {
				return nil, err
			}
			if n.kind != dirNode {
				return nil, status.Errorf(codes.FailedPrecondition, "%s is not a directory", p)
			}
			fs.cwd = p
			return &wire.Empty{}, nil
		})
	})
	unary(t, svc, "isOpen", func(ctx context.Context, req *wire.FileSystem) (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		fs, ok := s.fileSys[req.ID]
		if !ok {
			return nil, notFound("no such file system %q", req.ID)
		}
		return &wire.Is{Value: fs.open}, nil
	})
	unary(t, svc, "close", func(ctx context.Context, req *wire.FileSystem) (any, error) {
		return s.withFS(*req, func(fs *memFS) (any, error) {
			fs.open = false
			return &wire.Empty{}, nil
		})
	})
	unary(t, svc, "createDirectories", func(ctx context.Context, req *wire.PathRequest) (any, error) {
		return s.withFS(req.Filesystem, func(fs *memFS) (any, error) {
			p := fs.resolve(req.Path)
			if n, ok := fs.nodes[p]; ok {
				if n.kind == dirNode {
					return nil, status.Errorf(codes.AlreadyExists, "path %s already exists", p)
				}
				return nil, status.Errorf(codes.FailedPrecondition, "%s is not a directory", p)
			}
			var missing []string
			for q := p; q != "/"; q = path.Dir(q) {
				if n, ok := fs.nodes[q]; ok {
					if n.kind != dirNode {
						return nil, status.Errorf(codes.FailedPrecondition, "%s is not a directory", q)
					}
					break
				}
				missing = append(missing, q)
			}
			now := s.now()
			for i := len(missing) - 1; i >= 0; i-- {
				fs.nodes[missing[i]] = &node{kind: dirNode, perms: defaultDirPerms, created: now, modified: now, accessed: now}
			}
			return &wire.Empty{}, nil
		})
	})
	unary(t, svc, "createDirectory", func(ctx context.Context, req *wire.PathRequest) (any, error) {
		return s.withFS(req.Filesystem, func(fs *memFS) (any, error) {
			now := s.now()
			err := fs.create(fs.resolve(req.Path), &node{kind: dirNode, perms: defaultDirPerms, created: now, modified: now, accessed: now})
			if err != nil {
				return nil, err
			}
			return &wire.Empty{}, nil
		})
	})
	unary(t, svc, "createFile", func(ctx context.Context, req *wire.PathRequest) (any, error) {
		return s.withFS(req.Filesystem, func(fs *memFS) (any, error) {
			now := s.now()
			err := fs.create(fs.resolve(req.Path), &node{kind: fileNode, perms: defaultFilePerms, created: now, modified: now, accessed: now})
			if err != nil {
				return nil, err
			}
			return &wire.Empty{}, nil
		})
	})
	unary(t, svc, "createSymbolicLink", func(ctx context.Context, req *wire.CreateSymbolicLinkRequest) (any, error) {
		return s.withFS(req.Filesystem, func(fs *memFS) (any, error) {
			now := s.now()
			n := &node{kind: linkNode, target: req.Target.Path, perms: defaultFilePerms, created: now, modified: now, accessed: now}
			if err := fs.create(fs.resolve(req.Link), n); err != nil {
				return nil, err
			}
			return &wire.Empty{}, nil
		})
	})
	unary(t, svc, "readSymbolicLink", func(ctx context.Context, req *wire.PathRequest) (any, error) {
		return s.withFS(req.Filesystem, func(fs *memFS) (any, error) {
			p := fs.resolve(req.Path)
			n, err := fs.lookup(p)
			if err != nil {
				return nil, err
			}
			if n.kind != linkNode {
				return nil, status.Errorf(codes.InvalidArgument, "%s is not a symbolic link", p)
			}
			return &wire.Path{Path: n.target, Separator: separator}, nil
		})
	})
	unary(t, svc, "exists", func(ctx context.Context, req *wire.PathRequest) (any, error) {
		return s.withFS(req.Filesystem, func(fs *memFS) (any, error) {
			_, ok := fs.nodes[fs.resolve(req.Path)]
			return &wire.Is{Value: ok}, nil
		})
	})
	unary(t, svc, "getAttributes", func(ctx context.Context, req *wire.PathRequest) (any, error) {
		return s.withFS(req.Filesystem, func(fs *memFS) (any, error) {
			p := fs.resolve(req.Path)
			n, err := fs.lookup(p)
			if err != nil {
				return nil, err
			}
			attrs := fs.attributes(p, n)
			return &attrs, nil
		})
	})
	unary(t, svc, "rename", func(ctx context.Context, req *wire.RenameRequest) (any, error) {
		return s.withFS(req.Filesystem, func(fs *memFS) (any, error) {
			src, dst := fs.resolve(req.Source), fs.resolve(req.Target)
			n, err := fs.lookup(src)
			if err != nil {
				return nil, err
			}
			if src == dst {
				return &wire.Empty{}, nil
			}
			if strings.HasPrefix(dst, src+"/") {
				return nil, status.Errorf(codes.InvalidArgument, "cannot move %s into itself", src)
			}
			if err := fs.create(dst, n); err != nil {
				return nil, err
			}
			for _, p := range fs.below(src, true) {
				fs.nodes[dst+p[len(src):]] = fs.nodes[p]
				delete(fs.nodes, p)
			}
			delete(fs.nodes, src)
			return &wire.Empty{}, nil
		})
	})
	unary(t, svc, "delete", func(ctx context.Context, req *wire.DeleteRequest) (any, error) {
		return s.withFS(req.Filesystem, func(fs *memFS) (any, error) {
			p := fs.resolve(req.Path)
			if p == "/" {
				return nil, status.Error(codes.PermissionDenied, "cannot delete /")
			}
			if _, err := fs.lookup(p); err != nil {
				return nil, err
			}
			children := fs.below(p, true)
			if len(children) > 0 && !req.Recursive {
				return nil, status.Errorf(codes.FailedPrecondition, "directory %s is not empty", p)
			}
			for _, c := range children {
				delete(fs.nodes, c)
			}
			delete(fs.nodes, p)
			return &wire.Empty{}, nil
		})
	})
	unary(t, svc, "setPosixFilePermissions", func(ctx context.Context, req *wire.SetPosixFilePermissionsRequest) (any, error) {
		return s.withFS(req.Filesystem, func(fs *memFS) (any, error) {
			n, err := fs.lookup(fs.resolve(req.Path))
			if err != nil {
				return nil, err
			}
			n.perms = append([]wire.PosixFilePermission(nil), req.Permissions...)
			n.modified = s.now()
			return &wire.Empty{}, nil
		})
	})
	unary(t, svc, "copy", func(ctx context.Context, req *wire.CopyRequest) (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.copy(req)
	})
	unary(t, svc, "getStatus", func(ctx context.Context, req *wire.CopyOperationRequest) (any, error) {
		return s.copyStatus(req.Filesystem, req.CopyOperation)
	})
	unary(t, svc, "cancel", func(ctx context.Context, req *wire.CopyOperationRequest) (any, error) {
		return s.copyStatus(req.Filesystem, req.CopyOperation)
	})
	unary(t, svc, "waitUntilDone", func(ctx context.Context, req *wire.WaitUntilDoneRequest) (any, error) {
		return s.copyStatus(req.Filesystem, req.CopyOperation)
	})

	stream(t, svc, "readFromFile", s.readFromFile)
	stream(t, svc, "list", s.list)
	stream(t, svc, "writeToFile", func(ctx context.Context, st ServerStream) error {
		return s.writeStream(ctx, st, false)
	})
	stream(t, svc, "appendToFile", func(ctx context.Context, st ServerStream) error {
		return s.writeStream(ctx, st, true)
	})
}

func (s *Service) readFromFile(ctx context.Context, st ServerStream) error {
	var req wire.PathRequest
	if err := st.Recv(&req); err != nil {
		return err
	}
	out, err := s.withFS(req.Filesystem, func(fs *memFS) (any, error) {
		p := fs.resolve(req.Path)
		n, err := fs.lookup(p)
		if err != nil {
			return nil, err
		}
		if n.kind != fileNode {
			return nil, status.Errorf(codes.FailedPrecondition, "%s is not a regular file", p)
		}
		n.accessed = s.now()
		return append([]byte(nil), n.data...), nil
	})
	if err != nil {
		return err
	}
	data := out.([]byte)
	for len(data) > 0 {
		n := min(s.chunkSize, len(data))
		if err := st.Send(&wire.ReadFromFileResponse{Buffer: data[:n]}); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (s *Service) list(ctx context.Context, st ServerStream) error {
	var req wire.ListRequest
	if err := st.Recv(&req); err != nil {
		return err
	}
	out, err := s.withFS(req.Filesystem, func(fs *memFS) (any, error) {
		dir := fs.resolve(req.Dir)
		n, err := fs.lookup(dir)
		if err != nil {
			return nil, err
		}
		if n.kind != dirNode {
			return nil, status.Errorf(codes.FailedPrecondition, "%s is not a directory", dir)
		}
		var attrs []wire.PathAttributes
		for _, p := range fs.below(dir, req.Recursive) {
			attrs = append(attrs, fs.attributes(p, fs.nodes[p]))
		}
		return attrs, nil
	})
	if err != nil {
		return err
	}
	for _, a := range out.([]wire.PathAttributes) {
		if err := st.Send(&a); err != nil {
			return err
		}
	}
	return nil
}

// writeStream serves writeToFile and appendToFile. Both requests share a
// wire shape, so WriteToFileRequest decodes either.
func (s *Service) writeStream(ctx context.Context, st ServerStream, appending bool) error {
	var header wire.WriteToFileRequest
	if err := st.Recv(&header); err != nil {
		return err
	}

	var buf []byte
	buf = append(buf, header.Buffer...)
	for {
		var frag wire.WriteToFileRequest
		err := st.Recv(&frag)
		if IsEOF(err) {
			break
		}
		if err != nil {
			return err
		}
		buf = append(buf, frag.Buffer...)
	}

	_, err := s.withFS(header.Filesystem, func(fs *memFS) (any, error) {
		p := fs.resolve(header.Path)
		now := s.now()
		if appending {
			n, err := fs.lookup(p)
			if err != nil {
				return nil, err
			}
			if n.kind != fileNode {
				return nil, status.Errorf(codes.FailedPrecondition, "%s is not a regular file", p)
			}
			n.data = append(n.data, buf...)
			n.modified = now
			return nil, nil
		}
		return nil, fs.create(p, &node{kind: fileNode, data: buf, perms: defaultFilePerms, created: now, modified: now, accessed: now})
	})
	if err != nil {
		return err
	}
	return st.Send(&wire.Empty{})
}

// copy performs the copy at once and records its final status. Callers
// hold s.mu.
func (s *Service) copy(req *wire.CopyRequest) (any, error) {
	src, err := s.fileSystem(req.Filesystem)
	if err != nil {
		return nil, err
	}
	dst := src
	if req.DestinationFilesystem.ID != "" {
		if dst, err = s.fileSystem(req.DestinationFilesystem); err != nil {
			return nil, err
		}
	}

	from, to := src.resolve(req.Source), dst.resolve(req.Destination)
	n, err := src.lookup(from)
	if err != nil {
		return nil, err
	}

	op := &copyOp{fsID: src.id}
	op.status.CopyOperation = wire.CopyOperation{ID: s.newID("copy")}
	op.status.Done = true
	op.status.State = "DONE"

	fail := func(msg string) {
		op.status.State = "FAILED"
		op.status.ErrorMessage = msg
	}

	switch {
	case n.kind == dirNode && !req.Recursive:
		fail("source is a directory, recursive copy required")
	default:
		paths := append([]string{from}, src.below(from, n.kind == dirNode)...)
		var copied int64
		for _, p := range paths {
			target := to + p[len(from):]
			if _, exists := dst.nodes[target]; exists {
				switch req.Mode {
				case wire.CopyIgnore:
					continue
				case wire.CopyCreate:
					if p == from || dst.nodes[target].kind != dirNode {
						fail("destination " + target + " already exists")
						break
					}
					continue
				}
			} else if err := dst.requireParent(target); err != nil {
				fail(status.Convert(err).Message())
				break
			}
			if op.status.State == "FAILED" {
				break
			}
			c := src.nodes[p].clone()
			dst.nodes[target] = c
			copied += int64(len(c.data))
		}
		op.status.BytesToCopy = copied
		op.status.BytesCopied = copied
	}

	s.copies[op.status.CopyOperation.ID] = op
	return &op.status.CopyOperation, nil
}

// copyStatus serves getStatus, cancel and waitUntilDone. Copies finish
// before copy returns, so all three report the final state.
func (s *Service) copyStatus(fs wire.FileSystem, ref wire.CopyOperation) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.copies[ref.ID]
	if !ok || op.fsID != fs.ID {
		return nil, notFound("no copy operation %q on file system %q", ref.ID, fs.ID)
	}
	st := op.status
	return &st, nil
}

// put creates or replaces the regular file at p.
func (fs *memFS) put(p string, data []byte, now int64) error {
	if n, ok := fs.nodes[p]; ok {
		if n.kind != fileNode {
			return status.Errorf(codes.FailedPrecondition, "%s is not a regular file", p)
		}
		n.data = append([]byte(nil), data...)
		n.modified = now
		return nil
	}
	return fs.create(p, &node{kind: fileNode, data: append([]byte(nil), data...), perms: defaultFilePerms, created: now, modified: now, accessed: now})
}

// get returns a copy of the regular file at p.
func (fs *memFS) get(p string) ([]byte, error) {
	n, err := fs.lookup(p)
	if err != nil {
		return nil, err
	}
	if n.kind != fileNode {
		return nil, status.Errorf(codes.FailedPrecondition, "%s is not a regular file", p)
	}
	return append([]byte(nil), n.data...), nil
}
