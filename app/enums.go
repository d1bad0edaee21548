package app

import (
	"fmt"
	"slices"

	"github.com/xenon-middleware/xenon-go/domain/wire"
)

// PosixFilePermission mirrors wire.PosixFilePermission. Either type, or a
// raw integer, may be passed wherever a permission is expected.
type PosixFilePermission int32

const (
	PermissionNone PosixFilePermission = iota
	OwnerRead
	OwnerWrite
	OwnerExecute
	GroupRead
	GroupWrite
	GroupExecute
	OthersRead
	OthersWrite
	OthersExecute
)

func (p PosixFilePermission) EnumNumber() int32 { return int32(p) }

func (p PosixFilePermission) String() string { return wire.PosixFilePermission(p).String() }

// ParsePosixFilePermission accepts the wire name, e.g. "OWNER_READ".
func ParsePosixFilePermission(name string) (PosixFilePermission, error) {
	v, ok := wire.PosixFilePermissionValues()[name]
	if !ok {
		return 0, fmt.Errorf("unknown permission %q", name)
	}
	return PosixFilePermission(v), nil
}

// Permissions is a permission set in the order given.
type Permissions []PosixFilePermission

func (ps Permissions) EnumNumbers() []int32 {
	out := make([]int32, len(ps))
	for i, p := range ps {
		out[i] = int32(p)
	}
	return out
}

// Has reports whether p is in the set.
func (ps Permissions) Has(p PosixFilePermission) bool {
	return slices.Contains(ps, p)
}

func permissionsFromWire(in []wire.PosixFilePermission) Permissions {
	if in == nil {
		return nil
	}
	out := make(Permissions, len(in))
	for i, p := range in {
		out[i] = PosixFilePermission(p)
	}
	return out
}

// CopyMode mirrors wire.CopyMode.
type CopyMode int32

const (
	CopyCreate CopyMode = iota
	CopyReplace
	CopyIgnore
)

func (m CopyMode) EnumNumber() int32 { return int32(m) }

func (m CopyMode) String() string { return wire.CopyMode(m).String() }

var (
	_ wire.Enum     = PosixFilePermission(0)
	_ wire.Enum     = CopyMode(0)
	_ wire.EnumList = Permissions(nil)
)
