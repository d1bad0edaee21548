package wire

import "fmt"

// Enum is implemented by every enumeration that travels as an int32 scalar.
type Enum interface {
	EnumNumber() int32
}

// EnumList is implemented by named slices of enumeration values.
type EnumList interface {
	EnumNumbers() []int32
}

// PosixFilePermission is a single POSIX permission bit.
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

var posixFilePermissionNames = [...]string{
	"NONE",
	"OWNER_READ",
	"OWNER_WRITE",
	"OWNER_EXECUTE",
	"GROUP_READ",
	"GROUP_WRITE",
	"GROUP_EXECUTE",
	"OTHERS_READ",
	"OTHERS_WRITE",
	"OTHERS_EXECUTE",
}

func (p PosixFilePermission) EnumNumber() int32 { return int32(p) }

func (p PosixFilePermission) String() string {
	if p >= 0 && int(p) < len(posixFilePermissionNames) {
		return posixFilePermissionNames[p]
	}
	return fmt.Sprintf("PosixFilePermission(%d)", int32(p))
}

// PosixFilePermissionValues maps permission names to their values.
func PosixFilePermissionValues() map[string]PosixFilePermission {
	out := make(map[string]PosixFilePermission, len(posixFilePermissionNames))
	for i, name := range posixFilePermissionNames {
		out[name] = PosixFilePermission(i)
	}
	return out
}

// PosixFilePermissions is a permission set as carried on the wire.
type PosixFilePermissions []PosixFilePermission

func (ps PosixFilePermissions) EnumNumbers() []int32 {
	out := make([]int32, len(ps))
	for i, p := range ps {
		out[i] = int32(p)
	}
	return out
}

// CopyMode selects what a copy does when the destination exists.
type CopyMode int32

const (
	CopyCreate CopyMode = iota
	CopyReplace
	CopyIgnore
)

var copyModeNames = [...]string{"CREATE", "REPLACE", "IGNORE"}

func (m CopyMode) EnumNumber() int32 { return int32(m) }

func (m CopyMode) String() string {
	if m >= 0 && int(m) < len(copyModeNames) {
		return copyModeNames[m]
	}
	return fmt.Sprintf("CopyMode(%d)", int32(m))
}
