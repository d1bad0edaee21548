package codec_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/xenon-middleware/xenon-go/adapters/codec"
	"github.com/xenon-middleware/xenon-go/domain/wire"
	"google.golang.org/grpc/encoding"
)

func TestCBOR_Registered(t *testing.T) {
	if c := encoding.GetCodec(codec.Name); c == nil {
		t.Fatal("cbor codec not registered with grpc")
	}
}

func TestCBOR_Deterministic(t *testing.T) {
	c := codec.Default()
	msg := &wire.JobDescription{
		Executable:  "cat",
		Environment: map[string]string{"B": "2", "A": "1", "C": "3"},
	}

	first, err := c.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := c.Marshal(msg)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("encoding is not deterministic")
		}
	}
}

func TestCBOR_Copy(t *testing.T) {
	c := codec.Default()
	src := &wire.SetPosixFilePermissionsRequest{
		Filesystem:  wire.FileSystem{ID: "fs-1"},
		Path:        wire.Path{Path: "/tmp/x", Separator: "/"},
		Permissions: []wire.PosixFilePermission{wire.OwnerRead, wire.OwnerWrite},
	}

	var dst wire.SetPosixFilePermissionsRequest
	if err := c.Copy(&dst, src); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if !reflect.DeepEqual(&dst, src) {
		t.Errorf("copy = %#v, want %#v", dst, *src)
	}

	src.Permissions[0] = wire.OthersExecute
	if dst.Permissions[0] != wire.OwnerRead {
		t.Error("copy shares memory with source")
	}
}

func TestCBOR_UnmarshalResetsTarget(t *testing.T) {
	c := codec.Default()

	is := wire.Is{Value: true}
	if err := c.Copy(&is, &wire.Is{Value: false}); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if is.Value {
		t.Error("false did not overwrite a reused true")
	}

	job := wire.JobStatus{State: "RUNNING", ExitCode: 3, ErrorMessage: "old"}
	data, err := c.Marshal(&wire.JobStatus{State: "DONE"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := c.Unmarshal(data, &job); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if want := (wire.JobStatus{State: "DONE"}); !reflect.DeepEqual(job, want) {
		t.Errorf("decoded = %#v, want %#v", job, want)
	}
}

func TestCBOR_UnmarshalError(t *testing.T) {
	var job wire.Job
	if err := codec.Default().Unmarshal([]byte{0xff, 0x00}, &job); err == nil {
		t.Error("expected error for malformed input")
	}
}
