// Package codec provides the CBOR message codec used on the wire.
package codec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/grpc/encoding"
)

// Name is the content-subtype the codec registers under.
const Name = "cbor"

// CBOR encodes messages deterministically so equal messages produce equal
// bytes.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// New builds the codec.
func New() (*CBOR, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encoder: %w", err)
	}
	dec, err := cbor.DecOptions{
		MaxArrayElements: 1 << 20,
		MaxMapPairs:      1 << 20,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("cbor decoder: %w", err)
	}
	return &CBOR{enc: enc, dec: dec}, nil
}

var defaultCodec = mustNew()

func mustNew() *CBOR {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the shared codec instance.
func Default() *CBOR { return defaultCodec }

func (c *CBOR) Name() string { return Name }

func (c *CBOR) Marshal(v any) ([]byte, error) {
	data, err := c.enc.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal resets *v to its zero value before decoding, so fields left
// out of data never keep values from an earlier message.
func (c *CBOR) Unmarshal(data []byte, v any) error {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv.Elem().SetZero()
	}
	if err := c.dec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return nil
}

// Copy transfers src into dst (a pointer) through an encode/decode round
// trip, so dst shares no memory with src.
func (c *CBOR) Copy(dst, src any) error {
	data, err := c.Marshal(src)
	if err != nil {
		return err
	}
	return c.Unmarshal(data, dst)
}

var _ encoding.Codec = (*CBOR)(nil)

func init() {
	encoding.RegisterCodec(defaultCodec)
}
