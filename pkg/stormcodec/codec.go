package stormcodec

import (
	"bytes"

	"github.com/asdine/storm/v3/codec"
	"github.com/asdine/storm/v3/codec/msgpack"
	"github.com/pkg/errors"
	ugorji "github.com/ugorji/go/codec"
)

var (
	// Default is the format used to store data when none is configured.
	Default codec.MarshalUnmarshaler = msgpack.Codec

	// CBOR encodes to and decodes from CBOR (Concise Binary Object Representation).
	// http://cbor.io/
	// https://tools.ietf.org/html/rfc7049
	CBOR codec.MarshalUnmarshaler = &handleCodec{name: "cbor", handle: cborHandle()}

	// Binc encodes to and decodes from Binc.
	// See https://github.com/ugorji/binc
	Binc codec.MarshalUnmarshaler = &handleCodec{name: "binc", handle: bincHandle()}
)

// Models are tagged for msgpack, the json tags describe the API rendering.
var typeInfos = ugorji.NewTypeInfos([]string{"codec", "msgpack"})

func cborHandle() *ugorji.CborHandle {
	h := &ugorji.CborHandle{}
	h.TypeInfos = typeInfos
	return h
}

func bincHandle() *ugorji.BincHandle {
	h := &ugorji.BincHandle{}
	h.TypeInfos = typeInfos
	return h
}

// Lookup returns the codec registered under the given name.
// An empty name returns the Default codec.
func Lookup(name string) (codec.MarshalUnmarshaler, error) {
	switch name {
	case "", "msgpack":
		return Default, nil
	case "cbor":
		return CBOR, nil
	case "binc":
		return Binc, nil
	default:
		return nil, errors.Errorf("unknown storm codec: %s", name)
	}
}

type handleCodec struct {
	name   string
	handle ugorji.Handle
}

func (c *handleCodec) Marshal(v any) ([]byte, error) {
	var b bytes.Buffer
	enc := ugorji.NewEncoder(&b, c.handle)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (c *handleCodec) Unmarshal(b []byte, v any) error {
	dec := ugorji.NewDecoder(bytes.NewReader(b), c.handle)
	return dec.Decode(v)
}

func (c *handleCodec) Name() string {
	return c.name
}
