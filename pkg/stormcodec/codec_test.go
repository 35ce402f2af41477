package stormcodec_test

import (
	"testing"

	"github.com/mdouchement/travellog/pkg/stormcodec"
	"github.com/stretchr/testify/assert"
)

type record struct {
	ID    string
	Value []byte
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"", "msgpack", "cbor", "binc"} {
		c, err := stormcodec.Lookup(name)
		assert.NoError(t, err, name)
		assert.NotNil(t, c, name)
	}

	_, err := stormcodec.Lookup("xml")
	assert.EqualError(t, err, "unknown storm codec: xml")
}

func TestHandleCodecs(t *testing.T) {
	for _, c := range []interface {
		Marshal(any) ([]byte, error)
		Unmarshal([]byte, any) error
		Name() string
	}{stormcodec.CBOR, stormcodec.Binc} {
		payload, err := c.Marshal(&record{ID: "offline-1", Value: []byte("photo")})
		assert.NoError(t, err, c.Name())

		var r record
		assert.NoError(t, c.Unmarshal(payload, &r), c.Name())
		assert.Equal(t, "offline-1", r.ID, c.Name())
		assert.Equal(t, []byte("photo"), r.Value, c.Name())
	}
}

type photo struct {
	Filename string `json:"filename" msgpack:"filename"`
	Data     []byte `json:"-"        msgpack:"data"`
}

func TestHandleCodecs_MsgpackTags(t *testing.T) {
	for _, c := range []interface {
		Marshal(any) ([]byte, error)
		Unmarshal([]byte, any) error
		Name() string
	}{stormcodec.CBOR, stormcodec.Binc} {
		payload, err := c.Marshal(&photo{Filename: "kuta.jpg", Data: []byte("jpeg")})
		assert.NoError(t, err, c.Name())

		var p photo
		assert.NoError(t, c.Unmarshal(payload, &p), c.Name())
		assert.Equal(t, "kuta.jpg", p.Filename, c.Name())
		assert.Equal(t, []byte("jpeg"), p.Data, c.Name())
	}
}
