// Package codec provides value serialization for cached payloads.
package codec

import (
	"github.com/klauspost/compress/s2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mbroughton/cachegate/internal/types"
)

// Msgpack implements Serializer using the MessagePack binary format. Values
// without msgpack struct tags still encode through the permissive default
// mapping, which tolerates schema evolution between writer and reader.
type Msgpack struct{}

// NewMsgpack creates a new MessagePack serializer.
func NewMsgpack() *Msgpack {
	return &Msgpack{}
}

// Marshal serializes a value to MessagePack bytes.
func (s *Msgpack) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal deserializes MessagePack bytes into the destination.
func (s *Msgpack) Unmarshal(data []byte, dest any) error {
	return msgpack.Unmarshal(data, dest)
}

// Compressed wraps another serializer with s2 block compression. Reads
// tolerate payloads written before compression was enabled: when the stored
// bytes are not an s2 block, they are decoded directly by the inner
// serializer.
type Compressed struct {
	inner types.Serializer
}

// NewCompressed creates a compressing serializer around inner.
func NewCompressed(inner types.Serializer) *Compressed {
	return &Compressed{inner: inner}
}

// Marshal serializes with the inner serializer and block-compresses the result.
func (s *Compressed) Marshal(v any) ([]byte, error) {
	data, err := s.inner.Marshal(v)
	if err != nil {
		return nil, err
	}
	return s2.Encode(nil, data), nil
}

// Unmarshal decompresses the payload and deserializes it, falling back to a
// direct decode for uncompressed payloads.
func (s *Compressed) Unmarshal(data []byte, dest any) error {
	if decoded, err := s2.Decode(nil, data); err == nil {
		return s.inner.Unmarshal(decoded, dest)
	}
	return s.inner.Unmarshal(data, dest)
}

var _ types.Serializer = (*Msgpack)(nil)
var _ types.Serializer = (*Compressed)(nil)
