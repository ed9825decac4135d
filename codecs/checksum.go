package codecs

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/rawbytedev/flexus"
)

type crcCodec struct {
	inner flexus.Codec
}

// CRC32 appends a little-endian IEEE checksum of inner's bytes, verified
// and stripped on decode.
func CRC32(inner flexus.Codec) flexus.Codec { return &crcCodec{inner: inner} }

func (c *crcCodec) Length() int {
	if n := c.inner.Length(); n >= 0 {
		return n + 4
	}
	return -1
}

func (c *crcCodec) Encode(v any) ([]byte, error) {
	raw, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(raw)+4)
	copy(out, raw)
	binary.LittleEndian.PutUint32(out[len(raw):], crc32.ChecksumIEEE(raw))
	return out, nil
}

func (c *crcCodec) Decode(data []byte) (any, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: %d bytes is too short for a checksum", flexus.ErrDecode, len(data))
	}
	body, tail := data[:len(data)-4], data[len(data)-4:]
	want := binary.LittleEndian.Uint32(tail)
	if got := crc32.ChecksumIEEE(body); got != want {
		return nil, fmt.Errorf("%w: checksum mismatch: got %08x, want %08x", flexus.ErrDecode, got, want)
	}
	return c.inner.Decode(body)
}
