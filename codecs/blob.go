package codecs

import (
	"fmt"

	"github.com/rawbytedev/flexus"
)

// blobCodec passes bytes through. width < 0 means variable.
type blobCodec struct {
	width int
	alias bool
}

// Blob passes raw bytes through unchanged. Its size comes from the value
// on encode and from the schema walk on decode, so a variable Blob needs a
// length link, a declared size or the remainder position.
func Blob() flexus.Codec { return &blobCodec{width: -1} }

// FixedBlob is a Blob of exactly n bytes.
func FixedBlob(n int) flexus.Codec { return &blobCodec{width: n} }

// UnsafeBlob decodes to a slice aliasing the input buffer instead of a
// copy. The value is only valid while the caller keeps the input alive and
// unchanged.
func UnsafeBlob() flexus.Codec { return &blobCodec{width: -1, alias: true} }

func (c *blobCodec) Length() int { return c.width }

func (c *blobCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: missing value", flexus.ErrEncode)
	}
	var b []byte
	switch t := v.(type) {
	case []byte:
		b = t
	case string:
		b = []byte(t)
	default:
		return nil, fmt.Errorf("%w: %T is not bytes", flexus.ErrEncode, v)
	}
	if c.width >= 0 && len(b) != c.width {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", flexus.ErrEncode, len(b), c.width)
	}
	return b, nil
}

func (c *blobCodec) Decode(data []byte) (any, error) {
	if c.width >= 0 && len(data) != c.width {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", flexus.ErrDecode, len(data), c.width)
	}
	if c.alias {
		return data, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
