package codecs

import (
	"bytes"
	"fmt"

	"github.com/rawbytedev/flexus"
)

type literalCodec struct {
	content []byte
}

// Literal always emits content, so the record value may be omitted. A
// present value must match, and decode verifies the window byte for byte.
func Literal(content []byte) flexus.Codec {
	c := make([]byte, len(content))
	copy(c, content)
	return &literalCodec{content: c}
}

func (c *literalCodec) Length() int { return len(c.content) }

func (c *literalCodec) Encode(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
	case []byte:
		if !bytes.Equal(t, c.content) {
			return nil, fmt.Errorf("%w: value differs from literal %q", flexus.ErrEncode, c.content)
		}
	case string:
		if !bytes.Equal([]byte(t), c.content) {
			return nil, fmt.Errorf("%w: value differs from literal %q", flexus.ErrEncode, c.content)
		}
	default:
		return nil, fmt.Errorf("%w: %T is not bytes", flexus.ErrEncode, v)
	}
	out := make([]byte, len(c.content))
	copy(out, c.content)
	return out, nil
}

func (c *literalCodec) Decode(data []byte) (any, error) {
	if !bytes.Equal(data, c.content) {
		return nil, fmt.Errorf("%w: literal mismatch: got %q, want %q", flexus.ErrDecode, data, c.content)
	}
	out := make([]byte, len(c.content))
	copy(out, c.content)
	return out, nil
}
