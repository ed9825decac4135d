package codecs

import (
	"fmt"

	"github.com/rawbytedev/flexus"
)

type boolCodec struct{}

// Bool is a single byte, written as 0x00 or 0x01. Decode treats any
// nonzero byte as true.
func Bool() flexus.Codec { return boolCodec{} }

func (boolCodec) Length() int { return 1 }

func (boolCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: missing value", flexus.ErrEncode)
	}
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not bool", flexus.ErrEncode, v)
	}
	if b {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func (boolCodec) Decode(data []byte) (any, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("%w: got %d bytes, want 1", flexus.ErrDecode, len(data))
	}
	return data[0] != 0, nil
}
