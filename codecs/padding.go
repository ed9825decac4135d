package codecs

import (
	"fmt"

	"github.com/rawbytedev/flexus"
)

type padCodec struct {
	width int
	fill  byte
}

// Padding emits n zero bytes and decodes to nil. The record value, if any,
// is ignored, and decoded windows are skipped without inspection.
func Padding(n int) flexus.Codec { return PaddingFill(n, 0) }

// PaddingFill is Padding with a chosen fill byte.
func PaddingFill(n int, fill byte) flexus.Codec {
	if n < 0 {
		n = 0
	}
	return &padCodec{width: n, fill: fill}
}

func (c *padCodec) Length() int { return c.width }

func (c *padCodec) Encode(any) ([]byte, error) {
	out := make([]byte, c.width)
	if c.fill != 0 {
		for i := range out {
			out[i] = c.fill
		}
	}
	return out, nil
}

func (c *padCodec) Decode(data []byte) (any, error) {
	if len(data) != c.width {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", flexus.ErrDecode, len(data), c.width)
	}
	return nil, nil
}
