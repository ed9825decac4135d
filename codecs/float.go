package codecs

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/rawbytedev/flexus"
	"github.com/rawbytedev/flexus/internal/common"
)

type floatCodec struct {
	width int
	order binary.ByteOrder
}

// Float32 is a four-byte IEEE-754 float. A nil order means big endian.
func Float32(order binary.ByteOrder) flexus.Codec {
	return &floatCodec{width: 4, order: ord(order)}
}

// Float64 is an eight-byte IEEE-754 float.
func Float64(order binary.ByteOrder) flexus.Codec {
	return &floatCodec{width: 8, order: ord(order)}
}

func (c *floatCodec) Length() int { return c.width }

func (c *floatCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: missing value", flexus.ErrEncode)
	}
	f, ok := common.AsFloat64(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not numeric", flexus.ErrEncode, v)
	}
	out := make([]byte, c.width)
	if c.width == 4 {
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return nil, fmt.Errorf("%w: %v does not fit float32", flexus.ErrEncode, f)
		}
		c.order.PutUint32(out, math.Float32bits(float32(f)))
		return out, nil
	}
	c.order.PutUint64(out, math.Float64bits(f))
	return out, nil
}

func (c *floatCodec) Decode(data []byte) (any, error) {
	if len(data) != c.width {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", flexus.ErrDecode, len(data), c.width)
	}
	if c.width == 4 {
		return math.Float32frombits(c.order.Uint32(data)), nil
	}
	return math.Float64frombits(c.order.Uint64(data)), nil
}
