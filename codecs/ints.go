package codecs

import (
	"encoding/binary"
	"fmt"

	"github.com/rawbytedev/flexus"
	"github.com/rawbytedev/flexus/internal/common"
)

// intCodec covers every fixed-width integer. Decode returns the canonical
// Go type for the width and signedness.
type intCodec struct {
	width  int
	signed bool
	order  binary.ByteOrder
}

func ord(order binary.ByteOrder) binary.ByteOrder {
	if order == nil {
		return binary.BigEndian
	}
	return order
}

// UInt8 is an unsigned single byte.
func UInt8() flexus.Codec { return &intCodec{width: 1, order: binary.BigEndian} }

// Int8 is a signed single byte.
func Int8() flexus.Codec { return &intCodec{width: 1, signed: true, order: binary.BigEndian} }

// UInt16 is a two-byte unsigned integer. A nil order means big endian, as
// for all multi-byte constructors here.
func UInt16(order binary.ByteOrder) flexus.Codec {
	return &intCodec{width: 2, order: ord(order)}
}

// Int16 is a two-byte signed integer.
func Int16(order binary.ByteOrder) flexus.Codec {
	return &intCodec{width: 2, signed: true, order: ord(order)}
}

// UInt32 is a four-byte unsigned integer.
func UInt32(order binary.ByteOrder) flexus.Codec {
	return &intCodec{width: 4, order: ord(order)}
}

// Int32 is a four-byte signed integer.
func Int32(order binary.ByteOrder) flexus.Codec {
	return &intCodec{width: 4, signed: true, order: ord(order)}
}

// UInt64 is an eight-byte unsigned integer.
func UInt64(order binary.ByteOrder) flexus.Codec {
	return &intCodec{width: 8, order: ord(order)}
}

// Int64 is an eight-byte signed integer.
func Int64(order binary.ByteOrder) flexus.Codec {
	return &intCodec{width: 8, signed: true, order: ord(order)}
}

func (c *intCodec) Length() int { return c.width }

func (c *intCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: missing value", flexus.ErrEncode)
	}
	var u uint64
	if c.signed {
		n, ok := common.AsInt64(v)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not an integer", flexus.ErrEncode, v)
		}
		if c.width < 8 {
			lim := int64(1) << (c.width*8 - 1)
			if n < -lim || n >= lim {
				return nil, fmt.Errorf("%w: %d does not fit int%d", flexus.ErrEncode, n, c.width*8)
			}
		}
		u = uint64(n)
	} else {
		n, ok := common.AsUint64(v)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not an unsigned integer", flexus.ErrEncode, v)
		}
		if c.width < 8 && n >= uint64(1)<<(c.width*8) {
			return nil, fmt.Errorf("%w: %d does not fit uint%d", flexus.ErrEncode, n, c.width*8)
		}
		u = n
	}
	out := make([]byte, c.width)
	switch c.width {
	case 1:
		out[0] = byte(u)
	case 2:
		c.order.PutUint16(out, uint16(u))
	case 4:
		c.order.PutUint32(out, uint32(u))
	case 8:
		c.order.PutUint64(out, u)
	}
	return out, nil
}

func (c *intCodec) Decode(data []byte) (any, error) {
	if len(data) != c.width {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", flexus.ErrDecode, len(data), c.width)
	}
	var u uint64
	switch c.width {
	case 1:
		u = uint64(data[0])
	case 2:
		u = uint64(c.order.Uint16(data))
	case 4:
		u = uint64(c.order.Uint32(data))
	case 8:
		u = c.order.Uint64(data)
	}
	if c.signed {
		switch c.width {
		case 1:
			return int8(u), nil
		case 2:
			return int16(u), nil
		case 4:
			return int32(u), nil
		default:
			return int64(u), nil
		}
	}
	switch c.width {
	case 1:
		return uint8(u), nil
	case 2:
		return uint16(u), nil
	case 4:
		return uint32(u), nil
	default:
		return u, nil
	}
}
