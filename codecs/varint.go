package codecs

import (
	"fmt"

	"github.com/rawbytedev/flexus"
	"github.com/rawbytedev/flexus/internal/common"
)

type varintCodec struct {
	signed bool
}

// VarUint is an unsigned base-128 variable-width integer of at most
// common.MaxVarintLen bytes. It implements flexus.SelfSizing, so List can
// carry it as an element.
func VarUint() flexus.Codec { return varintCodec{} }

// VarInt is VarUint with zigzag mapping for signed values.
func VarInt() flexus.Codec { return varintCodec{signed: true} }

func (varintCodec) Length() int { return -1 }

func (c varintCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: missing value", flexus.ErrEncode)
	}
	var u uint64
	if c.signed {
		n, ok := common.AsInt64(v)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not an integer", flexus.ErrEncode, v)
		}
		u = common.ZigZag(n)
	} else {
		n, ok := common.AsUint64(v)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not an unsigned integer", flexus.ErrEncode, v)
		}
		u = n
	}
	return common.WriteVarUint(nil, u), nil
}

func (c varintCodec) Decode(data []byte) (any, error) {
	u, n := common.ReadVarUint(data)
	if n == 0 {
		return nil, fmt.Errorf("%w: truncated varint", flexus.ErrDecode)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d bytes after varint", flexus.ErrDecode, len(data)-n)
	}
	if c.signed {
		return common.UnZigZag(u), nil
	}
	return u, nil
}

// SizeOf reports the width of the varint at the head of data.
func (varintCodec) SizeOf(data []byte) (int, error) {
	_, n := common.ReadVarUint(data)
	if n == 0 {
		return 0, fmt.Errorf("%w: truncated varint", flexus.ErrDecode)
	}
	return n, nil
}
