package codecs

import (
	"fmt"
	"unicode/utf8"

	"github.com/rawbytedev/flexus"
)

type charset uint8

const (
	charsetUTF8 charset = iota
	charsetASCII
	charsetLatin1
)

type textCodec struct {
	cs charset
}

// String carries UTF-8 text, validated on both sides.
func String() flexus.Codec { return &textCodec{cs: charsetUTF8} }

// ASCII carries 7-bit text.
func ASCII() flexus.Codec { return &textCodec{cs: charsetASCII} }

// Latin1 carries ISO 8859-1 text, one byte per rune.
func Latin1() flexus.Codec { return &textCodec{cs: charsetLatin1} }

func (c *textCodec) Length() int { return -1 }

func (c *textCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: missing value", flexus.ErrEncode)
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return nil, fmt.Errorf("%w: %T is not text", flexus.ErrEncode, v)
	}
	switch c.cs {
	case charsetASCII:
		for i := 0; i < len(s); i++ {
			if s[i] >= utf8.RuneSelf {
				return nil, fmt.Errorf("%w: byte 0x%02x is not ASCII", flexus.ErrEncode, s[i])
			}
		}
		return []byte(s), nil
	case charsetLatin1:
		out := make([]byte, 0, len(s))
		for _, r := range s {
			if r > 0xff {
				return nil, fmt.Errorf("%w: rune %q outside Latin-1", flexus.ErrEncode, r)
			}
			out = append(out, byte(r))
		}
		return out, nil
	default:
		if !utf8.ValidString(s) {
			return nil, fmt.Errorf("%w: invalid UTF-8", flexus.ErrEncode)
		}
		return []byte(s), nil
	}
}

func (c *textCodec) Decode(data []byte) (any, error) {
	switch c.cs {
	case charsetASCII:
		for _, b := range data {
			if b >= utf8.RuneSelf {
				return nil, fmt.Errorf("%w: byte 0x%02x is not ASCII", flexus.ErrDecode, b)
			}
		}
		return string(data), nil
	case charsetLatin1:
		rs := make([]rune, len(data))
		for i, b := range data {
			rs[i] = rune(b)
		}
		return string(rs), nil
	default:
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: invalid UTF-8", flexus.ErrDecode)
		}
		return string(data), nil
	}
}
