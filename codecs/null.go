package codecs

import (
	"fmt"

	"github.com/rawbytedev/flexus"
)

type nullCodec struct{}

// Null occupies no bytes and decodes to nil. It keeps a name addressable
// in a schema, for hooks or future layout growth, without moving data.
func Null() flexus.Codec { return nullCodec{} }

func (nullCodec) Length() int { return 0 }

func (nullCodec) Encode(any) ([]byte, error) { return nil, nil }

func (nullCodec) Decode(data []byte) (any, error) {
	if len(data) != 0 {
		return nil, fmt.Errorf("%w: got %d bytes, want none", flexus.ErrDecode, len(data))
	}
	return nil, nil
}
