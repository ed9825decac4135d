package codecs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"

	"github.com/rawbytedev/flexus"
)

// Compression selects the algorithm for Compressed.
type Compression uint8

const (
	Zstd Compression = iota
	Flate
)

type compressCodec struct {
	inner flexus.Codec
	algo  Compression

	zw      *zstd.Encoder
	zr      *zstd.Decoder
	initErr error
}

// Compressed wraps inner so its bytes travel compressed. The compressed
// window is variable size whatever the inner codec reports, so mount it as
// a linked, declared-size or remainder field.
func Compressed(inner flexus.Codec, algo Compression) flexus.Codec {
	c := &compressCodec{inner: inner, algo: algo}
	if algo == Zstd {
		c.zw, c.initErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if c.initErr == nil {
			c.zr, c.initErr = zstd.NewReader(nil)
		}
	}
	return c
}

func (c *compressCodec) Length() int { return -1 }

func (c *compressCodec) Encode(v any) ([]byte, error) {
	if c.initErr != nil {
		return nil, fmt.Errorf("%w: %v", flexus.ErrEncode, c.initErr)
	}
	raw, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	switch c.algo {
	case Zstd:
		return c.zw.EncodeAll(raw, nil), nil
	case Flate:
		var buf bytes.Buffer
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", flexus.ErrEncode, err)
		}
		if _, err := fw.Write(raw); err != nil {
			return nil, fmt.Errorf("%w: %v", flexus.ErrEncode, err)
		}
		if err := fw.Close(); err != nil {
			return nil, fmt.Errorf("%w: %v", flexus.ErrEncode, err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", flexus.ErrEncode, c.algo)
	}
}

func (c *compressCodec) Decode(data []byte) (any, error) {
	if c.initErr != nil {
		return nil, fmt.Errorf("%w: %v", flexus.ErrDecode, c.initErr)
	}
	var raw []byte
	switch c.algo {
	case Zstd:
		out, err := c.zr.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", flexus.ErrDecode, err)
		}
		raw = out
	case Flate:
		fr := flate.NewReader(bytes.NewReader(data))
		out, err := io.ReadAll(fr)
		fr.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", flexus.ErrDecode, err)
		}
		raw = out
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", flexus.ErrDecode, c.algo)
	}
	return c.inner.Decode(raw)
}
