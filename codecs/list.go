package codecs

import (
	"fmt"

	"github.com/rawbytedev/flexus"
)

type listCodec struct {
	elems   []flexus.Codec
	term    flexus.Codec
	require bool
}

// ListOption configures List.
type ListOption func(*listCodec)

// ListAlternates adds fallback element codecs. Encode and decode try the
// primary first, then each alternate in order, and keep the first that
// succeeds, which is how mixed-type sequences work.
func ListAlternates(alts ...flexus.Codec) ListOption {
	return func(c *listCodec) { c.elems = append(c.elems, alts...) }
}

// ListTerminant appends term's bytes after the last element and uses them
// to find the end of the sequence on decode. The terminant must have a
// static size; Literal is the usual choice.
func ListTerminant(term flexus.Codec) ListOption {
	return func(c *listCodec) { c.term = term }
}

// ListRequireTerminant makes a window that ends without the terminant a
// decode error instead of a clean end of sequence.
func ListRequireTerminant() ListOption {
	return func(c *listCodec) { c.require = true }
}

// List carries a sequence of elements, decoded to []any. Every element
// codec must have a static size or implement flexus.SelfSizing so element
// boundaries can be found without a count prefix. The sequence as a whole
// is variable size.
func List(elem flexus.Codec, opts ...ListOption) flexus.Codec {
	c := &listCodec{elems: []flexus.Codec{elem}}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *listCodec) Length() int { return -1 }

func (c *listCodec) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: missing value", flexus.ErrEncode)
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not []any", flexus.ErrEncode, v)
	}
	var out []byte
	for i, item := range items {
		raw, err := c.encodeItem(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, raw...)
	}
	if c.term != nil {
		raw, err := c.term.Encode(nil)
		if err != nil {
			return nil, fmt.Errorf("terminant: %w", err)
		}
		out = append(out, raw...)
	}
	return out, nil
}

func (c *listCodec) encodeItem(item any) ([]byte, error) {
	var firstErr error
	for _, ec := range c.elems {
		raw, err := ec.Encode(item)
		if err == nil {
			return raw, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func (c *listCodec) Decode(data []byte) (any, error) {
	out := []any{}
	rest := data
	for len(rest) > 0 {
		if c.term != nil {
			done, err := c.atTerminant(rest)
			if err != nil {
				return nil, err
			}
			if done {
				if extra := len(rest) - c.term.Length(); extra > 0 {
					return nil, fmt.Errorf("%w: %d bytes after terminant", flexus.ErrDecode, extra)
				}
				return out, nil
			}
		}
		item, n, err := c.decodeItem(rest)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", len(out), err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: element %d consumed no bytes", flexus.ErrDecode, len(out))
		}
		out = append(out, item)
		rest = rest[n:]
	}
	if c.term != nil && c.require {
		return nil, fmt.Errorf("%w: missing terminant", flexus.ErrDecode)
	}
	return out, nil
}

func (c *listCodec) atTerminant(rest []byte) (bool, error) {
	tn := c.term.Length()
	if tn < 0 {
		return false, fmt.Errorf("%w: terminant must have a static size", flexus.ErrDecode)
	}
	if len(rest) < tn {
		return false, nil
	}
	if _, err := c.term.Decode(rest[:tn]); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *listCodec) decodeItem(data []byte) (any, int, error) {
	var firstErr error
	for _, ec := range c.elems {
		n := ec.Length()
		if n < 0 {
			ss, ok := ec.(flexus.SelfSizing)
			if !ok {
				return nil, 0, fmt.Errorf("%w: element codec is neither fixed size nor self sizing", flexus.ErrDecode)
			}
			var err error
			n, err = ss.SizeOf(data)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}
		if n > len(data) {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: element needs %d bytes, %d available", flexus.ErrDecode, n, len(data))
			}
			continue
		}
		item, err := ec.Decode(data[:n])
		if err == nil {
			return item, n, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, 0, firstErr
}
