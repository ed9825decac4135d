package flexus

// Codec converts between a value and its byte representation. Implementations
// are side-effect free and know nothing about where their bytes land; the
// schema walk owns offsets.
type Codec interface {
	// Encode renders v, failing with an error wrapping ErrEncode when v is
	// not representable.
	Encode(v any) ([]byte, error)
	// Decode reads exactly the given slice, failing with an error wrapping
	// ErrDecode when it is short, long or malformed.
	Decode(data []byte) (any, error)
	// Length is the static encoded size in bytes, or -1 when the size
	// depends on the data.
	Length() int
}

// SelfSizing is an optional codec capability: report how many bytes one
// decode would consume from the head of data. Container codecs use it to
// walk variable-size elements; the schema walk itself never calls it, so
// implementing it does not change length resolution.
type SelfSizing interface {
	SizeOf(data []byte) (int, error)
}
