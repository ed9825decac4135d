package flexus

import "errors"

// Engine errors. Codec failures wrap ErrEncode or ErrDecode; the rest are
// schema declaration or resolution failures. Detection sites add context
// with fmt.Errorf and %w, so match with errors.Is.
var (
	ErrAmbiguousLength  = errors.New("ambiguous length")
	ErrInvalidFieldName = errors.New("invalid field name")
	ErrEncode           = errors.New("encode failed")
	ErrDecode           = errors.New("decode failed")
	ErrUnresolvedLength = errors.New("unresolved length")
	ErrPassActive       = errors.New("pass in progress")
)

// Struct binding errors.
var (
	ErrNotStruct    = errors.New("expected struct")
	ErrNotStructPtr = errors.New("expected pointer to struct")
	ErrUnsupported  = errors.New("unsupported type")
)
