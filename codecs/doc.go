// Package codecs provides the building blocks mounted into flexus schemas:
// fixed and variable width integers, floats, text, raw byte runs, padding,
// literals, element sequences, and adapters that compress or checksum an
// inner codec.
//
// Constructors return flexus.Codec values ready for flexus.NewField. Codecs
// hold no per-pass state, so one codec can back any number of fields.
package codecs
