package schemafile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawbytedev/flexus"
)

const packetTOML = `
root = "packet"

[[formats.packet.field]]
name  = "magic"
codec = "literal"
value = "0xCAFEBABE"

[[formats.packet.field]]
name  = "length"
codec = "uint32"

[[formats.packet.field]]
name  = "body"
codec = "blob"

[[formats.packet.link]]
data   = "body"
length = "length"
`

const packetYAML = `
root: packet
formats:
  packet:
    fields:
      - name: magic
        codec: literal
        value: "0xCAFEBABE"
      - name: length
        codec: uint32
      - name: body
        codec: blob
    links:
      - data: body
        length: length
`

func TestParseTOML(t *testing.T) {
	s, err := Parse([]byte(packetTOML), TOML)
	require.NoError(t, err)
	assert.Equal(t, []string{"magic", "length", "body"}, s.Names())

	out, err := s.Pack(flexus.NewRecord().Set("body", []byte("hello")))
	require.NoError(t, err)
	want := append([]byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x00, 0x00, 0x05}, []byte("hello")...)
	assert.Equal(t, want, out)

	rec, err := s.Unpack(out)
	require.NoError(t, err)
	assert.False(t, rec.Has("length"))
	body, err := rec.Bytes("body")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), body)

	// wrong magic
	out[0] = 0x00
	_, err = s.Unpack(out)
	require.ErrorIs(t, err, flexus.ErrDecode)
}

func TestParseYAML(t *testing.T) {
	s, err := Parse([]byte(packetYAML), YAML)
	require.NoError(t, err)

	out, err := s.Pack(flexus.NewRecord().Set("body", []byte("hello")))
	require.NoError(t, err)

	ts, err := Parse([]byte(packetTOML), TOML)
	require.NoError(t, err)
	tout, err := ts.Pack(flexus.NewRecord().Set("body", []byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, tout, out)
}

func TestNestedFormat(t *testing.T) {
	doc := `
root = "envelope"

[[formats.envelope.field]]
name  = "head"
codec = "uint8"

[[formats.envelope.field]]
name   = "payload"
format = "inner"

[[formats.inner.field]]
name   = "a"
codec  = "uint16"
endian = "little"
`
	s, err := Parse([]byte(doc), TOML)
	require.NoError(t, err)

	out, err := s.Pack(flexus.NewRecord().
		Set("head", uint8(1)).
		Set("payload", flexus.NewRecord().Set("a", uint16(0x0102))))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0x02, 0x01}, out)

	rec, err := s.Unpack(out)
	require.NoError(t, err)
	sub, err := rec.Sub("payload")
	require.NoError(t, err)
	a, _ := sub.Get("a")
	assert.Equal(t, uint16(0x0102), a)
}

func TestDeclaredFieldLength(t *testing.T) {
	doc := `
root = "rec"

[[formats.rec.field]]
name   = "tag"
codec  = "string"
length = 5

[[formats.rec.field]]
name  = "n"
codec = "uint8"
`
	s, err := Parse([]byte(doc), TOML)
	require.NoError(t, err)

	rec, err := s.Unpack([]byte("hello\x09"))
	require.NoError(t, err)
	tag, err := rec.Str("tag")
	require.NoError(t, err)
	assert.Equal(t, "hello", tag)
	n, err := rec.Uint("n")
	require.NoError(t, err)
	assert.Equal(t, uint64(9), n)
}

func TestPaddingField(t *testing.T) {
	doc := `
root = "rec"

[[formats.rec.field]]
name   = "pad"
codec  = "padding"
length = 2
fill   = 255

[[formats.rec.field]]
name  = "n"
codec = "uint8"
`
	s, err := Parse([]byte(doc), TOML)
	require.NoError(t, err)

	out, err := s.Pack(flexus.NewRecord().Set("n", uint8(7)))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFF, 7}, out)
}

func TestCompressedChecksumField(t *testing.T) {
	doc := `
root = "rec"

[[formats.rec.field]]
name     = "body"
codec    = "blob"
compress = "zstd"
checksum = true
`
	s, err := Parse([]byte(doc), TOML)
	require.NoError(t, err)

	payload := []byte("a payload that should survive the round trip")
	out, err := s.Pack(flexus.NewRecord().Set("body", payload))
	require.NoError(t, err)
	assert.NotEqual(t, payload, out)

	rec, err := s.Unpack(out)
	require.NoError(t, err)
	body, err := rec.Bytes("body")
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "packet.toml")
	require.NoError(t, os.WriteFile(path, []byte(packetTOML), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, s.NumFields())

	_, err = Load(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "packet.conf")
	require.NoError(t, os.WriteFile(bad, []byte(packetTOML), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(&Document{})
	require.Error(t, err)

	_, err = Build(&Document{Root: "ghost"})
	require.Error(t, err)

	_, err = Build(&Document{Root: "r", Formats: map[string]FormatDef{
		"r": {Fields: []FieldDef{{Name: "a", Codec: "quaternion"}}},
	}})
	require.Error(t, err)

	_, err = Build(&Document{Root: "r", Formats: map[string]FormatDef{
		"r": {Fields: []FieldDef{{Name: "a", Codec: "uint8", Format: "r"}}},
	}})
	require.Error(t, err)

	// self referencing format
	_, err = Build(&Document{Root: "r", Formats: map[string]FormatDef{
		"r": {Fields: []FieldDef{{Name: "a", Format: "r"}}},
	}})
	require.Error(t, err)

	_, err = Build(&Document{Root: "r", Formats: map[string]FormatDef{
		"r": {Fields: []FieldDef{{Name: "a", Codec: "uint16", Endian: "middle"}}},
	}})
	require.Error(t, err)

	_, err = Build(&Document{Root: "r", Formats: map[string]FormatDef{
		"r": {Fields: []FieldDef{
			{Name: "a", Codec: "uint8"},
			{Name: "a", Codec: "uint8"},
		}},
	}})
	require.ErrorIs(t, err, flexus.ErrInvalidFieldName)

	_, err = Build(&Document{Root: "r", Formats: map[string]FormatDef{
		"r": {Fields: []FieldDef{{Name: "p", Codec: "padding"}}},
	}})
	require.Error(t, err)

	_, err = Build(&Document{Root: "r", Formats: map[string]FormatDef{
		"r": {Fields: []FieldDef{{Name: "m", Codec: "literal"}}},
	}})
	require.Error(t, err)

	_, err = Build(&Document{Root: "r", Formats: map[string]FormatDef{
		"r": {Fields: []FieldDef{{Name: "m", Codec: "literal", Value: "0xZZ"}}},
	}})
	require.Error(t, err)

	_, err = Build(&Document{Root: "r", Formats: map[string]FormatDef{
		"r": {
			Fields: []FieldDef{{Name: "a", Codec: "uint8"}},
			Links:  []LinkDef{{Data: "ghost", Length: "a"}},
		},
	}})
	require.ErrorIs(t, err, flexus.ErrInvalidFieldName)

	_, err = Build(&Document{Root: "r", Formats: map[string]FormatDef{
		"r": {Fields: []FieldDef{{Name: "b", Codec: "blob", Compress: "lzma"}}},
	}})
	require.Error(t, err)
}

func TestParseDocumentErrors(t *testing.T) {
	_, err := ParseDocument([]byte("root = ["), TOML)
	require.Error(t, err)
	_, err = ParseDocument([]byte("{"), YAML)
	require.Error(t, err)
	_, err = ParseDocument([]byte("root = \"r\""), FileFormat(9))
	require.Error(t, err)
}
