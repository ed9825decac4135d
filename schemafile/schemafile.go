// Package schemafile loads flexus schemas from declarative TOML or YAML
// documents, so wire layouts can live next to the data they describe
// instead of in code.
//
// A document names a root format and any number of named formats. Each
// format lists its fields in wire order and, optionally, length links:
//
//	root = "packet"
//
//	[[formats.packet.field]]
//	name  = "magic"
//	codec = "literal"
//	value = "0xCAFEBABE"
//
//	[[formats.packet.field]]
//	name  = "length"
//	codec = "uint32"
//
//	[[formats.packet.field]]
//	name  = "body"
//	codec = "blob"
//
//	[[formats.packet.link]]
//	data   = "body"
//	length = "length"
//
// A field carries either a codec name or a format reference for nesting.
// Multi-byte integers default to big endian.
package schemafile

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/rawbytedev/flexus"
	"github.com/rawbytedev/flexus/codecs"
)

// FileFormat selects the document syntax for Parse.
type FileFormat uint8

const (
	TOML FileFormat = iota
	YAML
)

// Document is a parsed schema file before building.
type Document struct {
	Root    string               `toml:"root" yaml:"root"`
	Formats map[string]FormatDef `toml:"formats" yaml:"formats"`
}

// FormatDef is one named layout: ordered fields plus length links.
type FormatDef struct {
	Fields []FieldDef `toml:"field" yaml:"fields"`
	Links  []LinkDef  `toml:"link" yaml:"links"`
}

// FieldDef declares one field. Codec and Format are mutually exclusive.
type FieldDef struct {
	Name     string `toml:"name" yaml:"name"`
	Codec    string `toml:"codec" yaml:"codec"`
	Format   string `toml:"format" yaml:"format"`
	Length   *int   `toml:"length" yaml:"length"`
	Endian   string `toml:"endian" yaml:"endian"`
	Fill     *int   `toml:"fill" yaml:"fill"`
	Value    string `toml:"value" yaml:"value"`
	Compress string `toml:"compress" yaml:"compress"`
	Checksum bool   `toml:"checksum" yaml:"checksum"`
}

// LinkDef binds a length field to the data field it sizes.
type LinkDef struct {
	Data   string `toml:"data" yaml:"data"`
	Length string `toml:"length" yaml:"length"`
}

// Load reads a schema document, picking the syntax from the file
// extension: .toml, .yaml or .yml.
func Load(path string) (*flexus.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return Parse(data, TOML)
	case ".yaml", ".yml":
		return Parse(data, YAML)
	default:
		return nil, fmt.Errorf("schemafile: unrecognized extension %q", filepath.Ext(path))
	}
}

// Parse decodes a document and builds its root schema.
func Parse(data []byte, ff FileFormat) (*flexus.Schema, error) {
	doc, err := ParseDocument(data, ff)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// ParseDocument decodes a document without building it.
func ParseDocument(data []byte, ff FileFormat) (*Document, error) {
	doc := &Document{}
	switch ff {
	case TOML:
		if err := toml.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("schemafile: %w", err)
		}
	case YAML:
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("schemafile: %w", err)
		}
	default:
		return nil, fmt.Errorf("schemafile: unknown file format %d", ff)
	}
	return doc, nil
}

// Build assembles the document's root format into a schema. Every format
// reference builds a fresh nested schema, and reference cycles are
// rejected.
func Build(doc *Document) (*flexus.Schema, error) {
	if doc.Root == "" {
		return nil, fmt.Errorf("schemafile: no root format")
	}
	return buildFormat(doc, doc.Root, map[string]bool{})
}

func buildFormat(doc *Document, name string, building map[string]bool) (*flexus.Schema, error) {
	def, ok := doc.Formats[name]
	if !ok {
		return nil, fmt.Errorf("schemafile: unknown format %q", name)
	}
	if building[name] {
		return nil, fmt.Errorf("schemafile: format %q: reference cycle", name)
	}
	building[name] = true
	defer delete(building, name)

	sch := flexus.New()
	for _, fd := range def.Fields {
		node, declared, err := buildNode(doc, fd, building)
		if err != nil {
			return nil, fmt.Errorf("schemafile: format %q, field %q: %w", name, fd.Name, err)
		}
		if declared >= 0 {
			node.SetSize(declared)
		}
		if err := sch.SetField(fd.Name, node); err != nil {
			return nil, fmt.Errorf("schemafile: format %q: %w", name, err)
		}
	}
	for _, ld := range def.Links {
		if err := sch.LinkLength(ld.Data, ld.Length); err != nil {
			return nil, fmt.Errorf("schemafile: format %q: %w", name, err)
		}
	}
	return sch, nil
}

// buildNode returns the node for one field definition plus a declared size
// to set on it, -1 for none.
func buildNode(doc *Document, fd FieldDef, building map[string]bool) (flexus.Node, int, error) {
	if fd.Format != "" {
		if fd.Codec != "" {
			return nil, 0, fmt.Errorf("codec and format are mutually exclusive")
		}
		sub, err := buildFormat(doc, fd.Format, building)
		if err != nil {
			return nil, 0, err
		}
		return sub, declaredLength(fd), nil
	}
	c, err := buildCodec(fd)
	if err != nil {
		return nil, 0, err
	}
	if fd.Checksum {
		c = codecs.CRC32(c)
	}
	switch strings.ToLower(fd.Compress) {
	case "":
	case "zstd":
		c = codecs.Compressed(c, codecs.Zstd)
	case "flate":
		c = codecs.Compressed(c, codecs.Flate)
	default:
		return nil, 0, fmt.Errorf("unknown compression %q", fd.Compress)
	}
	return flexus.NewField(c), declaredLength(fd), nil
}

// declaredLength reports the field-level declared size, which the engine
// treats like SetSize before a pass. Codecs that consume the length at
// construction return -1 from here instead.
func declaredLength(fd FieldDef) int {
	switch strings.ToLower(fd.Codec) {
	case "blob", "bytes", "padding", "literal":
		return -1
	}
	if fd.Length != nil {
		return *fd.Length
	}
	return -1
}

func buildCodec(fd FieldDef) (flexus.Codec, error) {
	order, err := byteOrder(fd.Endian)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(fd.Codec) {
	case "uint8", "byte":
		return codecs.UInt8(), nil
	case "int8":
		return codecs.Int8(), nil
	case "uint16":
		return codecs.UInt16(order), nil
	case "int16":
		return codecs.Int16(order), nil
	case "uint32":
		return codecs.UInt32(order), nil
	case "int32":
		return codecs.Int32(order), nil
	case "uint64":
		return codecs.UInt64(order), nil
	case "int64":
		return codecs.Int64(order), nil
	case "float32":
		return codecs.Float32(order), nil
	case "float64":
		return codecs.Float64(order), nil
	case "bool":
		return codecs.Bool(), nil
	case "varint":
		return codecs.VarInt(), nil
	case "varuint":
		return codecs.VarUint(), nil
	case "blob", "bytes":
		if fd.Length != nil {
			return codecs.FixedBlob(*fd.Length), nil
		}
		return codecs.Blob(), nil
	case "string", "utf8":
		return codecs.String(), nil
	case "ascii":
		return codecs.ASCII(), nil
	case "latin1":
		return codecs.Latin1(), nil
	case "padding":
		if fd.Length == nil {
			return nil, fmt.Errorf("padding needs a length")
		}
		fill := 0
		if fd.Fill != nil {
			fill = *fd.Fill
		}
		if fill < 0 || fill > 0xff {
			return nil, fmt.Errorf("fill %d is not a byte", fill)
		}
		return codecs.PaddingFill(*fd.Length, byte(fill)), nil
	case "literal":
		content, err := literalValue(fd.Value)
		if err != nil {
			return nil, err
		}
		return codecs.Literal(content), nil
	case "null":
		return codecs.Null(), nil
	case "":
		return nil, fmt.Errorf("no codec")
	default:
		return nil, fmt.Errorf("unknown codec %q", fd.Codec)
	}
}

func byteOrder(endian string) (binary.ByteOrder, error) {
	switch strings.ToLower(endian) {
	case "", "big":
		return binary.BigEndian, nil
	case "little":
		return binary.LittleEndian, nil
	default:
		return nil, fmt.Errorf("unknown endian %q", endian)
	}
}

// literalValue parses a literal's content: 0x-prefixed hex or raw text.
func literalValue(v string) ([]byte, error) {
	if v == "" {
		return nil, fmt.Errorf("literal needs a value")
	}
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
		content, err := hex.DecodeString(v[2:])
		if err != nil {
			return nil, fmt.Errorf("bad hex value %q: %w", v, err)
		}
		return content, nil
	}
	return []byte(v), nil
}
