package flexus_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rawbytedev/flexus"
)

func BenchmarkPack(b *testing.B) {
	s := frameSchema(b)
	rec := flexus.NewRecord().
		Set("data", bytes.Repeat([]byte{0xA5}, 512)).
		Set("tail", int32(7))
	b.ReportAllocs()
	var err error
	for i := 0; i < b.N; i++ {
		_, err = s.Pack(rec)
	}
	require.NoError(b, err)
}

func BenchmarkUnpack(b *testing.B) {
	s := frameSchema(b)
	out, err := s.Pack(flexus.NewRecord().
		Set("data", bytes.Repeat([]byte{0xA5}, 512)).
		Set("tail", int32(7)))
	require.NoError(b, err)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err = s.Unpack(out)
	}
	require.NoError(b, err)
}

func BenchmarkBindPack(b *testing.B) {
	type frame struct {
		Data []byte `flexus:"data"`
		Tail int32  `flexus:"tail"`
	}
	s := frameSchema(b)
	z := frame{Data: bytes.Repeat([]byte{0xA5}, 512), Tail: 7}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rec, _ := flexus.ToRecord(z)
		_, _ = s.Pack(rec)
	}
}

func BenchmarkYaml(b *testing.B) {
	type frame struct {
		Length uint32
		Data   []byte
		Tail   int32
	}
	z := frame{Length: 512, Data: bytes.Repeat([]byte{0xA5}, 512), Tail: 7}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = yaml.Marshal(z)
	}
}
