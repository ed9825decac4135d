package flexus_test

import (
	"bytes"
	"math"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawbytedev/flexus"
	"github.com/rawbytedev/flexus/codecs"
)

// frameSchema is a length-prefixed frame with a fixed trailer.
func frameSchema(t testing.TB) *flexus.Schema {
	s := flexus.New()
	require.NoError(t, s.SetField("length", flexus.NewField(codecs.UInt32(nil))))
	require.NoError(t, s.SetField("data", flexus.NewField(codecs.Blob())))
	require.NoError(t, s.SetField("tail", flexus.NewField(codecs.Int32(nil))))
	require.NoError(t, s.LinkLength("data", "length"))
	return s
}

func TestLengthLinkedFrame(t *testing.T) {
	s := frameSchema(t)

	out, err := s.Pack(flexus.NewRecord().
		Set("data", []byte("Hello world")).
		Set("tail", 42))
	require.NoError(t, err)

	want := append([]byte{0x00, 0x00, 0x00, 0x0B}, []byte("Hello world")...)
	want = append(want, 0x00, 0x00, 0x00, 0x2A)
	assert.Equal(t, want, out)

	rec, err := s.Unpack(out)
	require.NoError(t, err)
	assert.False(t, rec.Has("length"))
	data, err := rec.Bytes("data")
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello world"), data)
	tail, err := rec.Int("tail")
	require.NoError(t, err)
	assert.Equal(t, int64(42), tail)
}

func TestLinkLengthOverflow(t *testing.T) {
	s := flexus.New()
	require.NoError(t, s.SetField("size", flexus.NewField(codecs.UInt64(nil))))
	require.NoError(t, s.SetField("data", flexus.NewField(codecs.Blob())))
	require.NoError(t, s.LinkLength("data", "size"))

	// length prefix claims 1<<63 bytes
	wire := []byte{0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 'x'}
	_, err := s.Unpack(wire)
	assert.ErrorIs(t, err, flexus.ErrDecode)
}

func TestNestedOffsets(t *testing.T) {
	inner := flexus.New()
	require.NoError(t, inner.SetField("length", flexus.NewField(codecs.UInt32(nil))))
	require.NoError(t, inner.SetField("data", flexus.NewField(codecs.Blob())))
	require.NoError(t, inner.LinkLength("data", "length"))

	outer := flexus.New()
	require.NoError(t, outer.SetField("magic", flexus.NewField(codecs.FixedBlob(4))))
	require.NoError(t, outer.SetField("inner", inner))
	require.NoError(t, outer.SetField("tail", flexus.NewField(codecs.UInt32(nil))))

	rec := flexus.NewRecord().
		Set("magic", []byte("GLYP")).
		Set("inner", flexus.NewRecord().Set("data", []byte("payload"))).
		Set("tail", uint32(7))
	out, err := outer.Pack(rec)
	require.NoError(t, err)

	want := append([]byte("GLYP"), 0x00, 0x00, 0x00, 0x07)
	want = append(want, []byte("payload")...)
	want = append(want, 0x00, 0x00, 0x00, 0x07)
	assert.Equal(t, want, out)

	tn, ok := outer.Field("tail")
	require.True(t, ok)
	assert.Equal(t, 15, tn.Offset())
	in, ok := outer.Field("inner")
	require.True(t, ok)
	assert.Equal(t, 4, in.Offset())
	assert.Equal(t, 11, in.Size())

	back, err := outer.Unpack(out)
	require.NoError(t, err)
	assert.True(t, back.Equal(rec))
}

func TestNestedLinkedFrames(t *testing.T) {
	outer := flexus.New()
	require.NoError(t, outer.SetField("first", frameSchema(t)))
	require.NoError(t, outer.SetField("second", frameSchema(t)))

	rec := flexus.NewRecord().
		Set("first", flexus.NewRecord().Set("data", []byte("one")).Set("tail", int32(-1))).
		Set("second", flexus.NewRecord().Set("data", []byte("fourty")).Set("tail", int32(2)))

	out, err := outer.Pack(rec)
	require.NoError(t, err)

	want := append([]byte{0x00, 0x00, 0x00, 0x03}, []byte("one")...)
	want = append(want, 0xFF, 0xFF, 0xFF, 0xFF)
	want = append(want, 0x00, 0x00, 0x00, 0x06)
	want = append(want, []byte("fourty")...)
	want = append(want, 0x00, 0x00, 0x00, 0x02)
	assert.Equal(t, want, out)

	back, err := outer.Unpack(out)
	require.NoError(t, err)
	assert.True(t, back.Equal(rec))

	sn, ok := outer.Field("second")
	require.True(t, ok)
	assert.Equal(t, 11, sn.Offset())
	assert.Equal(t, 14, sn.Size())

	// cut inside the second frame's length prefix
	_, err = outer.Unpack(out[:13])
	assert.ErrorIs(t, err, flexus.ErrDecode)
}

func TestDiscriminantRouting(t *testing.T) {
	s := flexus.New()
	require.NoError(t, s.SetField("kind", flexus.NewField(codecs.UInt8())))
	require.NoError(t, s.SetField("value", flexus.NewField(codecs.Int32(nil))))

	kn, ok := s.Field("kind")
	require.True(t, ok)
	require.NoError(t, kn.SetCallback(flexus.StagePostDecode, func(v any) (any, error) {
		vn, _ := s.Field("value")
		if v.(uint8) == 1 {
			vn.(*flexus.Field).SetCodec(codecs.Int32(nil))
		} else {
			vn.(*flexus.Field).SetCodec(codecs.Float32(nil))
		}
		return nil, nil
	}, flexus.PassThrough))

	rec, err := s.Unpack([]byte{0x01, 0xFF, 0xFF, 0xFF, 0xD6})
	require.NoError(t, err)
	n, err := rec.Int("value")
	require.NoError(t, err)
	assert.Equal(t, int64(-42), n)

	rec, err = s.Unpack([]byte{0x00, 0x40, 0x49, 0x0F, 0xDB})
	require.NoError(t, err)
	f, err := rec.Float("value")
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, f, 1e-6)
}

func TestRepeatedPassesNoLeak(t *testing.T) {
	s := frameSchema(t)
	for _, payload := range [][]byte{
		[]byte("first"),
		[]byte("a considerably longer second payload"),
		{},
	} {
		out, err := s.Pack(flexus.NewRecord().Set("data", payload).Set("tail", 1))
		require.NoError(t, err)
		rec, err := s.Unpack(out)
		require.NoError(t, err)
		data, err := rec.Bytes("data")
		require.NoError(t, err)
		assert.Equal(t, string(payload), string(data))
	}
}

func TestFrameRoundTripRandom(t *testing.T) {
	s := frameSchema(t)
	condition := func(data []byte, tail int32) bool {
		out, err := s.Pack(flexus.NewRecord().Set("data", data).Set("tail", tail))
		if err != nil {
			return false
		}
		rec, err := s.Unpack(out)
		if err != nil {
			return false
		}
		got, err := rec.Bytes("data")
		if err != nil {
			return false
		}
		n, err := rec.Int("tail")
		if err != nil {
			return false
		}
		return string(got) == string(data) && n == int64(tail)
	}
	if err := quick.Check(condition, &quick.Config{}); err != nil {
		t.Errorf("Error: %v", err)
	}
}

func fuzzUnpackFrame(t *testing.T, data []byte) {
	s := frameSchema(t)
	rec, err := s.Unpack(data)
	if err != nil {
		return
	}
	out, err := s.Pack(rec)
	if err != nil {
		t.Fatalf("repack after successful unpack: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("repack mismatch: got %x, want %x", out, data)
	}
}

func FuzzUnpack(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x00, 0x00, 0x00, 0x03, 'a', 'b', 'c', 0x00, 0x00, 0x00, 0x01})
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	f.Add([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	f.Fuzz(fuzzUnpackFrame)
}
