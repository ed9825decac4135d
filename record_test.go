package flexus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOrder(t *testing.T) {
	r := NewRecord().Set("b", 1).Set("a", 2).Set("c", 3)
	assert.Equal(t, []string{"b", "a", "c"}, r.Names())
	r.Set("a", 9) // update keeps position
	assert.Equal(t, []string{"b", "a", "c"}, r.Names())
	v, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, 9, v)
	assert.True(t, r.Delete("b"))
	assert.False(t, r.Has("b"))
	assert.Equal(t, 2, r.Len())
}

func TestRecordTypedGetters(t *testing.T) {
	r := NewRecord().
		Set("b", []byte{1, 2}).
		Set("s", "hi").
		Set("i", uint16(7)).
		Set("u", int8(3)).
		Set("f", float32(1.5)).
		Set("ok", true).
		Set("sub", NewRecord().Set("x", 1))

	bs, err := r.Bytes("b")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, bs)

	s, err := r.Str("s")
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	i, err := r.Int("i")
	require.NoError(t, err)
	assert.Equal(t, int64(7), i)

	u, err := r.Uint("u")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u)

	f, err := r.Float("f")
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	ok, err := r.Bool("ok")
	require.NoError(t, err)
	assert.True(t, ok)

	sub, err := r.Sub("sub")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, sub.Names())

	_, err = r.Bytes("missing")
	require.Error(t, err)
	_, err = r.Int("s")
	require.Error(t, err)
	_, err = r.Uint("u2")
	require.Error(t, err)
}

func TestRecordEqual(t *testing.T) {
	a := NewRecord().Set("x", uint8(1)).Set("y", NewRecord().Set("z", "v"))
	b := NewRecord().Set("x", uint8(1)).Set("y", NewRecord().Set("z", "v"))
	assert.True(t, a.Equal(b))

	// same names, different order
	c := NewRecord().Set("y", NewRecord().Set("z", "v")).Set("x", uint8(1))
	assert.False(t, a.Equal(c))

	d := NewRecord().Set("x", uint8(2)).Set("y", NewRecord().Set("z", "v"))
	assert.False(t, a.Equal(d))

	var e *Record
	assert.False(t, a.Equal(e))
	assert.False(t, e.Equal(a))
}

func TestRecordJSONOrder(t *testing.T) {
	r := NewRecord().Set("z", 1).Set("a", NewRecord().Set("k", "v"))
	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":{"k":"v"}}`, string(out))
}
