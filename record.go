package flexus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	orderedmap "github.com/elliotchance/orderedmap/v2"

	"github.com/rawbytedev/flexus/internal/common"
)

// Record is the structured value a Schema decodes into and encodes from.
// Field order follows insertion order, which for decoded records is the
// declaration order of the producing Schema. Records are plain data with no
// identity beyond one encode or decode call; names elided by a length link
// never appear in one.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

func NewRecord() *Record {
	return &Record{fields: orderedmap.NewOrderedMap[string, any]()}
}

// Set stores v under name, appending the name on first use. It returns r so
// records can be built in one chain.
func (r *Record) Set(name string, v any) *Record {
	r.fields.Set(name, v)
	return r
}

func (r *Record) Get(name string) (any, bool) {
	return r.fields.Get(name)
}

func (r *Record) Has(name string) bool {
	_, ok := r.fields.Get(name)
	return ok
}

func (r *Record) Delete(name string) bool {
	return r.fields.Delete(name)
}

// Len is the number of fields.
func (r *Record) Len() int {
	return r.fields.Len()
}

// Names returns the field names in order.
func (r *Record) Names() []string {
	out := make([]string, 0, r.fields.Len())
	for e := r.fields.Front(); e != nil; e = e.Next() {
		out = append(out, e.Key)
	}
	return out
}

// Bytes fetches a []byte field.
func (r *Record) Bytes(name string) ([]byte, error) {
	v, ok := r.fields.Get(name)
	if !ok {
		return nil, fmt.Errorf("record: no field %q", name)
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("record: field %q is %T, not []byte", name, v)
	}
	return b, nil
}

// Str fetches a string field.
func (r *Record) Str(name string) (string, error) {
	v, ok := r.fields.Get(name)
	if !ok {
		return "", fmt.Errorf("record: no field %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("record: field %q is %T, not string", name, v)
	}
	return s, nil
}

// Int fetches an integer field, coercing any integer kind.
func (r *Record) Int(name string) (int64, error) {
	v, ok := r.fields.Get(name)
	if !ok {
		return 0, fmt.Errorf("record: no field %q", name)
	}
	n, ok := common.AsInt64(v)
	if !ok {
		return 0, fmt.Errorf("record: field %q is %T, not an integer", name, v)
	}
	return n, nil
}

// Uint fetches a non-negative integer field, coercing any integer kind.
func (r *Record) Uint(name string) (uint64, error) {
	v, ok := r.fields.Get(name)
	if !ok {
		return 0, fmt.Errorf("record: no field %q", name)
	}
	n, ok := common.AsUint64(v)
	if !ok {
		return 0, fmt.Errorf("record: field %q is %T, not an unsigned integer", name, v)
	}
	return n, nil
}

// Float fetches a numeric field as float64.
func (r *Record) Float(name string) (float64, error) {
	v, ok := r.fields.Get(name)
	if !ok {
		return 0, fmt.Errorf("record: no field %q", name)
	}
	f, ok := common.AsFloat64(v)
	if !ok {
		return 0, fmt.Errorf("record: field %q is %T, not numeric", name, v)
	}
	return f, nil
}

// Bool fetches a boolean field.
func (r *Record) Bool(name string) (bool, error) {
	v, ok := r.fields.Get(name)
	if !ok {
		return false, fmt.Errorf("record: no field %q", name)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("record: field %q is %T, not bool", name, v)
	}
	return b, nil
}

// Sub fetches a nested record field.
func (r *Record) Sub(name string) (*Record, error) {
	v, ok := r.fields.Get(name)
	if !ok {
		return nil, fmt.Errorf("record: no field %q", name)
	}
	sub, ok := v.(*Record)
	if !ok {
		return nil, fmt.Errorf("record: field %q is %T, not a nested record", name, v)
	}
	return sub, nil
}

// Equal reports whether o has the same names in the same order with deeply
// equal values.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.fields.Len() != o.fields.Len() {
		return false
	}
	a, b := r.fields.Front(), o.fields.Front()
	for a != nil && b != nil {
		if a.Key != b.Key {
			return false
		}
		if !valueEqual(a.Value, b.Value) {
			return false
		}
		a, b = a.Next(), b.Next()
	}
	return a == nil && b == nil
}

func valueEqual(a, b any) bool {
	if ra, ok := a.(*Record); ok {
		rb, ok := b.(*Record)
		return ok && ra.Equal(rb)
	}
	return reflect.DeepEqual(a, b)
}

// MarshalJSON writes the record as a JSON object preserving field order.
// Nested records nest as objects; []byte values follow the usual base64
// convention.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for e := r.fields.Front(); e != nil; e = e.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("record: field %q: %w", e.Key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for e := r.fields.Front(); e != nil; e = e.Next() {
		if sb.Len() > 1 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %v", e.Key, e.Value)
	}
	sb.WriteByte('}')
	return sb.String()
}
