package flexus

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/rawbytedev/flexus/internal/common"
)

// Struct binding converts between records and plain Go structs so callers
// can keep typed values and let a Schema own the wire layout. Exported
// fields map under their Go name unless a `flexus:"name"` tag renames them;
// `flexus:"-"` skips a field.

type bindPlan struct {
	fields []bindField
}

type bindField struct {
	idx   int
	name  string
	fixed bool // fixed-size primitive kind, stored as-is
}

var (
	bindMu    sync.RWMutex
	bindPlans = make(map[reflect.Type]*bindPlan)
)

func getBindPlan(t reflect.Type) *bindPlan {
	bindMu.RLock()
	if p, ok := bindPlans[t]; ok {
		bindMu.RUnlock()
		return p
	}
	bindMu.RUnlock()

	bindMu.Lock()
	defer bindMu.Unlock()

	// Double-check
	if p, ok := bindPlans[t]; ok {
		return p
	}

	p := &bindPlan{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" && !sf.Anonymous {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("flexus"); ok {
			if tag == "-" {
				continue
			}
			name = tag
		}
		p.fields = append(p.fields, bindField{
			idx:   i,
			name:  name,
			fixed: common.IsFixedKind(sf.Type.Kind()),
		})
	}

	bindPlans[t] = p
	return p
}

// ToRecord builds a record from the exported fields of a struct or struct
// pointer. Nested structs become nested records, []byte passes through and
// other slices become []any.
func ToRecord(val any) (*Record, error) {
	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, ErrNotStruct
	}

	plan := getBindPlan(v.Type())
	rec := NewRecord()
	for _, bf := range plan.fields {
		fv := v.Field(bf.idx)
		if bf.fixed {
			rec.Set(bf.name, fv.Interface())
			continue
		}
		rv, err := valueOut(fv)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", bf.name, err)
		}
		rec.Set(bf.name, rv)
	}
	return rec, nil
}

func valueOut(v reflect.Value) (any, error) {
	switch v.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return v.Interface(), nil
	case reflect.Struct:
		return ToRecord(v.Interface())
	case reflect.Ptr:
		if v.IsNil() {
			return nil, nil
		}
		return valueOut(v.Elem())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Bytes(), nil
		}
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			ev, err := valueOut(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, v.Type())
	}
}

// FromRecord fills a struct through out, which must be a non-nil struct
// pointer. Names absent from the record leave their field at the zero
// value; names without a matching field are ignored.
func FromRecord(rec *Record, out any) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", ErrUnsupported)
	}
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrNotStructPtr
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrNotStructPtr
	}

	plan := getBindPlan(v.Type())
	for _, bf := range plan.fields {
		rv, ok := rec.Get(bf.name)
		if !ok || rv == nil {
			continue
		}
		if err := valueIn(v.Field(bf.idx), rv); err != nil {
			return fmt.Errorf("field %s: %w", bf.name, err)
		}
	}
	return nil
}

func valueIn(dst reflect.Value, val any) error {
	switch dst.Kind() {
	case reflect.Bool:
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("%w: %T into %s", ErrUnsupported, val, dst.Type())
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := common.AsInt64(val)
		if !ok {
			return fmt.Errorf("%w: %T into %s", ErrUnsupported, val, dst.Type())
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%w: %d does not fit %s", ErrUnsupported, n, dst.Type())
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := common.AsUint64(val)
		if !ok {
			return fmt.Errorf("%w: %T into %s", ErrUnsupported, val, dst.Type())
		}
		if dst.OverflowUint(n) {
			return fmt.Errorf("%w: %d does not fit %s", ErrUnsupported, n, dst.Type())
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, ok := common.AsFloat64(val)
		if !ok {
			return fmt.Errorf("%w: %T into %s", ErrUnsupported, val, dst.Type())
		}
		if dst.OverflowFloat(f) {
			return fmt.Errorf("%w: %v does not fit %s", ErrUnsupported, f, dst.Type())
		}
		dst.SetFloat(f)
	case reflect.String:
		switch t := val.(type) {
		case string:
			dst.SetString(t)
		case []byte:
			dst.SetString(string(t))
		default:
			return fmt.Errorf("%w: %T into string", ErrUnsupported, val)
		}
	case reflect.Struct:
		sub, ok := val.(*Record)
		if !ok {
			return fmt.Errorf("%w: %T into %s", ErrUnsupported, val, dst.Type())
		}
		return FromRecord(sub, dst.Addr().Interface())
	case reflect.Ptr:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return valueIn(dst.Elem(), val)
	case reflect.Slice:
		if dst.Type().Elem().Kind() == reflect.Uint8 {
			b, ok := val.([]byte)
			if !ok {
				if s, sok := val.(string); sok {
					b, ok = []byte(s), true
				}
			}
			if !ok {
				return fmt.Errorf("%w: %T into %s", ErrUnsupported, val, dst.Type())
			}
			dst.SetBytes(cloneBytes(b))
			return nil
		}
		items, ok := val.([]any)
		if !ok {
			return fmt.Errorf("%w: %T into %s", ErrUnsupported, val, dst.Type())
		}
		out := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			if err := valueIn(out.Index(i), item); err != nil {
				return err
			}
		}
		dst.Set(out)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, dst.Type())
	}
	return nil
}
