package flexus

import "fmt"

// Field wraps one Codec with the byte range the owning Schema resolves for
// it on every pass, plus the four lifecycle callbacks. A Field belongs to at
// most one Schema; share codecs, not wrappers.
type Field struct {
	codec Codec

	offset   int
	declared int // caller-declared size, -1 when unset
	resolved int // working size for the current pass, -1 until known

	inPass bool
	hooks  hookSet
}

// NewField wraps c with no declared size and no callbacks.
func NewField(c Codec) *Field {
	return &Field{codec: c, declared: -1, resolved: -1}
}

// Codec returns the wrapped codec.
func (f *Field) Codec() Codec { return f.codec }

// SetCodec swaps the wrapped codec. Hooks use this on not-yet-visited
// siblings to build discriminated layouts.
func (f *Field) SetCodec(c Codec) { f.codec = c }

// Offset is the byte position resolved by the owning Schema. Values set
// before a pass are advisory; the walk overwrites them.
func (f *Field) Offset() int { return f.offset }

// Size is the resolved byte length, -1 while unknown.
func (f *Field) Size() int { return f.resolved }

// SetSize declares the byte length. During a pass it resolves the current
// pass only; outside one it persists as the declared length.
func (f *Field) SetSize(n int) {
	f.resolved = n
	if !f.inPass {
		f.declared = n
	}
}

// ClearSize forgets the declared length so it is inferred again.
func (f *Field) ClearSize() {
	f.declared = -1
	f.resolved = -1
}

// ClearOffset resets the advisory offset.
func (f *Field) ClearOffset() { f.offset = 0 }

// SetCallback installs fn at the given stage, replacing any previous hook
// there. A nil fn clears the stage.
func (f *Field) SetCallback(stage Stage, fn HookFunc, mode HookMode) error {
	return f.hooks.set(stage, fn, mode)
}

// Node implementation.

func (f *Field) staticLen() int { return f.codec.Length() }

func (f *Field) setOffset(off int) { f.offset = off }

func (f *Field) setResolvedLen(n int) { f.resolved = n }

func (f *Field) declaredLen() int { return f.declared }

func (f *Field) resolvedLen() int { return f.resolved }

func (f *Field) resetPass() {
	f.resolved = f.declared
	f.inPass = true
}

func (f *Field) finishPass() { f.inPass = false }

func (f *Field) packValue(ps *passState, v any, have bool) error {
	if !have {
		v = nil
	}
	v, _, err := f.hooks.fire(StagePreEncode, v)
	if err != nil {
		return err
	}
	raw, err := f.codec.Encode(v)
	if err != nil {
		return err
	}
	out, replaced, err := f.hooks.fire(StagePostEncode, raw)
	if err != nil {
		return err
	}
	if replaced {
		b, ok := out.([]byte)
		if !ok {
			return fmt.Errorf("%w: post_encode hook returned %T, want []byte", ErrEncode, out)
		}
		raw = b
	}
	if err := f.reconcile(len(raw)); err != nil {
		return err
	}
	ps.buf.writeAt(f.offset, raw)
	return nil
}

// reconcile checks that the static, declared and actual byte counts agree
// and records the actual count as authoritative for this pass.
func (f *Field) reconcile(actual int) error {
	if st := f.codec.Length(); st >= 0 && st != actual {
		return fmt.Errorf("%w: static size %d, actual %d", ErrAmbiguousLength, st, actual)
	}
	if f.resolved >= 0 && f.resolved != actual {
		return fmt.Errorf("%w: declared size %d, actual %d", ErrAmbiguousLength, f.resolved, actual)
	}
	f.resolved = actual
	return nil
}

func (f *Field) unpackWindow(ps *passState, bound int) (any, error) {
	if bound > len(ps.src) || f.offset > bound {
		return nil, fmt.Errorf("%w: window [%d:%d) outside %d input bytes", ErrDecode, f.offset, bound, len(ps.src))
	}
	raw := ps.src[f.offset:bound]
	pre, replaced, err := f.hooks.fire(StagePreDecode, raw)
	if err != nil {
		return nil, err
	}
	if replaced {
		b, ok := pre.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: pre_decode hook returned %T, want []byte", ErrDecode, pre)
		}
		raw = b
	}
	val, err := f.codec.Decode(raw)
	if err != nil {
		return nil, err
	}
	val, _, err = f.hooks.fire(StagePostDecode, val)
	if err != nil {
		return nil, err
	}
	// wire consumption, not the (possibly substituted) decoded width
	f.resolved = bound - f.offset
	return val, nil
}
