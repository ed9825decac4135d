package flexus

import (
	"fmt"
	"math"
	"strings"

	orderedmap "github.com/elliotchance/orderedmap/v2"

	"github.com/rawbytedev/flexus/internal/common"
)

// Node is a schema member: either a *Field or a nested *Schema. The set is
// closed; the walk methods are unexported.
type Node interface {
	// Offset is the byte position resolved by the owning Schema for the
	// current pass.
	Offset() int
	// Size is the resolved byte length, -1 while unknown.
	Size() int
	// SetSize declares the byte length; during a pass it affects only the
	// pass in progress.
	SetSize(n int)
	ClearSize()
	ClearOffset()
	SetCallback(stage Stage, fn HookFunc, mode HookMode) error

	staticLen() int
	declaredLen() int
	resolvedLen() int
	setOffset(int)
	setResolvedLen(int)
	resetPass()
	finishPass()
	packValue(ps *passState, v any, have bool) error
	unpackWindow(ps *passState, bound int) (any, error)
}

// passState carries the shared buffers of one top-level encode or decode
// traversal. Offsets everywhere in the tree are absolute positions in these
// buffers.
type passState struct {
	buf *wbuf  // encode target
	src []byte // decode source
}

type lengthLink struct {
	data   string
	length string
}

// Schema is an ordered, nestable composite of named fields that itself
// behaves as a Codec. The walk resolves offsets and lengths field by field
// in declaration order; hooks observe and steer that resolution.
//
// A Schema and its Fields are not safe for concurrent passes; run one
// encode or decode at a time per instance.
type Schema struct {
	fields *orderedmap.OrderedMap[string, Node]

	links  []lengthLink
	elided map[string]struct{}
	// encode-side deferral: length fields whose windows are reserved and
	// patched right after their data field packs
	deferred   map[string]struct{}
	patchAfter map[string][]string

	hooks hookSet

	offset   int
	declared int
	resolved int

	inParent  bool // a parent pass reset this node
	walking   bool // own walk in progress
	visited   map[string]struct{}
	remainder string
}

// New returns an empty schema.
func New() *Schema {
	return &Schema{
		fields:     orderedmap.NewOrderedMap[string, Node](),
		elided:     map[string]struct{}{},
		deferred:   map[string]struct{}{},
		patchAfter: map[string][]string{},
		declared:   -1,
		resolved:   -1,
	}
}

// SetField appends a field under name. Names must be valid identifiers and
// unique within the schema; use ReplaceField to swap an existing one.
func (s *Schema) SetField(name string, n Node) error {
	if s.walking {
		return fmt.Errorf("schema: set %q: %w", name, ErrPassActive)
	}
	if !validName(name) {
		return fmt.Errorf("schema: %w: %q", ErrInvalidFieldName, name)
	}
	if n == nil {
		return fmt.Errorf("schema: set %q: nil node", name)
	}
	if _, dup := s.fields.Get(name); dup {
		return fmt.Errorf("schema: %w: duplicate %q", ErrInvalidFieldName, name)
	}
	s.fields.Set(name, n)
	return nil
}

// ReplaceField swaps the node under an existing name, keeping its position.
// During a pass only fields the walk has not reached yet may be replaced.
func (s *Schema) ReplaceField(name string, n Node) error {
	if n == nil {
		return fmt.Errorf("schema: replace %q: nil node", name)
	}
	if _, ok := s.fields.Get(name); !ok {
		return fmt.Errorf("schema: %w: unknown %q", ErrInvalidFieldName, name)
	}
	if s.walking {
		if _, seen := s.visited[name]; seen {
			return fmt.Errorf("schema: replace %q: field already visited: %w", name, ErrPassActive)
		}
	}
	for _, l := range s.links {
		if l.length == name && n.staticLen() < 0 {
			return fmt.Errorf("schema: replace %q: %w: linked length field needs a static size", name, ErrAmbiguousLength)
		}
	}
	s.fields.Set(name, n)
	s.wireLinks()
	return nil
}

// DeleteField removes the field and any length link wiring touching it.
func (s *Schema) DeleteField(name string) error {
	if s.walking {
		return fmt.Errorf("schema: delete %q: %w", name, ErrPassActive)
	}
	if _, ok := s.fields.Get(name); !ok {
		return fmt.Errorf("schema: %w: unknown %q", ErrInvalidFieldName, name)
	}
	s.unwireLinks()
	keep := s.links[:0]
	for _, l := range s.links {
		if l.data != name && l.length != name {
			keep = append(keep, l)
		}
	}
	s.links = keep
	s.fields.Delete(name)
	s.wireLinks()
	return nil
}

// Field returns the node declared under name.
func (s *Schema) Field(name string) (Node, bool) {
	return s.fields.Get(name)
}

// Names returns the field names in wire order.
func (s *Schema) Names() []string {
	out := make([]string, 0, s.fields.Len())
	for e := s.fields.Front(); e != nil; e = e.Next() {
		out = append(out, e.Key)
	}
	return out
}

// NumFields is the number of declared fields.
func (s *Schema) NumFields() int { return s.fields.Len() }

// Elided reports whether name is hidden from records by a length link.
func (s *Schema) Elided(name string) bool {
	_, ok := s.elided[name]
	return ok
}

// SetCallback installs fn at the given stage of the schema itself. The
// payloads are the record on StagePreEncode and StagePostDecode, and this
// schema's raw byte region on StagePostEncode and StagePreDecode.
func (s *Schema) SetCallback(stage Stage, fn HookFunc, mode HookMode) error {
	return s.hooks.set(stage, fn, mode)
}

// Offset is the byte position of this schema within the current pass.
func (s *Schema) Offset() int { return s.offset }

// Size is the resolved byte length, -1 while unknown.
func (s *Schema) Size() int { return s.resolved }

// SetSize declares the byte length. During a pass it resolves the current
// pass only; outside one it persists as the declared length.
func (s *Schema) SetSize(n int) {
	s.resolved = n
	if !s.inParent && !s.walking {
		s.declared = n
	}
}

// ClearSize forgets the declared length so it is inferred again.
func (s *Schema) ClearSize() {
	s.declared = -1
	s.resolved = -1
}

// ClearOffset resets the advisory offset.
func (s *Schema) ClearOffset() { s.offset = 0 }

// LinkLength binds lengthName to always carry dataName's encoded size. The
// length field must precede its data field and needs a static size so its
// window can be reserved and patched during encode. The link owns the
// length field's pre_encode and post_decode stages and removes lengthName
// from records on both sides. Each field takes part in at most one link.
func (s *Schema) LinkLength(dataName, lengthName string) error {
	if s.walking {
		return fmt.Errorf("schema: link: %w", ErrPassActive)
	}
	if dataName == lengthName {
		return fmt.Errorf("schema: link: %w: %q links itself", ErrInvalidFieldName, dataName)
	}
	if _, ok := s.fields.Get(dataName); !ok {
		return fmt.Errorf("schema: link: %w: unknown data field %q", ErrInvalidFieldName, dataName)
	}
	ln, ok := s.fields.Get(lengthName)
	if !ok {
		return fmt.Errorf("schema: link: %w: unknown length field %q", ErrInvalidFieldName, lengthName)
	}
	for _, l := range s.links {
		for _, used := range []string{l.data, l.length} {
			if used == dataName || used == lengthName {
				return fmt.Errorf("schema: link: %w: %q already takes part in a link", ErrInvalidFieldName, used)
			}
		}
	}
	if s.indexOf(lengthName) > s.indexOf(dataName) {
		return fmt.Errorf("schema: link %q<-%q: length field must precede its data field: %w",
			dataName, lengthName, ErrUnresolvedLength)
	}
	if ln.staticLen() < 0 {
		return fmt.Errorf("schema: link %q<-%q: %w: length field needs a static size",
			dataName, lengthName, ErrAmbiguousLength)
	}
	s.links = append(s.links, lengthLink{data: dataName, length: lengthName})
	s.wireLinks()
	return nil
}

func (s *Schema) indexOf(name string) int {
	i := 0
	for e := s.fields.Front(); e != nil; e = e.Next() {
		if e.Key == name {
			return i
		}
		i++
	}
	return -1
}

func (s *Schema) isLinkData(name string) bool {
	for _, l := range s.links {
		if l.data == name {
			return true
		}
	}
	return false
}

// wireLinks rebuilds the elision and deferral tables and reinstalls the two
// link hooks on every length field, looking the data field up by name at
// fire time so later replacements stay linked.
func (s *Schema) wireLinks() {
	s.elided = make(map[string]struct{}, len(s.links))
	s.deferred = make(map[string]struct{}, len(s.links))
	s.patchAfter = make(map[string][]string, len(s.links))
	for _, l := range s.links {
		ln, ok := s.fields.Get(l.length)
		if !ok {
			continue
		}
		if _, ok := s.fields.Get(l.data); !ok {
			continue
		}
		s.elided[l.length] = struct{}{}
		s.deferred[l.length] = struct{}{}
		s.patchAfter[l.data] = append(s.patchAfter[l.data], l.length)

		dataName, lengthName := l.data, l.length
		ln.SetCallback(StagePreEncode, func(any) (any, error) {
			dn, ok := s.fields.Get(dataName)
			if !ok {
				return nil, fmt.Errorf("link: %w: data field %q", ErrInvalidFieldName, dataName)
			}
			sz := dn.resolvedLen()
			if sz < 0 {
				return nil, fmt.Errorf("link: data field %q size unknown: %w", dataName, ErrUnresolvedLength)
			}
			return uint64(sz), nil
		}, Replace)
		ln.SetCallback(StagePostDecode, func(v any) (any, error) {
			dn, ok := s.fields.Get(dataName)
			if !ok {
				return nil, fmt.Errorf("link: %w: data field %q", ErrInvalidFieldName, dataName)
			}
			u, ok := common.AsUint64(v)
			if !ok {
				return nil, fmt.Errorf("link: %w: length field %q decoded to %T, want an integer", ErrDecode, lengthName, v)
			}
			if u > math.MaxInt {
				return nil, fmt.Errorf("link: %w: length %d out of range", ErrDecode, u)
			}
			dn.setResolvedLen(int(u))
			return nil, nil
		}, PassThrough)
	}
}

// unwireLinks clears the hook stages the links own.
func (s *Schema) unwireLinks() {
	for _, l := range s.links {
		if ln, ok := s.fields.Get(l.length); ok {
			ln.SetCallback(StagePreEncode, nil, PassThrough)
			ln.SetCallback(StagePostDecode, nil, PassThrough)
		}
	}
}

// Pack encodes rec into a fresh buffer.
func (s *Schema) Pack(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("pack: %w: nil record", ErrEncode)
	}
	ps := &passState{buf: &wbuf{}}
	s.offset = 0
	if err := s.packValue(ps, rec, true); err != nil {
		return nil, err
	}
	return ps.buf.bytes(), nil
}

// Unpack decodes data into a fresh record, consuming the entire input.
func (s *Schema) Unpack(data []byte) (*Record, error) {
	ps := &passState{src: data}
	s.offset = 0
	v, err := s.decodeWindow(ps, len(data), true)
	if err != nil {
		return nil, err
	}
	rec, ok := v.(*Record)
	if !ok {
		return nil, fmt.Errorf("unpack: %w: post_decode hook returned %T, want *Record", ErrDecode, v)
	}
	return rec, nil
}

// Encode satisfies Codec. v must be a *Record or a map[string]any.
func (s *Schema) Encode(v any) ([]byte, error) {
	rec, err := asRecord(v)
	if err != nil {
		return nil, err
	}
	return s.Pack(rec)
}

// Decode satisfies Codec and behaves as Unpack.
func (s *Schema) Decode(data []byte) (any, error) {
	rec, err := s.Unpack(data)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Length is the summed static size of all fields, -1 if any is variable.
func (s *Schema) Length() int { return s.staticLen() }

// Node implementation.

func (s *Schema) staticLen() int {
	total := 0
	for e := s.fields.Front(); e != nil; e = e.Next() {
		st := e.Value.staticLen()
		if st < 0 {
			return -1
		}
		total += st
	}
	return total
}

func (s *Schema) declaredLen() int { return s.declared }

func (s *Schema) resolvedLen() int { return s.resolved }

func (s *Schema) setOffset(off int) { s.offset = off }

func (s *Schema) setResolvedLen(n int) { s.resolved = n }

func (s *Schema) resetPass() {
	s.resolved = s.declared
	s.inParent = true
}

func (s *Schema) finishPass() { s.inParent = false }

// beginPass marks the walk active, resets per-pass child state and runs the
// ambiguity prescan. endPass must follow once it succeeds.
func (s *Schema) beginPass() error {
	if s.walking {
		return fmt.Errorf("schema: %w", ErrPassActive)
	}
	s.walking = true
	s.visited = make(map[string]struct{}, s.fields.Len())
	for e := s.fields.Front(); e != nil; e = e.Next() {
		e.Value.resetPass()
	}
	if err := s.prescan(); err != nil {
		s.endPass()
		return err
	}
	return nil
}

func (s *Schema) endPass() {
	for e := s.fields.Front(); e != nil; e = e.Next() {
		e.Value.finishPass()
	}
	s.visited = nil
	s.walking = false
}

// prescan rejects layouts with more than one field of unresolvable length
// before any byte is produced or consumed, and flags the single survivor as
// the remainder candidate.
func (s *Schema) prescan() error {
	var unresolved []string
	for e := s.fields.Front(); e != nil; e = e.Next() {
		name, n := e.Key, e.Value
		if s.isLinkData(name) {
			continue // resolved at runtime by its length field
		}
		if n.staticLen() >= 0 || n.resolvedLen() >= 0 {
			continue
		}
		if sub, ok := n.(*Schema); ok && sub.selfDelimiting() {
			continue // finds its own extent while walking
		}
		unresolved = append(unresolved, name)
	}
	s.remainder = ""
	switch len(unresolved) {
	case 0:
	case 1:
		s.remainder = unresolved[0]
	default:
		return fmt.Errorf("schema: fields %s: %w", strings.Join(unresolved, ", "), ErrAmbiguousLength)
	}
	return nil
}

// selfDelimiting reports whether the schema resolves its own extent while
// walking: every variable child is link data, carries a declared size or is
// again a self-delimiting schema. Such a node needs no remainder window from
// its parent. Only durable declarations count here; per-pass resolutions of
// grandchildren are not reset by the parent's pass.
func (s *Schema) selfDelimiting() bool {
	for e := s.fields.Front(); e != nil; e = e.Next() {
		name, n := e.Key, e.Value
		if n.staticLen() >= 0 || n.declaredLen() >= 0 {
			continue
		}
		if s.isLinkData(name) {
			continue
		}
		if sub, ok := n.(*Schema); ok && sub.selfDelimiting() {
			continue
		}
		return false
	}
	return true
}

func (s *Schema) packValue(ps *passState, v any, have bool) error {
	if !have {
		v = nil
	}
	v, _, err := s.hooks.fire(StagePreEncode, v)
	if err != nil {
		return err
	}
	rec, err := asRecord(v)
	if err != nil {
		return err
	}
	if err := s.beginPass(); err != nil {
		return err
	}
	defer s.endPass()
	if !s.inParent {
		s.resolved = s.declared
	}
	want := s.resolved

	start := s.offset
	cursor := s.offset
	tracer.Trace().Int("offset", start).Int("fields", s.fields.Len()).Msg("pack schema")
	for e := s.fields.Front(); e != nil; e = e.Next() {
		name, n := e.Key, e.Value
		s.visited[name] = struct{}{}
		n.setOffset(cursor)
		if _, def := s.deferred[name]; def {
			// reserve the window now, patch after the data field packs
			w := n.staticLen()
			if w < 0 {
				return fmt.Errorf("pack %q: %w: length field needs a static size", name, ErrAmbiguousLength)
			}
			ps.buf.reserve(cursor, w)
			n.setResolvedLen(w)
		} else {
			val, ok := rec.Get(name)
			if err := n.packValue(ps, val, ok); err != nil {
				return fmt.Errorf("pack %q: %w", name, err)
			}
		}
		sz := n.resolvedLen()
		if sz < 0 {
			return fmt.Errorf("pack %q: %w", name, ErrUnresolvedLength)
		}
		tracer.Trace().Str("field", name).Int("offset", n.Offset()).Int("size", sz).Msg("pack field")
		cursor += sz
		if err := s.patchDeferred(ps, name); err != nil {
			return err
		}
	}
	s.resolved = cursor - start

	if s.hooks.active(StagePostEncode) {
		region := ps.buf.bytes()[start:cursor]
		out, replaced, err := s.hooks.fire(StagePostEncode, region)
		if err != nil {
			return err
		}
		if replaced {
			b, ok := out.([]byte)
			if !ok {
				return fmt.Errorf("%w: post_encode hook returned %T, want []byte", ErrEncode, out)
			}
			// nothing after this region is written yet, so the tail is ours
			ps.buf.truncate(start)
			ps.buf.append(b)
			s.resolved = len(b)
		}
	}
	if want >= 0 && want != s.resolved {
		return fmt.Errorf("schema: %w: declared size %d, actual %d", ErrAmbiguousLength, want, s.resolved)
	}
	return nil
}

// patchDeferred re-encodes length fields whose reserved windows wait on
// dataName, now that its size is known. The link's pre_encode hook supplies
// the value.
func (s *Schema) patchDeferred(ps *passState, dataName string) error {
	for _, lname := range s.patchAfter[dataName] {
		ln, ok := s.fields.Get(lname)
		if !ok {
			continue
		}
		if err := ln.packValue(ps, nil, false); err != nil {
			return fmt.Errorf("pack %q: %w", lname, err)
		}
		tracer.Trace().Str("field", lname).Int("offset", ln.Offset()).Int("size", ln.resolvedLen()).Msg("patch length")
	}
	return nil
}

func (s *Schema) unpackWindow(ps *passState, bound int) (any, error) {
	return s.decodeWindow(ps, bound, false)
}

func (s *Schema) decodeWindow(ps *passState, bound int, top bool) (any, error) {
	if bound > len(ps.src) || s.offset > bound {
		return nil, fmt.Errorf("%w: window [%d:%d) outside %d input bytes", ErrDecode, s.offset, bound, len(ps.src))
	}
	if s.hooks.active(StagePreDecode) {
		raw := ps.src[s.offset:bound]
		out, replaced, err := s.hooks.fire(StagePreDecode, raw)
		if err != nil {
			return nil, err
		}
		if replaced {
			b, ok := out.([]byte)
			if !ok {
				return nil, fmt.Errorf("%w: pre_decode hook returned %T, want []byte", ErrDecode, out)
			}
			// decode the substituted bytes standalone; on the wire the
			// schema still consumes its whole window
			sub := &passState{src: b}
			saved := s.offset
			s.offset = 0
			val, err := s.walkDecode(sub, len(b), true)
			s.offset = saved
			if err != nil {
				return nil, err
			}
			s.resolved = bound - saved
			return val, nil
		}
	}
	return s.walkDecode(ps, bound, top)
}

func (s *Schema) walkDecode(ps *passState, bound int, top bool) (any, error) {
	if err := s.beginPass(); err != nil {
		return nil, err
	}
	defer s.endPass()
	if !s.inParent {
		s.resolved = s.declared
	}
	want := s.resolved

	rec := NewRecord()
	start := s.offset
	cursor := s.offset
	tracer.Trace().Int("offset", start).Int("fields", s.fields.Len()).Msg("unpack schema")
	for e := s.fields.Front(); e != nil; e = e.Next() {
		name, n := e.Key, e.Value
		s.visited[name] = struct{}{}
		n.setOffset(cursor)
		cb, err := s.childBound(n, name, cursor, bound)
		if err != nil {
			return nil, fmt.Errorf("unpack %q: %w", name, err)
		}
		val, err := n.unpackWindow(ps, cb)
		if err != nil {
			return nil, fmt.Errorf("unpack %q: %w", name, err)
		}
		sz := n.resolvedLen()
		tracer.Trace().Str("field", name).Int("offset", n.Offset()).Int("size", sz).Msg("unpack field")
		cursor += sz
		if _, hidden := s.elided[name]; !hidden {
			rec.Set(name, val)
		}
	}
	s.resolved = cursor - start
	if want >= 0 && want != s.resolved {
		return nil, fmt.Errorf("schema: %w: declared size %d, actual %d", ErrAmbiguousLength, want, s.resolved)
	}
	if top && cursor != len(ps.src) {
		return nil, fmt.Errorf("unpack: %w: %d trailing bytes", ErrDecode, len(ps.src)-cursor)
	}
	out, _, err := s.hooks.fire(StagePostDecode, rec)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// childBound resolves how far the walk may read for one field: static or
// declared size when known (disagreement is fatal), an open window for a
// self-delimiting sub-schema, else the remainder of the window minus what
// later siblings still need.
func (s *Schema) childBound(n Node, name string, cursor, bound int) (int, error) {
	st := n.staticLen()
	res := n.resolvedLen()
	if st >= 0 && res >= 0 && st != res {
		return 0, fmt.Errorf("%w: static size %d, declared %d", ErrAmbiguousLength, st, res)
	}
	sz := st
	if sz < 0 {
		sz = res
	}
	if sz >= 0 {
		end := cursor + sz
		if end > bound {
			return 0, fmt.Errorf("%w: need %d bytes, %d available", ErrDecode, sz, bound-cursor)
		}
		return end, nil
	}
	if sub, ok := n.(*Schema); ok && sub.selfDelimiting() {
		reserve := s.knownTail(name)
		end := bound - reserve
		if end < cursor {
			return 0, fmt.Errorf("%w: %d bytes reserved for later fields, only %d available", ErrDecode, reserve, bound-cursor)
		}
		return end, nil
	}
	if name != s.remainder {
		return 0, ErrUnresolvedLength
	}
	reserve, err := s.tailReserve(name)
	if err != nil {
		return 0, err
	}
	end := bound - reserve
	if end < cursor {
		return 0, fmt.Errorf("%w: %d bytes reserved for later fields, only %d available", ErrDecode, reserve, bound-cursor)
	}
	return end, nil
}

// knownTail sums the sizes already known for the fields after name. Unknown
// siblings count zero; a self-delimiting child stops on its own.
func (s *Schema) knownTail(after string) int {
	total := 0
	seen := false
	for e := s.fields.Front(); e != nil; e = e.Next() {
		if !seen {
			if e.Key == after {
				seen = true
			}
			continue
		}
		sz := e.Value.staticLen()
		if sz < 0 {
			sz = e.Value.resolvedLen()
		}
		if sz > 0 {
			total += sz
		}
	}
	return total
}

// tailReserve sums the sizes of the fields after the remainder field. Every
// one of them must be sized by now or the layout cannot be cut.
func (s *Schema) tailReserve(after string) (int, error) {
	total := 0
	seen := false
	for e := s.fields.Front(); e != nil; e = e.Next() {
		if !seen {
			if e.Key == after {
				seen = true
			}
			continue
		}
		sz := e.Value.staticLen()
		if sz < 0 {
			sz = e.Value.resolvedLen()
		}
		if sz < 0 {
			return 0, fmt.Errorf("field %q after the remainder field: %w", e.Key, ErrAmbiguousLength)
		}
		total += sz
	}
	return total, nil
}

func asRecord(v any) (*Record, error) {
	switch t := v.(type) {
	case *Record:
		if t == nil {
			return nil, fmt.Errorf("pack: %w: nil record", ErrEncode)
		}
		return t, nil
	case map[string]any:
		rec := NewRecord()
		for k, val := range t {
			rec.Set(k, val)
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("pack: %w: want *Record or map[string]any, got %T", ErrEncode, v)
	}
}
