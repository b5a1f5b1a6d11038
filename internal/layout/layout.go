// Package layout implements TypeLayout (§4.1): it maps source types to IR
// struct/union storage shapes and maintains the bidirectional field-path
// resolver that lets the rest of the core address a parse-object slot by
// (unit, field) rather than by hand-rolled index arithmetic.
package layout

import (
	"fmt"
	"strings"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/tracelog"
	"github.com/binpac-dev/corepac/ir"
)

// reservedPrefix marks internally synthesized slots (the default-storage
// fallback slot, switch union slots, hidden parameter/span slots) so the
// host-visible type-info can skip them. Only these synthesized names are
// built with the prefix; user field and variable identifiers become slot
// names unchanged and are not checked against it, so a user identifier that
// starts with the prefix is neither rejected nor renamed.
const reservedPrefix = "__binpac_"

func defaultSlotName(fieldID string) string { return reservedPrefix + "default_" + fieldID }
func unionSlotName(fieldID string) string   { return reservedPrefix + "switch_" + fieldID }

// Builder is the subset of [ir.Builder] TypeLayout needs, declared locally
// so this package doesn't import the whole interface just to narrow it at
// call sites — mirrors the teacher's habit of accepting the smallest
// interface a component actually uses.
type Builder interface {
	DeclareStruct(name string) *ir.StructType
	DefineStruct(t *ir.StructType, fields []ir.Field)
	DeclareUnion(name string) *ir.UnionType
	DefineUnion(t *ir.UnionType, cases []ir.Field)
}

// TypeLayout maps units to IR struct types and resolves field paths within
// them. One TypeLayout is shared by a single compilation, matching the
// per-compilation `unit-name -> parse-object type` cache from §3.
type TypeLayout struct {
	b Builder

	types  map[*ast.Unit]*ir.StructType
	unions map[*ast.Unit]map[string]*ir.UnionType // switch field id -> union type
	paths  map[*ast.Unit]map[string][]string
}

// New returns a TypeLayout that emits struct/union declarations through b.
func New(b Builder) *TypeLayout {
	return &TypeLayout{
		b:      b,
		types:  map[*ast.Unit]*ir.StructType{},
		unions: map[*ast.Unit]map[string]*ir.UnionType{},
		paths:  map[*ast.Unit]map[string][]string{},
	}
}

// LayoutOf returns unit's parse-object struct type, declaring and
// populating it on first use. Per §4.1, the same unit always yields the
// same type identity within a compilation: the struct is declared (a
// forward reference, breaking grammar cycles per §9) before its fields are
// computed, and the same *ir.StructType pointer is returned on every call.
func (t *TypeLayout) LayoutOf(u *ast.Unit) *ir.StructType {
	if st, ok := t.types[u]; ok {
		return st
	}

	st := t.b.DeclareStruct(u.Name)
	t.types[u] = st
	paths := map[string][]string{}
	t.paths[u] = paths

	switches := switchesByField(u)

	var fields []ir.Field
	for _, f := range u.Fields() {
		if f.Transient {
			continue
		}
		if sw, ok := switches[f.ID]; ok {
			fields = append(fields, t.layoutSwitch(u, f, sw)...)
			continue
		}
		paths[f.ID] = []string{f.ID}
		fields = append(fields, ir.Field{Name: f.ID, Type: irType(f.Type)})
		if f.Attrs.HasDefault() {
			fields = append(fields, ir.Field{Name: defaultSlotName(f.ID), Type: irType(f.Type)})
		}
	}
	for _, it := range u.Items {
		if v, ok := it.(*ast.VarDecl); ok {
			paths[v.ID] = []string{v.ID}
			fields = append(fields, ir.Field{Name: v.ID, Type: irType(v.Type)})
		}
	}
	if u.Buffering {
		fields = append(fields,
			ir.Field{Name: reservedPrefix + "span_start", Type: ir.ScalarType{Bits: 64, Signed: true}},
			ir.Field{Name: reservedPrefix + "span_end", Type: ir.ScalarType{Bits: 64, Signed: true}},
		)
	}
	if u.Exported {
		fields = append(fields,
			ir.Field{Name: reservedPrefix + "descriptor", Type: ir.ScalarType{Bits: 64}},
			ir.Field{Name: reservedPrefix + "sink", Type: ir.SinkType{}},
			ir.Field{Name: reservedPrefix + "mimetype", Type: ir.BytesType{}},
			ir.Field{Name: reservedPrefix + "filter_head", Type: ir.ScalarType{Bits: 64}},
		)
	}
	for _, p := range u.Params {
		name := reservedPrefix + "param_" + p.Name
		fields = append(fields, ir.Field{Name: name, Type: irType(p.Type)})
		paths[name] = []string{name}
	}

	t.b.DefineStruct(st, fields)
	tracelog.Log(nil, "layoutOf", "%s: %d fields", u.Name, len(fields))
	return st
}

// layoutSwitch declares the union type for a switch field and records the
// field path of every item nested in each of its cases, per §3's storage
// rule: a single-item case stores directly as a union arm; a multi-item
// case stores as a nested struct referenced from the arm.
func (t *TypeLayout) layoutSwitch(u *ast.Unit, switchField *ast.Field, sw *ast.Switch) []ir.Field {
	slot := unionSlotName(switchField.ID)
	ut := t.b.DeclareUnion(slot)

	if t.unions[u] == nil {
		t.unions[u] = map[string]*ir.UnionType{}
	}
	t.unions[u][switchField.ID] = ut

	paths := t.paths[u]
	var cases []ir.Field
	for _, c := range sw.Cases {
		tag := caseTag(c.Values)
		items := caseItems(c.Body)

		switch len(items) {
		case 0:
			continue
		case 1:
			paths[items[0].ID] = []string{slot, tag}
			cases = append(cases, ir.Field{Name: tag, Type: irType(items[0].Type)})
		default:
			nested := make([]ir.Field, len(items))
			for i, it := range items {
				paths[it.ID] = []string{slot, tag, it.ID}
				nested[i] = ir.Field{Name: it.ID, Type: irType(it.Type)}
			}
			cases = append(cases, ir.Field{Name: tag, Type: &ir.StructType{Name: slot + "_" + tag, Fields: nested}})
		}
	}
	t.b.DefineUnion(ut, cases)

	out := []ir.Field{{Name: slot, Type: ut}}
	if switchField.Attrs.HasDefault() {
		out = append(out, ir.Field{Name: defaultSlotName(switchField.ID), Type: irType(switchField.Type)})
	}
	return out
}

// switchesByField walks a unit's grammar collecting the [ast.Switch]
// production attached to each switch field, keyed by the field's id.
func switchesByField(u *ast.Unit) map[string]*ast.Switch {
	out := map[string]*ast.Switch{}
	if u.Grammar == nil {
		return out
	}
	var walk func(ast.Production)
	walk = func(p ast.Production) {
		switch p := p.(type) {
		case *ast.Switch:
			if f := p.M.Field; f != nil {
				out[f.ID] = p
			}
			for _, c := range p.Cases {
				walk(c.Body)
			}
			if p.Default != nil {
				walk(p.Default)
			}
		case *ast.Sequence:
			for _, c := range p.Items {
				walk(c)
			}
		case *ast.Loop:
			walk(p.Body)
		case *ast.Counter:
			walk(p.Body)
		case *ast.ByteBlock:
			walk(p.Body)
		case *ast.Enclosure:
			walk(p.Child)
		}
	}
	walk(u.Grammar.Root)
	return out
}

// caseItems extracts the fields directly produced by a switch case's body.
func caseItems(p ast.Production) []*ast.Field {
	switch p := p.(type) {
	case *ast.Sequence:
		var out []*ast.Field
		for _, c := range p.Items {
			out = append(out, caseItems(c)...)
		}
		return out
	default:
		if f := p.Meta().Field; f != nil {
			return []*ast.Field{f}
		}
		return nil
	}
}

func caseTag(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "_")
}

// PathOf returns the constant index sequence (as IR struct-path segments)
// for (unit, field-id), per §4.1's path operation. It panics if field was
// never laid out, which would indicate a codegen-ordering bug (callers
// always call LayoutOf first).
func (t *TypeLayout) PathOf(u *ast.Unit, fieldID string) []string {
	t.LayoutOf(u)
	p, ok := t.paths[u][fieldID]
	if !ok {
		panic("layout: no path for " + u.Name + "." + fieldID)
	}
	return append([]string(nil), p...)
}

// DefaultPathOf returns the reserved fallback-slot path for a field
// declared with &default, used when [TypeLayout.Get] falls through to it.
func (t *TypeLayout) DefaultPathOf(fieldID string) []string {
	return []string{defaultSlotName(fieldID)}
}

// ParamPath returns the hidden slot path for unit parameter name, per §3's
// "one hidden slot per formal parameter" storage rule.
func (t *TypeLayout) ParamPath(name string) []string {
	return []string{reservedPrefix + "param_" + name}
}

// SpanPaths returns the hidden span_start/span_end slot paths reserved for
// a buffering unit's original input span.
func (t *TypeLayout) SpanPaths() (start, end []string) {
	return []string{reservedPrefix + "span_start"}, []string{reservedPrefix + "span_end"}
}

// BitRangePath returns the reserved storage path for one named bit range
// of a bitfield field, per §4.4 "Bit fields". These are derived values —
// extracted from the field's own raw word rather than unpacked from the
// wire — so they are not struct-typed fields in [TypeLayout.LayoutOf]'s
// declared shape; they live under the reserved prefix, which already
// marks them removable from host-visible type-info per §4.1's invariant.
func (t *TypeLayout) BitRangePath(fieldID, rangeName string) []string {
	return []string{reservedPrefix + "bits_" + fieldID, rangeName}
}

// Get emits the struct-get (and, for switch fields, union-get) sequence
// for (pobj, field), honoring the &default fallback rule: a read of an
// unset slot whose field declares &default returns the default slot's
// value instead of failing.
func (t *TypeLayout) Get(blk ir.Block, u *ast.Unit, obj *ir.Object, f *ast.Field) (ir.Value, error) {
	if f.Transient {
		return zeroValue(f.Type), nil
	}
	path := t.PathOf(u, f.ID)
	if v, ok := blk.Get(obj, path); ok {
		return v, nil
	}
	if f.Attrs.HasDefault() {
		if v, ok := blk.Get(obj, t.DefaultPathOf(f.ID)); ok {
			return v, nil
		}
	}
	return ir.Nil, &ir.UndefinedValueError{Field: f.ID}
}

// Set emits the inverse of [TypeLayout.Get], lazily materializing the
// union arm and, for multi-item cases, the nested struct (handled by
// [ir.Object.Set] itself, since path segments beyond the first are
// created on demand).
func (t *TypeLayout) Set(blk ir.Block, u *ast.Unit, obj *ir.Object, f *ast.Field, val ir.Value) {
	if f.Transient {
		return
	}
	blk.Set(obj, t.PathOf(u, f.ID), val)
}

// IsSet checks the bitmask (or union discriminant) for (pobj, field).
func (t *TypeLayout) IsSet(blk ir.Block, u *ast.Unit, obj *ir.Object, f *ast.Field) bool {
	if f.Transient {
		return false
	}
	return blk.IsSet(obj, t.PathOf(u, f.ID))
}

// Unset clears (pobj, field) and releases its slot.
func (t *TypeLayout) Unset(blk ir.Block, u *ast.Unit, obj *ir.Object, f *ast.Field) {
	if f.Transient {
		return
	}
	blk.Unset(obj, t.PathOf(u, f.ID))
}

// PresetDefault pre-populates a &default field's reserved fallback slot.
// Must run before parsing starts, per §4.1's invariant.
func (t *TypeLayout) PresetDefault(blk ir.Block, obj *ir.Object, f *ast.Field, scope ast.Scope) error {
	if !f.Attrs.HasDefault() {
		return nil
	}
	v, err := f.Attrs.Default.Eval(scope)
	if err != nil {
		return err
	}
	blk.Set(obj, t.DefaultPathOf(f.ID), toIRValue(v))
	return nil
}

func irType(t ast.Type) ir.Type {
	switch t := t.(type) {
	case *ast.ScalarType:
		return ir.ScalarType{Bits: t.Width, Signed: t.Signed}
	case *ast.BytesType:
		return ir.BytesType{}
	case *ast.BitfieldType:
		return ir.ScalarType{Bits: t.Width}
	case *ast.UnitRefType:
		return ir.ScalarType{Bits: 64} // opaque reference; real shape owned by the sub-unit's own struct
	case *ast.SinkType:
		return ir.SinkType{}
	case *ast.ContainerType:
		return &ir.ContainerType{Elem: irType(t.Elem)}
	case *ast.TupleType:
		fields := make([]ir.Field, len(t.Elems))
		for i, e := range t.Elems {
			fields[i] = ir.Field{Type: irType(e)}
		}
		return &ir.StructType{Fields: fields}
	default:
		return ir.ScalarType{Bits: 64}
	}
}

func zeroValue(t ast.Type) ir.Value {
	switch t.(type) {
	case *ast.BytesType:
		return ir.BytesValue(nil)
	default:
		return ir.IntValue(0)
	}
}

func toIRValue(v any) ir.Value {
	switch v := v.(type) {
	case bool:
		return ir.BoolValue(v)
	case []byte:
		return ir.BytesValue(v)
	case int64:
		return ir.IntValue(v)
	case int:
		return ir.IntValue(int64(v))
	default:
		return ir.Nil
	}
}
