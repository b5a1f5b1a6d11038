package parserbuilder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/hooks"
	"github.com/binpac-dev/corepac/internal/layout"
	"github.com/binpac-dev/corepac/internal/parserbuilder"
	"github.com/binpac-dev/corepac/ir"
)

// harness bundles one compilation's Interp/TypeLayout/hook registry, and
// runs a unit's parse function against frozen input in one call.
type harness struct {
	ip  *ir.Interp
	tl  *layout.TypeLayout
	hr  *hooks.Registry
	pb  *parserbuilder.Builder
	seq int
}

func newHarness() *harness {
	ip := ir.NewInterp()
	tl := layout.New(ip)
	hr := hooks.NewRegistry()
	return &harness{ip: ip, tl: tl, hr: hr, pb: parserbuilder.New(ip, tl, hr)}
}

func (h *harness) parse(t *testing.T, u *ast.Unit, data []byte, frozen bool) (*ir.Object, error) {
	t.Helper()
	hooks.RegisterUnit(h.hr, u, false)
	fn := h.pb.Build(u)
	obj := ir.NewObject()
	_, step := h.ip.Start(fn, []ir.Value{ir.ObjectValue(obj)}, ir.RunOptions{
		Hooks:  h.hr,
		Data:   data,
		Frozen: frozen,
	})
	require.True(t, step.Done, "expected the fiber to finish without yielding")
	return obj, step.Err
}

func scalarField(id string, width int) *ast.Field {
	return &ast.Field{ID: id, Type: &ast.ScalarType{Width: width}}
}

// withBlock runs fn against a real [ir.Block] backed by an otherwise-empty
// frozen fiber, for post-parse inspection calls (Get/IsSet/BitRange) that
// need a Block but do not touch the byte stream.
func (h *harness) withBlock(t *testing.T, fn func(blk ir.Block)) {
	t.Helper()
	h.seq++
	name := "inspect_" + t.Name() + "_" + string(rune('a'+h.seq%26)) + string(rune('0'+h.seq/26))
	f := h.ip.DeclareFunc(name)
	h.ip.DefineFunc(f, func(blk ir.Block, args []ir.Value) ([]ir.Value, error) {
		fn(blk)
		return nil, nil
	})
	_, step := h.ip.Start(f, nil, ir.RunOptions{Frozen: true})
	require.True(t, step.Done)
}

func (h *harness) get(t *testing.T, u *ast.Unit, obj *ir.Object, f *ast.Field) (ir.Value, bool) {
	t.Helper()
	var v ir.Value
	var ok bool
	h.withBlock(t, func(blk ir.Block) {
		var err error
		v, err = h.tl.Get(blk, u, obj, f)
		ok = err == nil
	})
	return v, ok
}

func (h *harness) isSet(t *testing.T, u *ast.Unit, obj *ir.Object, f *ast.Field) bool {
	t.Helper()
	var got bool
	h.withBlock(t, func(blk ir.Block) {
		got = h.tl.IsSet(blk, u, obj, f)
	})
	return got
}

func (h *harness) bitRange(t *testing.T, obj *ir.Object, fieldID, rangeName string) (ir.Value, bool) {
	t.Helper()
	var v ir.Value
	var ok bool
	h.withBlock(t, func(blk ir.Block) {
		v, ok = h.pb.BitRange(blk, obj, fieldID, rangeName)
	})
	return v, ok
}

// Scenario 1: a unit with two fixed-width integer fields parses each in
// sequence and stores both.
func TestParseFixedIntegers(t *testing.T) {
	t.Parallel()

	tag := scalarField("tag", 8)
	length := scalarField("length", 16)
	u := &ast.Unit{Name: "Header", Items: []ast.Item{tag, length}}
	u.Grammar = &ast.Grammar{Unit: u, Root: &ast.Sequence{Items: []ast.Production{
		&ast.Variable{M: ast.Meta{Field: tag}, Type: tag.Type},
		&ast.Variable{M: ast.Meta{Field: length}, Type: length.Type},
	}}}

	h := newHarness()
	obj, err := h.parse(t, u, []byte{0x07, 0x01, 0x02}, true)
	require.NoError(t, err)

	v, ok := h.get(t, u, obj, tag)
	require.True(t, ok)
	assert.Equal(t, int64(7), v.Int())

	v, ok = h.get(t, u, obj, length)
	require.True(t, ok)
	assert.Equal(t, int64(0x0102), v.Int())
}

// Scenario 4: a Switch with no matching case and no default raises a
// parse error rather than silently succeeding.
func TestSwitchNoMatchingCaseErrors(t *testing.T) {
	t.Parallel()

	tag := scalarField("tag", 8)
	payload := scalarField("payload", 8)
	u := &ast.Unit{Name: "Tagged", Items: []ast.Item{tag, payload}}
	sw := &ast.Switch{
		Expr: ast.FieldRef("tag"),
		Cases: []ast.SwitchCase{
			{Values: []any{int64(1)}, Body: &ast.Variable{M: ast.Meta{Field: payload}, Type: payload.Type}},
		},
	}
	u.Grammar = &ast.Grammar{Unit: u, Root: &ast.Sequence{Items: []ast.Production{
		&ast.Variable{M: ast.Meta{Field: tag}, Type: tag.Type},
		sw,
	}}}

	h := newHarness()
	_, err := h.parse(t, u, []byte{0x09, 0xFF}, true)
	require.Error(t, err)
	var pe *ir.ParseError
	assert.ErrorAs(t, err, &pe)
}

// Scenario 4 (continued): a matching case parses its body into the shared
// struct storage.
func TestSwitchMatchingCaseStoresField(t *testing.T) {
	t.Parallel()

	tag := scalarField("tag", 8)
	payload := scalarField("payload", 8)
	u := &ast.Unit{Name: "Tagged2", Items: []ast.Item{tag, payload}}
	sw := &ast.Switch{
		Expr: ast.FieldRef("tag"),
		Cases: []ast.SwitchCase{
			{Values: []any{int64(9)}, Body: &ast.Variable{M: ast.Meta{Field: payload}, Type: payload.Type}},
		},
	}
	u.Grammar = &ast.Grammar{Unit: u, Root: &ast.Sequence{Items: []ast.Production{
		&ast.Variable{M: ast.Meta{Field: tag}, Type: tag.Type},
		sw,
	}}}

	h := newHarness()
	obj, err := h.parse(t, u, []byte{0x09, 0x2A}, true)
	require.NoError(t, err)

	v, ok := h.get(t, u, obj, payload)
	require.True(t, ok)
	assert.Equal(t, int64(0x2A), v.Int())
}

// Scenario 6: a bitfield's named ranges are extracted and independently
// retrievable.
func TestBitfieldNamedRanges(t *testing.T) {
	t.Parallel()

	flags := &ast.Field{
		ID: "flags",
		Type: &ast.BitfieldType{
			Width: 8,
			Fields: []ast.BitRange{
				{Name: "hi", Lo: 4, Hi: 7},
				{Name: "lo", Lo: 0, Hi: 3},
			},
		},
	}
	u := &ast.Unit{Name: "Flags", Items: []ast.Item{flags}}
	u.Grammar = &ast.Grammar{Unit: u, Root: &ast.Variable{M: ast.Meta{Field: flags}, Type: flags.Type}}

	h := newHarness()
	// 0xA5 = 1010_0101: hi nibble 0xA, lo nibble 0x5.
	obj, err := h.parse(t, u, []byte{0xA5}, true)
	require.NoError(t, err)

	hi, ok := h.bitRange(t, obj, "flags", "hi")
	require.True(t, ok)
	assert.Equal(t, int64(0xA), hi.Int())

	lo, ok := h.bitRange(t, obj, "flags", "lo")
	require.True(t, ok)
	assert.Equal(t, int64(0x5), lo.Int())
}

// A Counter field accumulates each parsed element into a container and
// stops early when its foreach hook signals stop (the &until pattern).
func TestCounterForeachStop(t *testing.T) {
	t.Parallel()

	elem := &ast.Field{ID: "elem", Type: &ast.ScalarType{Width: 8}}
	items := &ast.Field{
		ID:   "items",
		Type: &ast.ContainerType{Elem: elem.Type},
		Hooks: []*ast.Hook{{
			Item:    "items",
			Foreach: true,
			Impl: func(ctx ast.HookContext) (bool, error) {
				return ctx.Element.(int64) == 3, nil
			},
		}},
	}
	u := &ast.Unit{Name: "Counted", Items: []ast.Item{items}}
	counter := &ast.Counter{
		M:    ast.Meta{Field: items},
		N:    ast.IntLiteral(5),
		Body: &ast.Variable{M: ast.Meta{Field: items}, Type: elem.Type},
	}
	u.Grammar = &ast.Grammar{Unit: u, Root: counter}

	h := newHarness()
	obj, err := h.parse(t, u, []byte{1, 2, 3, 4, 5}, true)
	require.NoError(t, err)

	v, ok := h.get(t, u, obj, items)
	require.True(t, ok)
	var got []int64
	for _, e := range v.List() {
		got = append(got, e.Int())
	}
	assert.Equal(t, []int64{1, 2, 3}, got)
}

// A Loop with EODOk consumes every remaining byte as a separate element.
func TestLoopEODOkConsumesRemainder(t *testing.T) {
	t.Parallel()

	elem := &ast.Field{ID: "elem", Type: &ast.ScalarType{Width: 8}}
	items := &ast.Field{ID: "items", Type: &ast.ContainerType{Elem: elem.Type}}
	u := &ast.Unit{Name: "Looped", Items: []ast.Item{items}}
	loop := &ast.Loop{
		M:     ast.Meta{Field: items},
		Body:  &ast.Variable{M: ast.Meta{Field: items}, Type: elem.Type},
		EODOk: true,
	}
	u.Grammar = &ast.Grammar{Unit: u, Root: loop}

	h := newHarness()
	obj, err := h.parse(t, u, []byte{9, 8, 7}, true)
	require.NoError(t, err)

	v, ok := h.get(t, u, obj, items)
	require.True(t, ok)
	var got []int64
	for _, e := range v.List() {
		got = append(got, e.Int())
	}
	assert.Equal(t, []int64{9, 8, 7}, got)
}

// A field's &try attribute swallows a failed parse and restores position.
func TestFieldTryBacktracksOnFailure(t *testing.T) {
	t.Parallel()

	want := &ast.Field{ID: "want", Type: &ast.BytesType{}, Attrs: ast.Attributes{
		Try:    true,
		Length: ast.IntLiteral(4), // longer than the available input
	}}
	fallback := scalarField("fallback", 8)
	u := &ast.Unit{Name: "Tried", Items: []ast.Item{want, fallback}}
	u.Grammar = &ast.Grammar{Unit: u, Root: &ast.Sequence{Items: []ast.Production{
		&ast.Variable{M: ast.Meta{Field: want}, Type: want.Type},
		&ast.Variable{M: ast.Meta{Field: fallback}, Type: fallback.Type},
	}}}

	h := newHarness()
	obj, err := h.parse(t, u, []byte{0x42}, true)
	require.NoError(t, err)

	assert.False(t, h.isSet(t, u, obj, want))
	v, ok := h.get(t, u, obj, fallback)
	require.True(t, ok)
	assert.Equal(t, int64(0x42), v.Int())
}
