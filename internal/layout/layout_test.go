package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/layout"
	"github.com/binpac-dev/corepac/ir"
)

func simpleUnit() (*ast.Unit, *ast.Field) {
	tagField := &ast.Field{ID: "tag", Type: &ast.ScalarType{Width: 8}}
	u := &ast.Unit{
		Name:  "Simple",
		Items: []ast.Item{tagField},
	}
	u.Grammar = &ast.Grammar{Unit: u, Root: &ast.Variable{M: ast.Meta{Field: tagField}, Type: tagField.Type}}
	return u, tagField
}

func TestLayoutOfIsStableAcrossCalls(t *testing.T) {
	t.Parallel()

	u, _ := simpleUnit()
	tl := layout.New(ir.NewInterp())

	a := tl.LayoutOf(u)
	b := tl.LayoutOf(u)
	assert.Same(t, a, b)
	assert.Equal(t, []string{"tag"}, tl.PathOf(u, "tag"))
}

func TestLayoutOfSkipsTransientFields(t *testing.T) {
	t.Parallel()

	transient := &ast.Field{ID: "skip", Type: &ast.ScalarType{Width: 8}, Transient: true}
	kept := &ast.Field{ID: "keep", Type: &ast.ScalarType{Width: 8}}
	u := &ast.Unit{Name: "T", Items: []ast.Item{transient, kept}}
	u.Grammar = &ast.Grammar{Unit: u, Root: &ast.Sequence{Items: []ast.Production{
		&ast.Variable{M: ast.Meta{Field: transient}, Type: transient.Type},
		&ast.Variable{M: ast.Meta{Field: kept}, Type: kept.Type},
	}}}

	tl := layout.New(ir.NewInterp())
	st := tl.LayoutOf(u)

	var names []string
	for _, f := range st.Fields {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "keep")
	assert.NotContains(t, names, "skip")
}

func runBlock(t *testing.T, ip *ir.Interp, body func(blk ir.Block) error) error {
	t.Helper()
	fn := ip.DeclareFunc(t.Name())
	ip.DefineFunc(fn, func(blk ir.Block, args []ir.Value) ([]ir.Value, error) {
		return nil, body(blk)
	})
	_, step := ip.Start(fn, nil, ir.RunOptions{Frozen: true})
	require.True(t, step.Done)
	return step.Err
}

func TestGetSetIsSetUnsetRoundTrip(t *testing.T) {
	t.Parallel()

	u, tagField := simpleUnit()
	ip := ir.NewInterp()
	tl := layout.New(ip)
	tl.LayoutOf(u)

	obj := ir.NewObject()
	err := runBlock(t, ip, func(blk ir.Block) error {
		assert.False(t, tl.IsSet(blk, u, obj, tagField))
		_, err := tl.Get(blk, u, obj, tagField)
		var undef *ir.UndefinedValueError
		assert.ErrorAs(t, err, &undef)

		tl.Set(blk, u, obj, tagField, ir.IntValue(7))
		assert.True(t, tl.IsSet(blk, u, obj, tagField))
		v, err := tl.Get(blk, u, obj, tagField)
		require.NoError(t, err)
		assert.Equal(t, int64(7), v.Int())

		tl.Unset(blk, u, obj, tagField)
		assert.False(t, tl.IsSet(blk, u, obj, tagField))
		return nil
	})
	require.NoError(t, err)
}

func TestGetFallsBackToDefault(t *testing.T) {
	t.Parallel()

	tagField := &ast.Field{
		ID:    "tag",
		Type:  &ast.ScalarType{Width: 8},
		Attrs: ast.Attributes{Default: ast.IntLiteral(9)},
	}
	u := &ast.Unit{Name: "D", Items: []ast.Item{tagField}}
	u.Grammar = &ast.Grammar{Unit: u, Root: &ast.Variable{M: ast.Meta{Field: tagField}, Type: tagField.Type}}

	ip := ir.NewInterp()
	tl := layout.New(ip)
	tl.LayoutOf(u)

	obj := ir.NewObject()
	err := runBlock(t, ip, func(blk ir.Block) error {
		require.NoError(t, tl.PresetDefault(blk, obj, tagField, fakeScope{}))
		v, err := tl.Get(blk, u, obj, tagField)
		require.NoError(t, err)
		assert.Equal(t, int64(9), v.Int())

		tl.Set(blk, u, obj, tagField, ir.IntValue(1))
		v, err = tl.Get(blk, u, obj, tagField)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v.Int())
		return nil
	})
	require.NoError(t, err)
}

type fakeScope struct{}

func (fakeScope) Lookup(string) (any, bool) { return nil, false }
func (fakeScope) This() any                 { return nil }

func switchUnit() (*ast.Unit, *ast.Field, *ast.Field, *ast.Field, *ast.Field) {
	tagField := &ast.Field{ID: "tag", Type: &ast.ScalarType{Width: 8}}
	single := &ast.Field{ID: "solo", Type: &ast.ScalarType{Width: 8}}
	multiA := &ast.Field{ID: "a", Type: &ast.ScalarType{Width: 8}}
	multiB := &ast.Field{ID: "b", Type: &ast.ScalarType{Width: 8}}

	sw := &ast.Switch{
		M:    ast.Meta{Field: tagField},
		Expr: ast.FieldRef("tag"),
		Cases: []ast.SwitchCase{
			{Values: []any{int64(1)}, Body: &ast.Variable{M: ast.Meta{Field: single}, Type: single.Type}},
			{Values: []any{int64(2)}, Body: &ast.Sequence{Items: []ast.Production{
				&ast.Variable{M: ast.Meta{Field: multiA}, Type: multiA.Type},
				&ast.Variable{M: ast.Meta{Field: multiB}, Type: multiB.Type},
			}}},
		},
	}

	u := &ast.Unit{Name: "U", Items: []ast.Item{tagField}}
	u.Grammar = &ast.Grammar{Unit: u, Root: &ast.Sequence{Items: []ast.Production{
		&ast.Variable{M: ast.Meta{Field: tagField}, Type: tagField.Type},
		sw,
	}}}
	return u, tagField, single, multiA, multiB
}

func TestSwitchCaseStorage(t *testing.T) {
	t.Parallel()

	u, _, single, multiA, multiB := switchUnit()
	tl := layout.New(ir.NewInterp())
	tl.LayoutOf(u)

	assert.Len(t, tl.PathOf(u, single.ID), 2, "single-item case stores directly as a union arm")
	assert.Len(t, tl.PathOf(u, multiA.ID), 3, "multi-item case stores as a nested struct under the union arm")
	assert.Len(t, tl.PathOf(u, multiB.ID), 3)
	assert.Equal(t, tl.PathOf(u, single.ID)[0], tl.PathOf(u, multiA.ID)[0], "both cases share the same switch union slot")
}

func TestSwitchCaseIndependentStorage(t *testing.T) {
	t.Parallel()

	u, _, single, multiA, _ := switchUnit()
	ip := ir.NewInterp()
	tl := layout.New(ip)
	tl.LayoutOf(u)

	obj := ir.NewObject()
	err := runBlock(t, ip, func(blk ir.Block) error {
		tl.Set(blk, u, obj, single, ir.IntValue(42))
		tl.Set(blk, u, obj, multiA, ir.IntValue(1))

		v, err := tl.Get(blk, u, obj, single)
		require.NoError(t, err)
		assert.Equal(t, int64(42), v.Int())

		v, err = tl.Get(blk, u, obj, multiA)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v.Int())
		return nil
	})
	require.NoError(t, err)
}
