package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binpac-dev/corepac/ast"
)

func TestFieldHookSplit(t *testing.T) {
	t.Parallel()

	parseHook := &ast.Hook{Item: "x", Priority: 1}
	foreachA := &ast.Hook{Item: "x", Priority: 10, Foreach: true}
	foreachB := &ast.Hook{Item: "x", Priority: 5, Foreach: true}

	f := &ast.Field{
		ID:    "x",
		Type:  &ast.ScalarType{Width: 8},
		Hooks: []*ast.Hook{parseHook, foreachA, foreachB},
	}

	assert.Equal(t, []*ast.Hook{parseHook}, f.ParseHook())
	assert.Equal(t, []*ast.Hook{foreachA, foreachB}, f.ForeachHooks())
}

func TestUnitFieldLookup(t *testing.T) {
	t.Parallel()

	len8 := &ast.Field{ID: "len", Type: &ast.ScalarType{Width: 8}}
	body := &ast.Field{ID: "body", Type: &ast.BytesType{}}
	u := &ast.Unit{
		Name: "B",
		Items: []ast.Item{
			len8,
			body,
			&ast.Property{Key: "%description", Value: ast.IntLiteral(0)},
		},
	}

	require.Len(t, u.Fields(), 2)
	assert.Same(t, len8, u.Field("len"))
	assert.Same(t, body, u.Field("body"))
	assert.Nil(t, u.Field("nope"))
}

func TestUnitGlobalHooks(t *testing.T) {
	t.Parallel()

	sync1 := &ast.Hook{Item: ast.EventSync, Priority: 1}
	sync2 := &ast.Hook{Item: ast.EventSync, Priority: 2}
	u := &ast.Unit{
		Name: "C",
		Items: []ast.Item{
			&ast.GlobalHook{Event: ast.EventSync, Hook: sync1},
			&ast.GlobalHook{Event: ast.EventSync, Hook: sync2},
			&ast.GlobalHook{Event: ast.EventInit, Hook: &ast.Hook{Item: ast.EventInit}},
		},
	}

	assert.ElementsMatch(t, []*ast.Hook{sync1, sync2}, u.GlobalHooks(ast.EventSync))
	assert.Len(t, u.GlobalHooks(ast.EventInit), 1)
	assert.Empty(t, u.GlobalHooks(ast.EventDone))
}

type fakeScope struct {
	vals map[string]any
	this any
}

func (s fakeScope) Lookup(name string) (any, bool) { v, ok := s.vals[name]; return v, ok }
func (s fakeScope) This() any                      { return s.this }

func TestExprEval(t *testing.T) {
	t.Parallel()

	scope := fakeScope{vals: map[string]any{"tag": int64(3)}, this: uint8(0)}

	eq := &ast.BinaryExpr{Op: ast.OpEq, Left: ast.This{}, Right: ast.IntLiteral(0)}
	v, err := eq.Eval(scope)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	ref := ast.FieldRef("tag")
	v, err = ref.Eval(scope)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	_, err = ast.FieldRef("missing").Eval(scope)
	var undef *ast.UndefinedValueError
	require.ErrorAs(t, err, &undef)
	assert.Equal(t, "missing", undef.Field)
}

func TestProductionKindString(t *testing.T) {
	t.Parallel()

	p := &ast.Literal{Token: ast.Terminal{Token: 1, Bytes: []byte("foo")}}
	assert.Equal(t, ast.KindLiteral, p.Kind())
	assert.Equal(t, "Literal", p.Kind().String())
}
