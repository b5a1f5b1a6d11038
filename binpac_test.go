package binpac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binpac-dev/corepac"
	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/ir"
)

func scalarField(id string, width int) *ast.Field {
	return &ast.Field{ID: id, Type: &ast.ScalarType{Width: width}}
}

// Compile builds both directions for a unit by default and exposes them by
// name through the returned Module.
func TestCompileDefaults(t *testing.T) {
	t.Parallel()

	tag := scalarField("tag", 8)
	u := &ast.Unit{Name: "Header", Items: []ast.Item{tag}, Exported: true}
	u.Grammar = &ast.Grammar{Unit: u, Root: &ast.Variable{M: ast.Meta{Field: tag}, Type: tag.Type}}

	ip := ir.NewInterp()
	m, err := binpac.Compile([]*ast.Unit{u}, ip)
	require.NoError(t, err)

	assert.NotNil(t, m.ParseFunction("Header"))
	assert.NotNil(t, m.ComposeFunction("Header"))
	assert.NotNil(t, m.ParseObjectType("Header"))

	got, ok := m.Unit("Header")
	require.True(t, ok)
	assert.Same(t, u, got)

	_, ok = m.Unit("NoSuchUnit")
	assert.False(t, ok)
}

// WithGenerateParsers(false) suppresses both the descriptor's flag and the
// function Module hands back, without preventing the unit from compiling.
func TestCompileWithGenerateParsersDisabled(t *testing.T) {
	t.Parallel()

	tag := scalarField("tag", 8)
	u := &ast.Unit{Name: "Quiet", Items: []ast.Item{tag}, Exported: true}
	u.Grammar = &ast.Grammar{Unit: u, Root: &ast.Variable{M: ast.Meta{Field: tag}, Type: tag.Type}}

	ip := ir.NewInterp()
	m, err := binpac.Compile([]*ast.Unit{u}, ip, binpac.WithGenerateParsers(false))
	require.NoError(t, err)

	assert.Nil(t, m.ParseFunction("Quiet"))
	assert.NotNil(t, m.ComposeFunction("Quiet"))

	descs := ip.Descriptors()
	require.Len(t, descs, 1)
	assert.False(t, descs[0].HasParseFunc)
	assert.False(t, descs[0].GenerateParsers)
	assert.True(t, descs[0].HasComposeFunc)
}

// Two Compile calls, each over its own builder, produce distinct
// compilation ids.
func TestCompileIDsAreUnique(t *testing.T) {
	t.Parallel()

	tag := scalarField("tag", 8)
	u1 := &ast.Unit{Name: "A", Items: []ast.Item{tag}}
	u1.Grammar = &ast.Grammar{Unit: u1, Root: &ast.Variable{M: ast.Meta{Field: tag}, Type: tag.Type}}
	u2 := &ast.Unit{Name: "B", Items: []ast.Item{tag}}
	u2.Grammar = &ast.Grammar{Unit: u2, Root: &ast.Variable{M: ast.Meta{Field: tag}, Type: tag.Type}}

	m1, err := binpac.Compile([]*ast.Unit{u1}, ir.NewInterp())
	require.NoError(t, err)
	m2, err := binpac.Compile([]*ast.Unit{u2}, ir.NewInterp())
	require.NoError(t, err)

	assert.NotEqual(t, m1.ID(), m2.ID())
}

// The re-exported error types match the underlying ir ones so a caller can
// type-switch on an error coming out of a generated function without
// importing ir directly.
func TestErrorTaxonomyReExports(t *testing.T) {
	t.Parallel()

	var err error = &binpac.ParseError{Reason: "bad literal", Offset: 4}
	var pe *binpac.ParseError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, 4, pe.Offset)

	err = &binpac.UndefinedValueError{Field: "x"}
	var uve *binpac.UndefinedValueError
	assert.ErrorAs(t, err, &uve)
}
