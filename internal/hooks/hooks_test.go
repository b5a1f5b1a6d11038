package hooks_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/hooks"
	"github.com/binpac-dev/corepac/ir"
)

func TestIDIsStableAndDistinguishesSides(t *testing.T) {
	t.Parallel()

	parse := hooks.ID("Unit", "field", false, ast.VisibilityLocal, false)
	compose := hooks.ID("Unit", "field", false, ast.VisibilityLocal, true)
	foreach := hooks.ID("Unit", "field", true, ast.VisibilityLocal, false)

	assert.NotEqual(t, parse, compose)
	assert.NotEqual(t, parse, foreach)
	assert.Equal(t, parse, hooks.ID("Unit", "field", false, ast.VisibilityLocal, false))
}

func TestRunOrdersByDescendingPriorityStableWithinTier(t *testing.T) {
	t.Parallel()

	var order []string
	mk := func(name string, prio int) *ast.Hook {
		return &ast.Hook{Item: "x", Priority: prio, Impl: func(ast.HookContext) (bool, error) {
			order = append(order, name)
			return false, nil
		}}
	}

	r := hooks.NewRegistry()
	id := hooks.ID("U", "x", false, ast.VisibilityLocal, false)
	r.Register(id, mk("low", 1))
	r.Register(id, mk("high-a", 5))
	r.Register(id, mk("high-b", 5))

	_, err := r.Run(id, ir.ObjectValue(ir.NewObject()), nil, ir.Nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"high-a", "high-b", "low"}, order)
}

func TestRunStopIsORReducedAcrossForeachImplementations(t *testing.T) {
	t.Parallel()

	r := hooks.NewRegistry()
	id := hooks.ID("U", "x", true, ast.VisibilityLocal, false)
	r.Register(id, &ast.Hook{Item: "x", Foreach: true, Priority: 2, Impl: func(ast.HookContext) (bool, error) {
		return false, nil
	}})
	r.Register(id, &ast.Hook{Item: "x", Foreach: true, Priority: 1, Impl: func(ast.HookContext) (bool, error) {
		return true, nil
	}})

	stop, err := r.Run(id, ir.ObjectValue(ir.NewObject()), nil, ir.Nil)
	require.NoError(t, err)
	assert.True(t, stop)
}

func TestRunPropagatesHookError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	r := hooks.NewRegistry()
	id := hooks.ID("U", "x", false, ast.VisibilityLocal, false)
	r.Register(id, &ast.Hook{Item: "x", Impl: func(ast.HookContext) (bool, error) { return false, boom }})

	_, err := r.Run(id, ir.ObjectValue(ir.NewObject()), nil, ir.Nil)
	assert.ErrorIs(t, err, boom)
}

func TestDisabledGroupShortCircuits(t *testing.T) {
	t.Parallel()

	ran := false
	r := hooks.NewRegistry()
	id := hooks.ID("U", "x", false, ast.VisibilityLocal, false)
	r.Register(id, &ast.Hook{Item: "x", Group: 7, Impl: func(ast.HookContext) (bool, error) {
		ran = true
		return false, nil
	}})

	r.DisableGroup(7)
	_, err := r.Run(id, ir.ObjectValue(ir.NewObject()), nil, ir.Nil)
	require.NoError(t, err)
	assert.False(t, ran)

	r.EnableGroup(7)
	_, err = r.Run(id, ir.ObjectValue(ir.NewObject()), nil, ir.Nil)
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestRunSuppressesReentrantCallForSameInstance(t *testing.T) {
	t.Parallel()

	r := hooks.NewRegistry()
	id := hooks.ID("U", "x", false, ast.VisibilityLocal, false)
	self := ir.ObjectValue(ir.NewObject())

	var nested bool
	r.Register(id, &ast.Hook{Item: "x", Impl: func(ast.HookContext) (bool, error) {
		// Simulate a field assignment inside the hook body re-triggering
		// the same field's hook on the same instance.
		s, err := r.Run(id, self, nil, ir.Nil)
		nested = s
		return false, err
	}})

	_, err := r.Run(id, self, nil, ir.Nil)
	require.NoError(t, err)
	assert.False(t, nested, "reentrant dispatch for the same instance must be suppressed")
}

func TestRunDoesNotSuppressDistinctInstances(t *testing.T) {
	t.Parallel()

	r := hooks.NewRegistry()
	id := hooks.ID("U", "x", false, ast.VisibilityLocal, false)
	calls := 0
	r.Register(id, &ast.Hook{Item: "x", Impl: func(ast.HookContext) (bool, error) {
		calls++
		return false, nil
	}})

	_, err := r.Run(id, ir.ObjectValue(ir.NewObject()), nil, ir.Nil)
	require.NoError(t, err)
	_, err = r.Run(id, ir.ObjectValue(ir.NewObject()), nil, ir.Nil)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRegisterUnitWiresFieldAndGlobalHooks(t *testing.T) {
	t.Parallel()

	var fieldRan, initRan bool
	field := &ast.Field{ID: "x", Hooks: []*ast.Hook{{
		Item: "x",
		Impl: func(ast.HookContext) (bool, error) { fieldRan = true; return false, nil },
	}}}
	u := &ast.Unit{Name: "U", Items: []ast.Item{
		field,
		&ast.GlobalHook{Event: ast.EventInit, Hook: &ast.Hook{
			Item: ast.EventInit,
			Impl: func(ast.HookContext) (bool, error) { initRan = true; return false, nil },
		}},
	}}

	r := hooks.NewRegistry()
	hooks.RegisterUnit(r, u, false)

	_, err := r.Run(hooks.FieldHookID("U", field.Hooks[0], false), ir.Nil, nil, ir.Nil)
	require.NoError(t, err)
	assert.True(t, fieldRan)

	_, err = r.Run(hooks.ID("U", ast.EventInit, false, ast.VisibilityLocal, false), ir.Nil, nil, ir.Nil)
	require.NoError(t, err)
	assert.True(t, initRan)
}
