// Package composer implements the Composer (§4.5): the mirror image of
// [internal/parserbuilder] that walks a unit's grammar in writing mode,
// reading each field's already-stored value from the parse object and
// emitting its wire representation through [ir.Block.EmitBytes].
//
// Only the subset of productions §4.5 lists has well-defined compose
// semantics (Literal, Variable, Sequence, Counter/Loop over a single
// container element). The rest raise [ErrNotImplemented] rather than
// silently emitting wrong bytes, per the open question in §9 resolved in
// DESIGN.md.
package composer

import (
	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/hooks"
	"github.com/binpac-dev/corepac/internal/layout"
	"github.com/binpac-dev/corepac/ir"
)

// Builder walks grammars in compose mode for one compilation.
type Builder struct {
	b  ir.Builder
	tl *layout.TypeLayout
	hr *hooks.Registry
}

// New returns a Composer that declares functions through b.
func New(b ir.Builder, tl *layout.TypeLayout, hr *hooks.Registry) *Builder {
	return &Builder{b: b, tl: tl, hr: hr}
}

func internalFuncName(u *ast.Unit) string { return "compose_" + u.Name + "_internal" }

// Build declares and defines unit's internal compose function: like its
// parse counterpart, idempotent and `(self, params...) (self, error)`.
func (cb *Builder) Build(u *ast.Unit) *ir.Func {
	name := internalFuncName(u)
	if fn := cb.b.Func(name); fn != nil {
		return fn
	}
	fn := cb.b.DeclareFunc(name)
	cb.tl.LayoutOf(u)

	cb.b.DefineFunc(fn, func(blk ir.Block, args []ir.Value) ([]ir.Value, error) {
		if len(args) == 0 {
			return nil, &ir.InternalError{Reason: "composer: " + u.Name + " called with no self argument"}
		}
		obj := args[0].Object()
		if obj == nil {
			return nil, &ir.InternalError{Reason: "composer: " + u.Name + " self argument is not an object"}
		}
		for i, p := range u.Params {
			if i+1 < len(args) {
				blk.Set(obj, cb.tl.ParamPath(p.Name), args[i+1])
			}
		}

		sc := &scope{tl: cb.tl, u: u, obj: obj, blk: blk}
		if u.Grammar != nil && u.Grammar.Root != nil {
			if err := cb.emit(u.Grammar.Root, blk, u, obj, sc); err != nil {
				for _, h := range u.GlobalHooks(ast.EventError) {
					_, _ = h.Impl(ast.HookContext{Self: obj})
				}
				return []ir.Value{args[0]}, err
			}
		}
		return []ir.Value{args[0]}, nil
	})
	return fn
}

// scope adapts a parse object into an [ast.Scope] for attribute expression
// evaluation (&until, &convert_back, conditions), the compose-side
// counterpart of parserbuilder's scope.
type scope struct {
	tl   *layout.TypeLayout
	u    *ast.Unit
	obj  *ir.Object
	blk  ir.Block
	this any
}

func (s *scope) This() any { return s.this }

func (s *scope) with(this any) *scope {
	return &scope{tl: s.tl, u: s.u, obj: s.obj, blk: s.blk, this: this}
}

func (s *scope) Lookup(name string) (any, bool) {
	if f := s.u.Field(name); f != nil {
		v, err := s.tl.Get(s.blk, s.u, s.obj, f)
		if err != nil {
			return nil, false
		}
		return v.Any(), true
	}
	for _, p := range s.u.Params {
		if p.Name == name {
			v, ok := s.blk.Get(s.obj, s.tl.ParamPath(name))
			if !ok {
				return nil, false
			}
			return v.Any(), true
		}
	}
	return nil, false
}

// emit applies the field-level skip rules (§4.5: &parse fields are
// skipped, unset &try fields are skipped, a false condition gates
// emission) before dispatching to the bare production emitter.
func (cb *Builder) emit(prod ast.Production, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	f := prod.Meta().Field
	if f == nil {
		return cb.emitBare(prod, blk, u, obj, sc)
	}

	if f.Attrs.Parse != nil {
		return nil
	}
	if f.Attrs.Try && !cb.tl.IsSet(blk, u, obj, f) {
		return nil
	}
	if f.Condition != nil {
		v, err := f.Condition.Eval(sc)
		if err != nil {
			return err
		}
		if b, ok := v.(bool); ok && !b {
			return nil
		}
	}

	if err := cb.emitBare(prod, blk, u, obj, sc); err != nil {
		return err
	}
	return cb.dispatchFieldHook(f, u, obj, blk)
}

// dispatchFieldHook runs a field's compose-side hook, the output-path
// counterpart of parserbuilder's dispatchFieldHooks.
func (cb *Builder) dispatchFieldHook(f *ast.Field, u *ast.Unit, obj *ir.Object, blk ir.Block) error {
	if len(f.ParseHook()) == 0 {
		return nil
	}
	id := hooks.FieldHookID(u.Name, f.ParseHook()[0], true)
	_, err := blk.RunHook(id, ir.ObjectValue(obj), ir.Nil)
	return err
}

func (cb *Builder) emitBare(prod ast.Production, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	switch p := prod.(type) {
	case *ast.Epsilon:
		return nil
	case *ast.Literal:
		return cb.emitLiteral(p, blk, u, obj)
	case *ast.Variable:
		return cb.emitVariable(p, blk, u, obj, sc)
	case *ast.Sequence:
		for _, child := range p.Items {
			if err := cb.emit(child, blk, u, obj, sc); err != nil {
				return err
			}
		}
		return nil
	case *ast.Counter:
		return cb.emitCounter(p, blk, u, obj, sc)
	case *ast.Loop:
		return cb.emitLoop(p, blk, u, obj, sc)
	default:
		return &ErrNotImplemented{Kind: prod.Kind().String()}
	}
}
