// Package parserbuilder implements the ParserBuilder (§4.4): it walks a
// unit's grammar and, against the abstract [ir.Block] primitives, carries
// out field unpacking, bounded sub-parsing, look-ahead, containers,
// enclosure recursion, hook invocation, sink write-through, and
// yield-and-resume on insufficient input.
//
// Control flow (conditions, loops, switches) is ordinary Go recursion over
// the [ast.Production] tree rather than a reified IR op: only the leaf
// operations (unpack, struct get/set, hook dispatch, ...) cross into
// [ir.Block]. This keeps the walk readable and lets [ir.Interp] execute it
// directly, matching the core's emission contract either way.
package parserbuilder

import (
	"errors"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/hooks"
	"github.com/binpac-dev/corepac/internal/layout"
	"github.com/binpac-dev/corepac/internal/resync"
	"github.com/binpac-dev/corepac/internal/tracelog"
	"github.com/binpac-dev/corepac/ir"
)

// Builder walks grammars for one compilation, consulting the shared
// [layout.TypeLayout] for storage and [hooks.Registry] for dispatch.
type Builder struct {
	b  ir.Builder
	tl *layout.TypeLayout
	hr *hooks.Registry
}

// New returns a ParserBuilder that declares functions through b.
func New(b ir.Builder, tl *layout.TypeLayout, hr *hooks.Registry) *Builder {
	return &Builder{b: b, tl: tl, hr: hr}
}

// internalFuncName is the naming convention [ir.Block.ParseChild] looks
// functions up by; kept in sync with ir's own (unexported) childFuncName.
func internalFuncName(u *ast.Unit) string { return "parse_" + u.Name + "_internal" }

// Build declares and defines unit's internal parse function (§4.4 point 1):
// `parse_<unit>_internal(self, params...) (self, error)`. Idempotent: a
// unit already built returns its cached [ir.Func], breaking grammar cycles
// per §9 the same way [layout.TypeLayout.LayoutOf] breaks them for storage.
func (pb *Builder) Build(u *ast.Unit) *ir.Func {
	name := internalFuncName(u)
	if fn := pb.b.Func(name); fn != nil {
		return fn
	}
	fn := pb.b.DeclareFunc(name)
	pb.tl.LayoutOf(u) // force layout before any field access inside the body

	pb.b.DefineFunc(fn, func(blk ir.Block, args []ir.Value) ([]ir.Value, error) {
		if len(args) == 0 {
			return nil, &ir.InternalError{Reason: "parserbuilder: " + u.Name + " called with no self argument"}
		}
		obj := args[0].Object()
		if obj == nil {
			return nil, &ir.InternalError{Reason: "parserbuilder: " + u.Name + " self argument is not an object"}
		}

		for i, p := range u.Params {
			if i+1 < len(args) {
				blk.Set(obj, pb.tl.ParamPath(p.Name), args[i+1])
			}
		}

		rootScope := &scope{tl: pb.tl, u: u, obj: obj, blk: blk}
		for _, f := range u.Fields() {
			if err := pb.tl.PresetDefault(blk, obj, f, rootScope); err != nil {
				return nil, err
			}
		}

		if u.Grammar != nil && u.Grammar.Root != nil {
			if err := pb.emit(u.Grammar.Root, blk, u, obj, rootScope); err != nil {
				for _, h := range u.GlobalHooks(ast.EventError) {
					_, _ = h.Impl(ast.HookContext{Self: obj, Cookie: nil})
				}
				return []ir.Value{args[0]}, err
			}
		}
		return []ir.Value{args[0]}, nil
	})
	return fn
}

// scope adapts a parse object plus the enclosing unit into an [ast.Scope]
// for attribute expression evaluation (&length, &until, switch
// discriminants, loop conditions).
type scope struct {
	tl   *layout.TypeLayout
	u    *ast.Unit
	obj  *ir.Object
	blk  ir.Block
	this any

	// result holds the value most recently produced by emitVariable, so a
	// Counter/Loop/ByteBlock body that called emitBare directly (bypassing
	// the per-field wrapper) can retrieve the element it just parsed for
	// container storage and foreach-hook dispatch.
	result ir.Value

	// pendingLA is the token id an enclosing [ast.LookAhead] has already
	// resolved via MatchLiteral, or 0 when none is pending; set by
	// chooseAlt for the duration of dispatching into the winning
	// alternative, and consumed by emitLiteral (§3's "current look-ahead
	// token" parser state).
	pendingLA      int
	pendingLABytes []byte
}

func (s *scope) This() any { return s.this }

// with returns a scope identical to s but with $$ bound to this, used by
// Counter/Loop/Switch-over-container bodies to expose the element under
// construction.
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
	for _, it := range s.u.Items {
		if vd, ok := it.(*ast.VarDecl); ok && vd.ID == name {
			v, ok := s.blk.Get(s.obj, s.tl.PathOf(s.u, name))
			if !ok {
				return nil, false
			}
			return v.Any(), true
		}
	}
	return nil, false
}

// emit is the single dispatch point over the closed set of production
// kinds (§9 "Dynamic dispatch across productions"), applying the
// field-level wrapping order (§4.4) around whichever field owns prod, then
// delegating to the per-kind emitter.
func (pb *Builder) emit(prod ast.Production, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	f := prod.Meta().Field
	if f == nil {
		return pb.emitBare(prod, blk, u, obj, sc)
	}
	return pb.emitField(prod, f, blk, u, obj, sc)
}

// emitField applies the field-level wrapping order: condition gate, &parse
// override, &length containment, &try backtracking — then the bare
// production, then hook dispatch and sink write-through.
func (pb *Builder) emitField(prod ast.Production, f *ast.Field, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	if f.Condition != nil {
		v, err := f.Condition.Eval(sc)
		if err != nil {
			return err
		}
		if b, ok := v.(bool); ok && !b {
			return nil
		}
	}

	run := func(blk ir.Block) error { return pb.emitBare(prod, blk, u, obj, sc) }

	if f.Attrs.Parse != nil {
		v, err := f.Attrs.Parse.Eval(sc)
		if err != nil {
			return err
		}
		data, _ := v.([]byte)
		inner := run
		run = func(blk ir.Block) error {
			return blk.PushData(data, inner)
		}
	}

	if f.Attrs.Length != nil {
		v, err := f.Attrs.Length.Eval(sc)
		if err != nil {
			return err
		}
		n, _ := v.(int64)
		inner := run
		sync := prod.Meta().MaySynchronize && resync.SupportsSynchronize(prod)
		run = func(blk ir.Block) error {
			start := blk.Pos()
			err := blk.PushLength(int(n), inner)
			if err == nil {
				return nil
			}
			var pe *ir.ParseError
			if !sync || !errors.As(err, &pe) {
				return err
			}
			// §4.4 &length row: "if the production supports
			// synchronization, on inner ParseError jump to end_local and
			// continue" — the length is already known, so synchronizing
			// here is just advancing straight to it rather than scanning
			// for a first terminal (`_hiltiSynchronize`'s integer-offset
			// overload), then firing %sync as every resync path does.
			blk.Reset(start + int(n))
			for _, h := range u.GlobalHooks(ast.EventSync) {
				if _, herr := h.Impl(ast.HookContext{Self: obj}); herr != nil {
					return herr
				}
			}
			return nil
		}
	}

	if f.Attrs.Try {
		mark := blk.Mark()
		err := run(blk)
		if err != nil {
			blk.Reset(mark)
			return nil
		}
		return pb.maybeDispatchFieldHooks(prod, f, u, obj, blk, sc)
	}

	if err := run(blk); err != nil {
		return err
	}
	return pb.maybeDispatchFieldHooks(prod, f, u, obj, blk, sc)
}

// maybeDispatchFieldHooks runs [Builder.dispatchFieldHooks] only for
// production kinds that themselves own the field's stored value
// (Variable, ChildGrammar, and the container-producing Counter/Loop).
// Switch and LookAhead are control productions that merely select among
// alternatives already wrapped (and hook-dispatched) individually when
// each alternative's own field-bearing production is emitted; dispatching
// again at this level would run the discriminant field's hook twice.
func (pb *Builder) maybeDispatchFieldHooks(prod ast.Production, f *ast.Field, u *ast.Unit, obj *ir.Object, blk ir.Block, sc *scope) error {
	switch prod.(type) {
	case *ast.Variable, *ast.ChildGrammar, *ast.Counter, *ast.Loop:
		return pb.dispatchFieldHooks(f, u, obj, blk, sc)
	default:
		return nil
	}
}

// dispatchFieldHooks runs a field's non-foreach hook (foreach hooks are
// run by the Counter/Loop emitters themselves, once per element) and
// writes the field's final value to any attached sinks.
func (pb *Builder) dispatchFieldHooks(f *ast.Field, u *ast.Unit, obj *ir.Object, blk ir.Block, sc *scope) error {
	for _, sink := range f.Sinks {
		if v, err := pb.tl.Get(blk, u, obj, f); err == nil {
			if b, ok := v.Any().([]byte); ok {
				blk.WriteSink(sink, b)
			}
		}
	}
	var err error
	if len(f.ParseHook()) > 0 {
		id := hooks.FieldHookID(u.Name, f.ParseHook()[0], false)
		_, err = blk.RunHook(id, ir.ObjectValue(obj), ir.Nil)
	}
	pb.trimIfAllowed(blk, u)
	return err
}

// runForeachHook dispatches a field's foreach hook (if any) with element,
// returning whether the enclosing Counter/Loop should stop.
func (pb *Builder) runForeachHook(f *ast.Field, u *ast.Unit, obj *ir.Object, blk ir.Block, element ir.Value) (bool, error) {
	if len(f.ForeachHooks()) == 0 {
		return false, nil
	}
	id := hooks.FieldHookID(u.Name, f.ForeachHooks()[0], false)
	return blk.RunHook(id, ir.ObjectValue(obj), element)
}

// emitBare dispatches the bare (unwrapped) production body, per the §4.4
// per-production-kind table.
func (pb *Builder) emitBare(prod ast.Production, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	switch p := prod.(type) {
	case *ast.Epsilon:
		return nil
	case *ast.Literal:
		return pb.emitLiteral(p, blk, u, obj, sc)
	case *ast.Variable:
		return pb.emitVariable(p, blk, u, obj, sc)
	case *ast.Sequence:
		for _, child := range p.Items {
			if err := pb.emit(child, blk, u, obj, sc); err != nil {
				return err
			}
		}
		return nil
	case *ast.LookAhead:
		return pb.emitLookAhead(p, blk, u, obj, sc)
	case *ast.Switch:
		return pb.emitSwitch(p, blk, u, obj, sc)
	case *ast.Counter:
		return pb.emitCounter(p, blk, u, obj, sc)
	case *ast.ByteBlock:
		return pb.emitByteBlock(p, blk, u, obj, sc)
	case *ast.Loop:
		return pb.emitLoop(p, blk, u, obj, sc)
	case *ast.ChildGrammar:
		return pb.emitChildGrammar(p, blk, u, obj, sc)
	case *ast.Enclosure:
		return pb.emitEnclosure(p, blk, u, obj, sc)
	case *ast.Boolean:
		v, err := p.Expr.Eval(sc)
		if err != nil {
			return err
		}
		if b, _ := v.(bool); !b {
			return &ir.ParseError{Reason: "boolean production failed", Offset: blk.Pos()}
		}
		return nil
	case *ast.While:
		for {
			v, err := p.Cond.Eval(sc)
			if err != nil {
				return err
			}
			if b, _ := v.(bool); !b {
				return nil
			}
			if err := pb.emit(p.Body, blk, u, obj, sc); err != nil {
				return err
			}
		}
	default:
		return &ir.InternalError{Reason: "parserbuilder: unknown production kind"}
	}
}

// BitRange reads a named bit range extracted from a bitfield field, per
// [layout.TypeLayout.BitRangePath].
func (pb *Builder) BitRange(blk ir.Block, obj *ir.Object, fieldID, rangeName string) (ir.Value, bool) {
	return blk.Get(obj, pb.tl.BitRangePath(fieldID, rangeName))
}

func (pb *Builder) trimIfAllowed(blk ir.Block, u *ast.Unit) {
	if !u.Buffering {
		blk.Trim()
	}
	tracelog.Log(nil, "parserbuilder", "trim after field in %s", u.Name)
}
