// Package codegen implements the CodeGen facade (§4.6): it owns the
// per-compilation caches §3 describes (unit -> parse-object type, hook
// registry, compiled function table) and drives [internal/parserbuilder]
// and [internal/composer] over a whole grammar, in dependency order.
//
// The code generator itself is single-threaded and non-reentrant per
// compilation (§5): one CodeGen walks its units' grammars once, emitting
// IR sequentially. [golang.org/x/sync/singleflight] guards the one place
// that invariant could otherwise be violated — a driver fanning out
// several goroutines that each ask to compile the same grammar symbol.
package codegen

import (
	"fmt"
	"iter"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/composer"
	"github.com/binpac-dev/corepac/internal/hooks"
	"github.com/binpac-dev/corepac/internal/layout"
	"github.com/binpac-dev/corepac/internal/parserbuilder"
	"github.com/binpac-dev/corepac/internal/scc"
	"github.com/binpac-dev/corepac/internal/stats"
	"github.com/binpac-dev/corepac/internal/tracelog"
	"github.com/binpac-dev/corepac/ir"
)

// Stats are the compilation-time instrumentation counters a CodeGen
// accumulates while building a grammar, surfaced for diagnostics.
type Stats struct {
	HooksPerField stats.Mean
}

// CodeGen is one compilation context: one grammar, one parse-object type
// cache, one hook registry, one compiled-function table. Every exported
// method is safe to call only from the single goroutine driving this
// compilation — see the package doc for the singleflight boundary that
// protects the one place a second goroutine can legitimately show up.
type CodeGen struct {
	// ID tags every compilation for log correlation, per the DOMAIN STACK
	// section: a driver running several CodeGens concurrently (say, one
	// per loaded module) can tell their tracelog lines apart.
	ID uuid.UUID

	b  ir.Builder
	tl *layout.TypeLayout
	hr *hooks.Registry
	pb *parserbuilder.Builder
	cb *composer.Builder

	sf singleflight.Group

	units    map[string]*ast.Unit // by name, for the dependency DAG
	compiled map[*ast.Unit]bool   // units compileOne has already handled

	Stats Stats
}

// New returns an empty CodeGen that declares IR through b.
//
// The state-frame stack §4.6 and §5 describe (pushed on entry into a
// &parse, &length, ChildGrammar, or enclosure scope, popped on exit,
// bounded by grammar nesting depth) is implemented at the level that
// actually executes a parse rather than here: [ir.Block.PushLength] and
// [ir.Block.PushData] push and pop the byte-range half, and
// [ir.Object]'s path nesting carries the storage half. CodeGen itself
// never runs a parse — it only builds and caches the functions — so it
// has no frame of its own to hold.
func New(b ir.Builder) *CodeGen {
	tl := layout.New(b)
	hr := hooks.NewRegistry()
	return &CodeGen{
		ID:    uuid.New(),
		b:     b,
		tl:    tl,
		hr:    hr,
		pb:    parserbuilder.New(b, tl, hr),
		cb:    composer.New(b, tl, hr),
		units: map[string]*ast.Unit{},
	}
}

// CompileUnit compiles u and every unit it transitively depends on
// (through ChildGrammar productions) in dependency order, registering
// u's hooks and, if u.Exported, its runtime descriptor. Idempotent:
// compiling the same unit twice returns the cached functions both times,
// and a cyclic grammar (§9) compiles cleanly because parserbuilder.Build/
// composer.Build/layout.LayoutOf are all themselves idempotent and
// forward-declare before recursing.
//
// Concurrent calls compiling the *same* unit name are coalesced by
// singleflight rather than raced — the per-compilation caches below are
// not safe for concurrent first-writers.
func (cg *CodeGen) CompileUnit(u *ast.Unit) error {
	_, err, _ := cg.sf.Do(u.Name, func() (any, error) {
		cg.units[u.Name] = u
		dag := scc.Sort(u, childUnits)

		for comp := range dag.Topological() {
			for _, member := range comp.Members() {
				cg.compileOne(member)
			}
		}
		return nil, nil
	})
	return err
}

// compileOne builds the parse/compose functions and registers the hooks
// for a single unit, without recursing into its dependencies (CompileUnit
// already visited them via the SCC DAG first).
func (cg *CodeGen) compileOne(u *ast.Unit) {
	if cg.compiled[u] {
		return
	}
	if cg.compiled == nil {
		cg.compiled = map[*ast.Unit]bool{}
	}
	cg.compiled[u] = true

	hooks.RegisterUnit(cg.hr, u, false)
	hooks.RegisterUnit(cg.hr, u, true)

	for _, f := range u.Fields() {
		cg.Stats.HooksPerField.Record(float64(len(f.Hooks)))
	}

	cg.pb.Build(u)
	cg.cb.Build(u)

	if u.Exported {
		cg.exportParser(u)
	}
}

// childUnits is the [scc.Graph] edge function for CompileUnit's
// dependency DAG: a unit depends on every sub-unit a ChildGrammar
// production in its grammar names.
func childUnits(u *ast.Unit) iter.Seq[*ast.Unit] {
	return func(yield func(*ast.Unit) bool) {
		if u.Grammar == nil {
			return
		}
		seen := map[*ast.Unit]bool{}
		var walk func(ast.Production) bool
		walk = func(p ast.Production) bool {
			if p == nil {
				return true
			}
			switch p := p.(type) {
			case *ast.ChildGrammar:
				if !seen[p.Unit] {
					seen[p.Unit] = true
					if !yield(p.Unit) {
						return false
					}
				}
				return true
			case *ast.Sequence:
				for _, c := range p.Items {
					if !walk(c) {
						return false
					}
				}
			case *ast.LookAhead:
				return walk(p.AltA) && walk(p.AltB) && walk(p.Default)
			case *ast.Switch:
				for _, c := range p.Cases {
					if !walk(c.Body) {
						return false
					}
				}
				return walk(p.Default)
			case *ast.Counter:
				return walk(p.Body)
			case *ast.ByteBlock:
				return walk(p.Body)
			case *ast.Loop:
				return walk(p.Body)
			case *ast.Enclosure:
				return walk(p.Child)
			case *ast.While:
				return walk(p.Body)
			}
			return true
		}
		walk(u.Grammar.Root)
	}
}

// ParseFunction returns u's internal parse function, compiling u first if
// necessary.
func (cg *CodeGen) ParseFunction(u *ast.Unit) *ir.Func {
	if err := cg.CompileUnit(u); err != nil {
		return nil
	}
	return cg.pb.Build(u)
}

// ComposeFunction returns u's internal compose function, compiling u
// first if necessary.
func (cg *CodeGen) ComposeFunction(u *ast.Unit) *ir.Func {
	if err := cg.CompileUnit(u); err != nil {
		return nil
	}
	return cg.cb.Build(u)
}

// ParseObjectType returns u's parse-object struct type, declaring it if
// this is the first reference (§4.1).
func (cg *CodeGen) ParseObjectType(u *ast.Unit) *ir.StructType {
	return cg.tl.LayoutOf(u)
}

// DefineHook registers one hook implementation against its mangled id
// (§3), for both the parse and/or compose side per the hook's own
// declaration — a hook attached to a field runs on whichever side(s) that
// field's production is ever reached from, which RegisterUnit already
// covers uniformly by registering under both ids.
func (cg *CodeGen) DefineHook(unitName string, h *ast.Hook) {
	cg.hr.Register(hooks.FieldHookID(unitName, h, false), h)
	cg.hr.Register(hooks.FieldHookID(unitName, h, true), h)
}

// RunHook dispatches every registered implementation of a field or global
// hook id against self, honoring group-disable and reentrant-call
// suppression (§4.4 point 3).
func (cg *CodeGen) RunHook(id string, self ir.Value, element ir.Value) (bool, error) {
	return cg.hr.Run(id, self, nil, element)
}

// DisableHookGroup and EnableHookGroup expose the registry's group
// short-circuit (§6) for a runtime to toggle at the host's request.
func (cg *CodeGen) DisableHookGroup(group int) { cg.hr.DisableGroup(group) }
func (cg *CodeGen) EnableHookGroup(group int)  { cg.hr.EnableGroup(group) }

// ItemGet, ItemSet, ItemIsSet, ItemUnset and ItemPresetDefault are thin
// wrappers delegating to TypeLayout (§4.6), so a caller outside
// internal/layout never needs to import it directly.
func (cg *CodeGen) ItemGet(blk ir.Block, u *ast.Unit, obj *ir.Object, f *ast.Field) (ir.Value, error) {
	return cg.tl.Get(blk, u, obj, f)
}

func (cg *CodeGen) ItemSet(blk ir.Block, u *ast.Unit, obj *ir.Object, f *ast.Field, v ir.Value) {
	cg.tl.Set(blk, u, obj, f, v)
}

func (cg *CodeGen) ItemIsSet(blk ir.Block, u *ast.Unit, obj *ir.Object, f *ast.Field) bool {
	return cg.tl.IsSet(blk, u, obj, f)
}

func (cg *CodeGen) ItemUnset(blk ir.Block, u *ast.Unit, obj *ir.Object, f *ast.Field) {
	cg.tl.Unset(blk, u, obj, f)
}

func (cg *CodeGen) ItemPresetDefault(blk ir.Block, obj *ir.Object, f *ast.Field, sc ast.Scope) error {
	return cg.tl.PresetDefault(blk, obj, f, sc)
}

// WriteToSinks forwards data to every sink bound to f, via blk's sink
// writer, carrying the run's active cookie (§4.6).
func (cg *CodeGen) WriteToSinks(blk ir.Block, f *ast.Field, data []byte) {
	for _, sink := range f.Sinks {
		blk.WriteSink(sink, data)
	}
}

// exportParser emits the module-initializer call that registers u's
// runtime descriptor (§6), derived from its declared %-properties.
func (cg *CodeGen) exportParser(u *ast.Unit) {
	cg.b.RegisterParser(ir.ParserDescriptor{
		Name:            u.Name,
		Description:     u.Properties.Description,
		Ports:           u.Properties.Ports,
		MIMETypes:       u.Properties.MIMETypes,
		Params:          len(u.Params),
		HasParseFunc:    u.Grammar != nil,
		HasComposeFunc:  u.Grammar != nil,
		GenerateParsers: true,
	})
	tracelog.Log([]any{"compilation %s", cg.ID}, "codegen", "exported parser %s", u.Name)
}

// String reports the compilation id and unit count, for inclusion in
// diagnostics and panics raised elsewhere in the core.
func (cg *CodeGen) String() string {
	return fmt.Sprintf("codegen[%s, %d units]", cg.ID, len(cg.units))
}
