// Package binpac is the root of the core code generator (§6): given a
// finalized AST of units with resolved scopes and computed grammars, it
// drives [internal/codegen] to emit an IR module through a caller-supplied
// [ir.Builder], and returns a [Module] describing what was generated.
//
// The package itself never parses the source grammar language — per §1,
// that's an external collaborator's job. It only consumes the AST.
package binpac

import (
	"github.com/google/uuid"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/codegen"
	"github.com/binpac-dev/corepac/ir"
)

// Module is the result of one [Compile] call: the compiled unit set, keyed
// by name, plus the configuration the compilation ran under. A Module is
// reusable — querying the same unit's functions twice returns the same
// cached [ir.Func] both times, per the CodeGen facade's own idempotence.
type Module struct {
	cg    *codegen.CodeGen
	cfg   Config
	units map[string]*ast.Unit
}

// Compile emits IR for units and every unit they transitively reference,
// through b, applying opts over [DefaultConfig]. Units are compiled in the
// order given; a unit referenced only as another's child grammar does not
// need to appear in units itself.
//
// If cfg.Verify is set and b also implements an interface with a
// `Verify() error` method, that method runs before Compile returns,
// and its error is returned as-is.
func Compile(units []*ast.Unit, b ir.Builder, opts ...Option) (*Module, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	cb := &configuredBuilder{Builder: b, cfg: cfg}
	cg := codegen.New(cb)

	m := &Module{cg: cg, cfg: cfg, units: make(map[string]*ast.Unit, len(units))}
	for _, u := range units {
		if err := cg.CompileUnit(u); err != nil {
			return nil, err
		}
		m.units[u.Name] = u
	}

	if cfg.Verify {
		if v, ok := b.(interface{ Verify() error }); ok {
			if err := v.Verify(); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

// ID returns the UUID tagging this compilation, for log correlation with
// the tracelog lines [internal/codegen] and its components emit.
func (m *Module) ID() uuid.UUID { return m.cg.ID }

// Unit looks up one of the units this Module was compiled from, by name.
func (m *Module) Unit(name string) (*ast.Unit, bool) {
	u, ok := m.units[name]
	return u, ok
}

// ParseFunction returns name's internal parse function, or nil if name is
// unknown or the module was compiled with generate_parsers disabled (§6:
// "parser entry points are registered as null").
func (m *Module) ParseFunction(name string) *ir.Func {
	if !m.cfg.GenerateParsers {
		return nil
	}
	u, ok := m.units[name]
	if !ok {
		return nil
	}
	return m.cg.ParseFunction(u)
}

// ComposeFunction returns name's internal compose function, or nil if name
// is unknown or the module was compiled with generate_composers disabled.
func (m *Module) ComposeFunction(name string) *ir.Func {
	if !m.cfg.GenerateComposers {
		return nil
	}
	u, ok := m.units[name]
	if !ok {
		return nil
	}
	return m.cg.ComposeFunction(u)
}

// ParseObjectType returns name's parse-object struct type (§4.1).
func (m *Module) ParseObjectType(name string) *ir.StructType {
	u, ok := m.units[name]
	if !ok {
		return nil
	}
	return m.cg.ParseObjectType(u)
}

// Stats returns the compilation-time instrumentation counters accumulated
// while building this Module's units.
func (m *Module) Stats() codegen.Stats { return m.cg.Stats }

// configuredBuilder decorates a caller-supplied [ir.Builder] so that a
// Config's generate_parsers/generate_composers knobs take effect at the
// one place they're observable from outside the core: the parser
// descriptor §6 says is registered at module init. The code generator
// itself still builds both directions unconditionally — the knobs control
// what's exposed to the runtime, not what the compiler is capable of.
type configuredBuilder struct {
	ir.Builder
	cfg Config
}

func (cb *configuredBuilder) RegisterParser(desc ir.ParserDescriptor) {
	if !cb.cfg.GenerateParsers {
		desc.HasParseFunc = false
		desc.GenerateParsers = false
	}
	if !cb.cfg.GenerateComposers {
		desc.HasComposeFunc = false
	}
	cb.Builder.RegisterParser(desc)
}
