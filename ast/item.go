package ast

import "sort"

// Item is a unit member: a field, a variable, a property, or a global hook.
// The set is closed, so a type switch over the four concrete types below is
// always exhaustive — see §9 "Dynamic dispatch across productions" for why
// this package prefers closed sum types over an extensible visitor.
type Item interface {
	itemNode()
	Ident() string
}

// Field is a unit member that participates in the grammar: it carries a
// value type, `&`-attributes, an optional condition, sink bindings, and
// hooks. Per §3, a field is either Transient (not stored) or has a slot in
// the parse object.
type Field struct {
	ID        string
	Type      Type
	Attrs     Attributes
	Params    []Expr // arguments, when Type is a *UnitRefType
	Condition Expr   // nil means unconditional
	Sinks     []string
	Hooks     []*Hook
	Transient bool
}

func (*Field) itemNode()         {}
func (f *Field) Ident() string   { return f.ID }

// ParseHook returns the field's non-foreach hooks (its "parse hook"),
// highest priority first.
func (f *Field) ParseHook() []*Hook { return f.hooksWhere(false) }

// ForeachHooks returns the field's foreach hooks, highest priority first.
func (f *Field) ForeachHooks() []*Hook { return f.hooksWhere(true) }

func (f *Field) hooksWhere(foreach bool) []*Hook {
	var out []*Hook
	for _, h := range f.Hooks {
		if h.Foreach == foreach {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// VarDecl is a unit-scoped variable: a slot initialized from &default or
// the type's zero value, never read from the wire directly.
type VarDecl struct {
	ID      string
	Type    Type
	Default Expr // nil means the type's default
}

func (*VarDecl) itemNode()       {}
func (v *VarDecl) Ident() string { return v.ID }

// Property is a unit-level declaration such as %description, %port, or
// %mimetype.
type Property struct {
	Key   string
	Value Expr
}

func (*Property) itemNode()       {}
func (p *Property) Ident() string { return p.Key }

// GlobalHook attaches a [Hook] to a unit-wide event (%init, %done, %error,
// %sync) rather than to a field.
type GlobalHook struct {
	Event string
	Hook  *Hook
}

func (*GlobalHook) itemNode()       {}
func (g *GlobalHook) Ident() string { return g.Event }
