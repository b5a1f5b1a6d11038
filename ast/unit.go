package ast

import "sort"

// Param is a unit formal parameter: constant for the duration of one parse,
// stored in a hidden parse-object slot per §3.
type Param struct {
	Name string
	Type Type
}

// UnitProperties collects a unit's %-properties used to populate the
// §6 parser descriptor.
type UnitProperties struct {
	Description string
	Ports       []int
	MIMETypes   []string
}

// Unit is a named record whose fields are parsed sequentially from a byte
// stream. It is the top-level input to the core: the external front end
// resolves scopes and attaches hook bodies, computes the [Grammar], and
// hands the finished Unit to [internal/codegen].
type Unit struct {
	Name           string
	Items          []Item
	Params         []Param
	Sinks          []string
	Buffering      bool // retain input span
	TrackLookAhead bool // reserve look-ahead state across calls
	Exported       bool // instantiate a runtime registry entry
	Properties     UnitProperties
	Grammar        *Grammar
}

// Fields returns the unit's items that are [Field]s, in declaration order.
func (u *Unit) Fields() []*Field {
	var out []*Field
	for _, it := range u.Items {
		if f, ok := it.(*Field); ok {
			out = append(out, f)
		}
	}
	return out
}

// Field looks up a declared field by identifier.
func (u *Unit) Field(id string) *Field {
	for _, f := range u.Fields() {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// GlobalHooks returns the unit's hooks attached to %init/%done/%error/%sync
// events, highest priority first within each event.
func (u *Unit) GlobalHooks(event string) []*Hook {
	var out []*Hook
	for _, it := range u.Items {
		if g, ok := it.(*GlobalHook); ok && g.Event == event {
			out = append(out, g.Hook)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}
