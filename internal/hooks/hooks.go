// Package hooks implements the hook identifier mangling and dispatch
// registry described by §3 ("Hook identifier"), §4.4 ("Hook protocol") and
// §6 ("Hook calling convention"). A [Registry] is owned by one compilation
// (per the spec's "hook registry as global state" clarification: scoped to
// a CodeGen facade, not a process-wide table) and implements [ir.HookRunner]
// so it can be wired straight into an [ir.Interp] run.
package hooks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/ir"
)

// ID mangles (unit_name, item_id_or_percent_keyword, foreach_flag,
// visibility, parse-or-compose) into the stable identifier §3 describes,
// unique within one compilation so separately-emitted hooks link.
func ID(unitName string, item string, foreach bool, vis ast.Visibility, compose bool) string {
	side := "parse"
	if compose {
		side = "compose"
	}
	return fmt.Sprintf("%s.%s#foreach=%t,vis=%d,%s", unitName, item, foreach, vis, side)
}

// FieldHookID mangles the id for one of a field's own [ast.Hook] entries.
func FieldHookID(unitName string, h *ast.Hook, compose bool) string {
	return ID(unitName, h.Item, h.Foreach, h.Visibility, compose)
}

// entry pairs a registered hook with its registration sequence number.
// Dispatch order within a priority tier follows registration order because
// Register sorts with sort.SliceStable; seq itself is not consulted.
type entry struct {
	hook *ast.Hook
	seq  int
}

// Registry is the per-compilation hook dispatch table. The zero value is
// not usable; construct with [NewRegistry].
type Registry struct {
	mu             sync.RWMutex
	byID           map[string][]entry
	disabledGroups map[int]bool
	running        map[string]map[any]bool
	seq            int
}

var _ ir.HookRunner = (*Registry)(nil)

// NewRegistry returns an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:           map[string][]entry{},
		disabledGroups: map[int]bool{},
		running:        map[string]map[any]bool{},
	}
}

// Register adds one implementation under id. Implementations registered
// under the same id run in descending-[ast.Hook.Priority] order, stable
// within a priority tier by registration order, per §4.4 point 2.
func (r *Registry) Register(id string, h *ast.Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = append(r.byID[id], entry{hook: h, seq: r.seq})
	r.seq++
	sort.SliceStable(r.byID[id], func(i, j int) bool {
		return r.byID[id][i].hook.Priority > r.byID[id][j].hook.Priority
	})
}

// RegisterUnit registers every field hook and global hook of u, mangling
// each id with compose as the parse-or-compose side.
func RegisterUnit(r *Registry, u *ast.Unit, compose bool) {
	for _, f := range u.Fields() {
		for _, h := range f.Hooks {
			r.Register(FieldHookID(u.Name, h, compose), h)
		}
	}
	for _, event := range []string{ast.EventInit, ast.EventDone, ast.EventError, ast.EventSync} {
		for _, h := range u.GlobalHooks(event) {
			r.Register(ID(u.Name, event, false, h.Visibility, compose), h)
		}
	}
}

// DisableGroup marks every hook implementation registered with Group==group
// as disabled: per §6, a disabled group short-circuits the hook to return
// false (no stop, no error) at entry, without running its implementation.
func (r *Registry) DisableGroup(group int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabledGroups[group] = true
}

// EnableGroup reverses [Registry.DisableGroup].
func (r *Registry) EnableGroup(group int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.disabledGroups, group)
}

// Run dispatches every enabled implementation registered under id, in
// descending-priority order, and OR-reduces their stop results.
//
// Per §4.4 point 3, while a field's own hook is executing for one parse
// object instance, a nested dispatch of the same id for that same instance
// is suppressed (returns false, nil) rather than recursing — this prevents
// unbounded recursion from a field assignment inside the hook body from
// re-triggering itself. The suppression is scoped to the id and the self
// instance, so concurrent parses of distinct instances of the same unit
// never interfere with each other.
//
// The original source's parse/compose asymmetry in this suppression was an
// Open Question (its intent unclear); this implementation applies the same
// suppression uniformly to both sides (see DESIGN.md).
func (r *Registry) Run(id string, self ir.Value, cookie any, element ir.Value) (bool, error) {
	key := self.Any()

	r.mu.Lock()
	if r.running[id] == nil {
		r.running[id] = map[any]bool{}
	}
	if r.running[id][key] {
		r.mu.Unlock()
		return false, nil
	}
	r.running[id][key] = true
	entries := append([]entry(nil), r.byID[id]...)
	disabled := r.disabledGroups
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.running[id], key)
		r.mu.Unlock()
	}()

	var stop bool
	for _, e := range entries {
		if disabled[e.hook.Group] {
			continue
		}
		s, err := e.hook.Impl(ast.HookContext{Self: self.Any(), Cookie: cookie, Element: element.Any()})
		if err != nil {
			return stop, err
		}
		if e.hook.Foreach && s {
			stop = true
		}
	}
	return stop, nil
}
