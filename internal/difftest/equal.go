// Package difftest provides a deep structural equality assertion with
// path-reporting failures, used by the test suites for [layout], [hooks],
// and [codegen] to compare field-path tuples, hook dispatch traces, and
// parse-object layouts without writing a bespoke comparator per test.
package difftest

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// Equal validates that want and got are deeply equal, reporting the first
// point of divergence by path (struct field, slice index, or map key)
// rather than just dumping both values, which is what makes this worth
// having over a bare reflect.DeepEqual assertion for nested layout/grammar
// structures.
func Equal(t testing.TB, want, got any) {
	t.Helper()
	e := &equal{TB: t}
	e.value(reflect.ValueOf(want), reflect.ValueOf(got))
}

type equal struct {
	testing.TB
	path []any
}

func (e *equal) value(a, b reflect.Value) {
	e.Helper()

	if !a.IsValid() || !b.IsValid() {
		if a.IsValid() != b.IsValid() {
			e.fail("expected valid: %v, got valid: %v", a.IsValid(), b.IsValid())
		}
		return
	}

	if a.Type() != b.Type() {
		e.fail("expected type %v, got %v", a.Type(), b.Type())
		return
	}

	switch a.Kind() {
	case reflect.Ptr, reflect.Interface:
		if a.IsNil() != b.IsNil() {
			e.fail("expected nil: %v, got nil: %v", a.IsNil(), b.IsNil())
			return
		}
		if a.IsNil() {
			return
		}
		e.value(a.Elem(), b.Elem())

	case reflect.Struct:
		for i := range a.NumField() {
			name := a.Type().Field(i).Name
			e.push(name, func() { e.value(a.Field(i), b.Field(i)) })
		}

	case reflect.Slice, reflect.Array:
		if a.Kind() == reflect.Slice && a.IsNil() != b.IsNil() {
			e.fail("expected nil slice: %v, got nil slice: %v", a.IsNil(), b.IsNil())
		}
		for i := range min(a.Len(), b.Len()) {
			e.push(i, func() { e.value(a.Index(i), b.Index(i)) })
		}
		if a.Len() != b.Len() {
			e.fail("expected length %d, got %d", a.Len(), b.Len())
		}

	case reflect.Map:
		if a.IsNil() != b.IsNil() {
			e.fail("expected nil map: %v, got nil map: %v", a.IsNil(), b.IsNil())
			return
		}
		keys := map[any]struct{}{}
		for _, k := range a.MapKeys() {
			keys[k.Interface()] = struct{}{}
		}
		for _, k := range b.MapKeys() {
			keys[k.Interface()] = struct{}{}
		}
		for k := range keys {
			kv := reflect.ValueOf(k)
			e.push(k, func() { e.value(a.MapIndex(kv), b.MapIndex(kv)) })
		}

	default:
		if !reflect.DeepEqual(a.Interface(), b.Interface()) {
			e.fail("expected %#v, got %#v", a.Interface(), b.Interface())
		}
	}
}

func (e *equal) push(v any, f func()) {
	e.Helper()
	e.path = append(e.path, v)
	f()
	e.path = e.path[:len(e.path)-1]
}

func (e *equal) fail(format string, args ...any) {
	e.Helper()
	e.Errorf("mismatch at %s: %s", e.formatPath(), fmt.Sprintf(format, args...))
}

func (e *equal) formatPath() string {
	if len(e.path) == 0 {
		return "."
	}
	buf := new(strings.Builder)
	for _, p := range e.path {
		switch p := p.(type) {
		case string:
			fmt.Fprintf(buf, ".%s", p)
		default:
			fmt.Fprintf(buf, "[%v]", p)
		}
	}
	return buf.String()
}
