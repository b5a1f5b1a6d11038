//go:build debug

// Package tracelog includes debugging helpers for the code generator.
//
// It is compiled in only under the "debug" build tag, matching the
// generator's own [Config.Debug] knob: building with -tags debug turns on
// the verbose "binpac-verbose" and "binpac-trace" logging described in
// §6 of the specification; building without it compiles Enabled to a
// constant false and the optimizer removes every call site.
package tracelog

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/timandy/routine"
)

// Enabled is true if the generator is being built with the debug tag.
const Enabled = true

var (
	pattern  *regexp.Regexp
	nocap    = flag.Bool("binpac.nocapture", false, "disables capturing debug logs as test logs")
)

func init() {
	flag.Func("binpac.filter", "regexp to filter debug logs by", func(s string) (err error) {
		pattern, err = regexp.Compile(s)
		return err
	})
}

// Log prints debugging information to stderr.
//
// context is optional args for fmt.Printf that are printed before operation,
// used to identify which compilation (which [CodeGen]) a log line belongs
// to when several run within one process.
func Log(context []any, operation string, format string, args ...any) {
	skip := 1
again:
	pc, file, line, _ := runtime.Caller(skip)

	fn := runtime.FuncForPC(pc)
	name := fn.Name()
	name = name[strings.LastIndex(name, ".")+1:]
	if strings.HasPrefix(name, "log") || strings.Contains(name, "Log") {
		skip++
		goto again
	}

	pkg := fn.Name()
	pkg = strings.TrimPrefix(pkg, "github.com/binpac-dev/corepac/")
	pkg = strings.TrimPrefix(pkg, "internal/")
	if idx := strings.Index(pkg, "."); idx >= 0 {
		pkg = pkg[:idx]
	}

	file = filepath.Base(file)

	buf := new(strings.Builder)
	fmt.Fprintf(buf, "%s/%s:%d [g%04d", pkg, file, line, routine.Goid())
	if len(context) >= 1 {
		fmt.Fprintf(buf, ", "+context[0].(string), context[1:]...)
	}
	fmt.Fprintf(buf, "] %s: ", operation)
	fmt.Fprintf(buf, format, args...)

	if pattern != nil && !pattern.MatchString(buf.String()) {
		return
	}

	buf.WriteByte('\n')
	os.Stderr.WriteString(buf.String())
	os.Stderr.Sync()

	_ = nocap
}

// Assert panics if cond is false, but only in debug mode.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("binpac: internal assertion failed: "+format, args...))
	}
}

// Value is a value of any type that only exists when the debug tag is
// enabled. Used to attach diagnostic-only fields (e.g. a resolved grammar
// snapshot) to production types without paying for them in release builds.
type Value[T any] struct{ x T }

// Get returns a pointer to this value. Only meaningful in debug mode.
func (v *Value[T]) Get() *T { return &v.x }
