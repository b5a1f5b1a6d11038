package tracelog

import (
	"flag"
	"fmt"
)

// Formatter is a fmt.Formatter implementation that just calls a function.
// Used to build lazily-evaluated log arguments so that the (often
// expensive, e.g. a full grammar dump) formatting work is skipped whenever
// a log line is filtered out or tracing is disabled.
type Formatter func(s fmt.State)

// Format implements fmt.Formatter.
func (f Formatter) Format(s fmt.State, verb rune) {
	if verb != 'v' {
		fmt.Fprintf(s, "%%%c(%T=%v)", verb, f, f)
		return
	}
	f(s)
}

func (f Formatter) String() string { return fmt.Sprint(f) }

// Fprintf is like fmt.Sprintf, but the printing is delayed until the
// returned value is formatted with %v.
func Fprintf(format string, args ...any) Formatter {
	return Formatter(func(s fmt.State) { fmt.Fprintf(s, format, args...) })
}

// Dict pretty-prints the given entries as a dictionary, with an optional
// prefix. Entries whose value is nil are left out.
func Dict(prefix any, kv ...any) Formatter {
	return Formatter(func(s fmt.State) {
		if len(kv)%2 != 0 {
			panic("tracelog: length must be divisible by 2")
		}

		if prefix == nil {
			prefix = ""
		}

		first := true
		fmt.Fprintf(s, "%v{", prefix)
		for i := range len(kv) / 2 {
			k := kv[2*i]
			v := kv[2*i+1]
			if v == nil {
				continue
			}

			if !first {
				fmt.Fprint(s, ", ")
			}
			first = false
			fmt.Fprintf(s, "%v: %v", k, v)
		}
		fmt.Fprint(s, "}")
	})
}

// LookupFlag looks up a registered flag by name of the given type.
//
// Panics if this flag is of the wrong type, or if the flag value is not a
// [flag.Getter].
func LookupFlag[T any](name string) T {
	return flag.Lookup(name).Value.(flag.Getter).Get().(T) //nolint:errcheck
}
