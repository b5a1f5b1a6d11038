package tracelog

import (
	"fmt"
	"runtime"
	"strings"
)

// Unsupported returns an "unimplemented" error for the calling function,
// naming that function in its message. The composer does not use it; it
// reports the production kinds it leaves unimplemented with its own
// ErrNotImplemented.
func Unsupported() error {
	pc, _, _, _ := runtime.Caller(1)
	return &errUnsupported{pc}
}

type errUnsupported struct{ pc uintptr }

func (e *errUnsupported) Error() string {
	name := runtime.FuncForPC(e.pc).Name()
	if name == "" {
		return "binpac: unsupported operation"
	}

	slash := strings.LastIndexByte(name, '/')
	name = name[slash+1:]
	return fmt.Sprintf("binpac: %s() is not supported", name)
}
