package kernel

import (
	"memcore/kernel/console"
	"memcore/kernel/cpu"
)

// cpuHaltFn is a package variable rather than a direct call to cpu.HaltFn
// so tests can substitute a non-halting fake.
var cpuHaltFn = cpu.HaltFn

var errUnknownCause = &Error{Module: "rt", Message: "unknown cause"}

// Panic reports e to the console, if non-nil, then halts the CPU. e may be
// an *Error, a plain error, a string, or nil; anything else is reported as
// an error with an unknown cause. Panic never returns.
func Panic(e interface{}) {
	banner(toError(e))
	cpuHaltFn()
}

func toError(e interface{}) *Error {
	switch t := e.(type) {
	case nil:
		return nil
	case *Error:
		return t
	case string:
		return &Error{Module: errUnknownCause.Module, Message: t}
	case error:
		return &Error{Module: errUnknownCause.Module, Message: t.Error()}
	default:
		return errUnknownCause
	}
}

func banner(err *Error) {
	const rule = "-----------------------------------"
	console.Puts(rule)
	if err != nil {
		console.Logf(err.Module, "unrecoverable error: "+err.Message)
	}
	console.Puts("*** kernel panic: system halted ***")
	console.Puts(rule)
}
