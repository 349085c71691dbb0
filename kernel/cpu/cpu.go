// Package cpu declares the x86 control-register and CPU-control contract
// that the memory-management core depends on but does not implement: the
// low-level accessors are consumed here, not defined here.
//
// Each accessor is a reassignable package variable rather than a direct
// function, so that callers in kernel/mm/vmm can be exercised under
// "go test" with fakes instead of real hardware. Boot-time platform glue
// assigns the real accessors during early initialization.
package cpu

// ReadCR0Fn reads the CR0 control register. Bit 31 (PG) enables paging.
var ReadCR0Fn = notWired("ReadCR0")

// WriteCR0Fn writes the CR0 control register.
var WriteCR0Fn = func(uint32) { notWired("WriteCR0")() }

// ReadCR2Fn reads CR2, the faulting linear address left by the last page
// fault. Trap glue (external to this module) reads it and passes the value
// to vmm.PageTable.HandleFault as part of the fault record.
var ReadCR2Fn = notWired("ReadCR2")

// ReadCR3Fn reads CR3, the physical address of the currently active page
// directory.
var ReadCR3Fn = notWired("ReadCR3")

// WriteCR3Fn writes CR3, installing a new page directory and implicitly
// flushing the TLB.
var WriteCR3Fn = func(uint32) { notWired("WriteCR3")() }

// HaltFn stops instruction execution. Used by kernel.Panic.
var HaltFn = func() { notWired("Halt")() }

// FlushTLBEntryFn invalidates a single TLB entry for the given linear
// address.
var FlushTLBEntryFn = func(uintptr) { notWired("FlushTLBEntry")() }

// notWired returns a ReadCR0Fn/ReadCR2Fn/ReadCR3Fn-shaped stub that panics
// if called before platform glue has wired the real accessor. This keeps
// an un-initialized cpu package from silently returning zero values that
// would be misread as "no paging enabled" or "no fault address".
func notWired(name string) func() uint32 {
	return func() uint32 {
		panic("cpu: " + name + " not wired to hardware")
	}
}
