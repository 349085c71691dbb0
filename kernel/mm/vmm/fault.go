package vmm

// Fault is the record trap glue external to this package passes to
// PageTable.HandleFault. ErrCode mirrors the low bits of the x86 #PF error
// code the CPU pushes on the stack; LinearAddress is the faulting address,
// read from CR2 (kernel/cpu.ReadCR2Fn) by the trap handler before it calls
// HandleFault.
type Fault struct {
	ErrCode       uint32
	LinearAddress uint32
}

// ErrCodePresent, set in ErrCode, means the faulting page was already
// present and the fault is a protection violation rather than the
// not-present kind this core services by installing a frame.
const ErrCodePresent = 1 << 0

// NotPresent reports whether this is a not-present fault, the only kind
// HandleFault services.
func (f Fault) NotPresent() bool {
	return f.ErrCode&ErrCodePresent == 0
}
