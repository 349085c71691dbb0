// Package vmm implements the two-level x86-32 paged translator (PageTable)
// and the per-address-space region allocator (VMPool) built on top of it.
package vmm

import (
	"memcore/kernel"
	"memcore/kernel/console"
	"memcore/kernel/cpu"
	"memcore/kernel/mem"
	"memcore/kernel/mm/physmem"
	"memcore/kernel/mm/pmm"
)

const (
	numPDEntries = 1024
	numPTEntries = 1024

	// selfMapIndex is the directory slot every PageTable points back at its
	// own frame, giving the fixed recursive-mapping addresses below once
	// paging is enabled.
	selfMapIndex = 1023

	// selfMapDirectoryAddr and selfMapTableBase are the virtual addresses
	// real x86 hardware exposes through the self-map: 0xFFFFF000 always
	// reads the active directory, and 0xFFC00000|(d<<12) always reads page
	// table d, regardless of which address space is active. A hosted Go
	// process has no MMU to honor these addresses, so kernel/mm/vmm reaches
	// the same words by frame-number indexing into kernel/mm/physmem
	// instead (see DirectoryEntry/TableEntry below); the constants are kept
	// for documentation and for SelfMapTableAddress, which computes the
	// address real trap glue would use.
	selfMapDirectoryAddr = 0xFFFFF000
	selfMapTableBase     = 0xFFC00000

	cr0PagingBit = 1 << 31
)

var (
	errNoDirectoryFrame  = &kernel.Error{Module: "vmm", Message: "out of frames constructing page directory"}
	errNoTableFrame      = &kernel.Error{Module: "vmm", Message: "out of frames constructing shared page table"}
	errIllegitimateFault = &kernel.Error{Module: "vmm", Message: "ILLEGITIMATE_FAULT: address not claimed by any registered pool"}
	errOutOfFrames       = &kernel.Error{Module: "vmm", Message: "out of frames servicing page fault"}
	errPageNotMapped     = &kernel.Error{Module: "vmm", Message: "free_page target is not mapped"}
)

// Static configuration shared by every PageTable in the process, set once
// by Init before any PageTable is constructed and before any concurrency
// exists, so it is safe as package state rather than something threaded
// through every call.
var (
	kernelMemPool  *pmm.FramePool
	processMemPool *pmm.FramePool
	frameRegistry  *pmm.Registry
	sharedSize     mem.Size
	ram            *physmem.Memory
	pagingEnabled  bool
)

// Init configures the package-wide state every PageTable and VMPool draws
// on: the frame pool funding directories and shared page tables built
// before paging is enabled, the frame pool funding every demand-paged frame
// and every directory built afterward, the registry ReleaseFrames/FreePage route through,
// the size of the identity-mapped shared region, and the simulated physical
// address space backing every directory, table and VMPool region table.
func Init(kernelPool, processPool *pmm.FramePool, registry *pmm.Registry, shared mem.Size, backing *physmem.Memory) {
	kernelMemPool = kernelPool
	processMemPool = processPool
	frameRegistry = registry
	sharedSize = shared
	ram = backing
	pagingEnabled = false
}

// SelfMapTableAddress returns the fixed virtual address real x86 hardware
// would expose page table pdIdx at, via the self-map.
func SelfMapTableAddress(pdIdx uint32) uint32 {
	return selfMapTableBase | (pdIdx << mem.FrameShift)
}

// PageTable is a two-level x86-32 address-space translator: one page
// directory, its page tables, and the process's registered VMPools.
type PageTable struct {
	directoryFrame uint32
	vmPools        []*VMPool
}

func allocatingPool() *pmm.FramePool {
	if pagingEnabled {
		return processMemPool
	}
	return kernelMemPool
}

// Construct builds a fresh page directory: the shared region (the first
// sharedSize bytes of the address space) identity-mapped present+writable
// through one shared page table, every other PDE left non-present+writable
// (value 0x2, so HandleFault sees "not present" rather than an
// uninitialized word), and the self-map installed at slot 1023.
func Construct() *PageTable {
	pool := allocatingPool()

	dirFrame := pool.GetFrames(1)
	kernel.Assert(dirFrame != 0, errNoDirectoryFrame)
	ram.Zero(dirFrame)

	blankPDE := entry(FlagWritable)
	for pdIdx := uint32(0); pdIdx < numPDEntries; pdIdx++ {
		writeEntry(dirFrame, pdIdx, blankPDE)
	}

	tableFrame := pool.GetFrames(1)
	kernel.Assert(tableFrame != 0, errNoTableFrame)
	ram.Zero(tableFrame)

	nShared := sharedSize.Pages()
	for i := uint32(0); i < nShared; i++ {
		writeEntry(tableFrame, i, newEntry(i, FlagPresent|FlagWritable))
	}
	for i := nShared; i < numPTEntries; i++ {
		writeEntry(tableFrame, i, entry(FlagUser))
	}

	writeEntry(dirFrame, 0, newEntry(tableFrame, FlagPresent|FlagWritable))
	writeEntry(dirFrame, selfMapIndex, newEntry(dirFrame, FlagPresent|FlagWritable))

	return &PageTable{directoryFrame: dirFrame}
}

// Load installs pt as the active address space (CR3) without yet turning
// paging on.
func (pt *PageTable) Load() {
	cpu.WriteCR3Fn(uint32(mem.FrameAddress(pt.directoryFrame)))
}

// EnablePaging sets CR0's PG bit, turning the MMU on, and switches the
// directory and shared page table of every later Construct to the process
// pool instead of the kernel pool. Page tables and data frames installed by
// HandleFault come from the process pool whether or not paging is enabled.
func (pt *PageTable) EnablePaging() {
	cpu.WriteCR0Fn(cpu.ReadCR0Fn() | cr0PagingBit)
	pagingEnabled = true
}

// RegisterVMPool adds p to the set HandleFault consults for its legitimacy
// check. A process registers each of its VMPools once, at construction,
// before any fault referencing it can occur.
func (pt *PageTable) RegisterVMPool(p *VMPool) {
	pt.vmPools = append(pt.vmPools, p)
}

// DirectoryEntry returns the raw PDE word at slot pdIdx — what real
// hardware would expose by dereferencing 0xFFFFF000+4*pdIdx through the
// self-map.
func (pt *PageTable) DirectoryEntry(pdIdx uint32) uint32 {
	return uint32(readEntry(pt.directoryFrame, pdIdx))
}

// TableEntry returns the raw PTE word at slot ptIdx of the page table
// mapped at directory slot pdIdx — what real hardware would expose by
// dereferencing SelfMapTableAddress(pdIdx)+4*ptIdx. pdIdx's PDE must be
// present.
func (pt *PageTable) TableEntry(pdIdx, ptIdx uint32) uint32 {
	de := readEntry(pt.directoryFrame, pdIdx)
	return uint32(readEntry(de.frameNumber(), ptIdx))
}

// HandleFault services a not-present page fault: if any VMPool is
// registered, the faulting address must fall within one of them or the
// fault is rejected as illegitimate; otherwise (or once legitimacy is
// established) a fresh frame is installed at the faulting address.
// Write-protection faults (the page is already present) are not this
// function's concern and are ignored.
func (pt *PageTable) HandleFault(f Fault) *kernel.Error {
	if !f.NotPresent() {
		return nil
	}

	addr := f.LinearAddress

	if len(pt.vmPools) > 0 {
		legitimate := false
		for _, p := range pt.vmPools {
			if p.IsLegitimate(addr) {
				legitimate = true
				break
			}
		}
		if !legitimate {
			console.Logf(errIllegitimateFault.Module, errIllegitimateFault.Message)
			return errIllegitimateFault
		}
	}

	return pt.populate(addr)
}

// touch installs a frame at addr the way HandleFault does, but only if it
// is not already mapped, and without HandleFault's legitimacy check. VMPool uses it to bootstrap its own in-band region
// table: the very act of storing the pool's first region descriptor
// touches an unmapped address and demand-pages it in, the same as any
// other first access.
func (pt *PageTable) touch(addr uint32) *kernel.Error {
	pd := pdIndex(addr)
	de := readEntry(pt.directoryFrame, pd)
	if de.present() {
		te := readEntry(de.frameNumber(), ptIndex(addr))
		if te.present() {
			return nil
		}
	}
	return pt.populate(addr)
}

// populate installs a fresh page table (if needed) and a fresh data frame
// for addr, both drawn from the process pool.
func (pt *PageTable) populate(addr uint32) *kernel.Error {
	pd := pdIndex(addr)
	pti := ptIndex(addr)

	de := readEntry(pt.directoryFrame, pd)
	var tableFrame uint32
	if de.present() {
		tableFrame = de.frameNumber()
	} else {
		tableFrame = processMemPool.GetFrames(1)
		if tableFrame == 0 {
			return errOutOfFrames
		}
		ram.Zero(tableFrame)
		blank := entry(FlagUser)
		for i := uint32(0); i < numPTEntries; i++ {
			writeEntry(tableFrame, i, blank)
		}
		writeEntry(pt.directoryFrame, pd, newEntry(tableFrame, FlagPresent|FlagWritable))
	}

	dataFrame := processMemPool.GetFrames(1)
	if dataFrame == 0 {
		return errOutOfFrames
	}
	ram.Zero(dataFrame)
	writeEntry(tableFrame, pti, newEntry(dataFrame, FlagPresent|FlagWritable))
	return nil
}

// FreePage releases the frame mapped at addr back through the registry and
// marks the PTE non-present. It reloads CR3 to flush the TLB entry for the
// address it just unmapped.
//
// TODO(vmm): sweep a page table back to its pool once every one of its PTEs
// reads non-present. An empty table is currently left mapped and unswept.
func (pt *PageTable) FreePage(addr uint32) *kernel.Error {
	pd := pdIndex(addr)
	pti := ptIndex(addr)

	de := readEntry(pt.directoryFrame, pd)
	if !de.present() {
		return errPageNotMapped
	}
	tableFrame := de.frameNumber()
	te := readEntry(tableFrame, pti)
	if !te.present() {
		return errPageNotMapped
	}

	if err := frameRegistry.ReleaseFrames(te.frameNumber()); err != nil {
		return err
	}

	writeEntry(tableFrame, pti, entry(FlagUser))
	cpu.WriteCR3Fn(uint32(mem.FrameAddress(pt.directoryFrame)))
	return nil
}

// frameFor ensures addr is mapped and returns the backing frame number and
// the byte offset of addr within it.
func (pt *PageTable) frameFor(addr uint32) (frameNo, offset uint32, err *kernel.Error) {
	if err := pt.touch(addr); err != nil {
		return 0, 0, err
	}
	de := readEntry(pt.directoryFrame, pdIndex(addr))
	te := readEntry(de.frameNumber(), ptIndex(addr))
	return te.frameNumber(), addr & uint32(mem.FrameSize-1), nil
}

// Bytes returns the backing storage for addr's page, from addr's offset to
// the end of the page, demand-paging it in first if necessary. VMPool uses
// this to persist its region descriptor table in the first page of its own
// range.
func (pt *PageTable) Bytes(addr uint32) ([]byte, *kernel.Error) {
	frameNo, offset, err := pt.frameFor(addr)
	if err != nil {
		return nil, err
	}
	return ram.Bytes(frameNo)[offset:], nil
}

func pdIndex(addr uint32) uint32 { return addr >> 22 }
func ptIndex(addr uint32) uint32 { return (addr >> 12) & 0x3FF }

func readEntry(frameNo, index uint32) entry {
	return entry(ram.ReadDword(frameNo, index*4))
}

func writeEntry(frameNo, index uint32, e entry) {
	ram.WriteDword(frameNo, index*4, uint32(e))
}
