package vmm

import (
	"encoding/binary"

	"memcore/kernel"
	"memcore/kernel/console"
	"memcore/kernel/cpu"
	"memcore/kernel/mem"
)

// regionDescriptorSize is the width of one region descriptor as stored in
// the pool's own page: a 4-byte base address and a 4-byte size,
// little-endian.
const regionDescriptorSize = 8

// maxRegions bounds how many region descriptors fit in a single page, and
// so is this VMPool's VMP_FULL ceiling on the number of live regions.
var maxRegions = uint32(mem.PageSize) / regionDescriptorSize

var (
	errVMPFull        = &kernel.Error{Module: "vmm", Message: "VMP_FULL: no room for another region descriptor"}
	errRegionNotFound = &kernel.Error{Module: "vmm", Message: "REGION_NOT_FOUND: address does not start a known region"}
	errPoolExhausted  = &kernel.Error{Module: "vmm", Message: "virtual address pool exhausted"}
)

type region struct {
	base uint32
	size uint32
}

// VMPool is a per-address-space virtual memory region allocator carving a
// single contiguous virtual range into regions of arbitrary byte size.
// Allocate reserves address ranges only — the first real access to an
// allocated range is what demand-pages a frame into it, through
// PageTable.HandleFault.
//
// Its region descriptors are not duplicated in a separate Go structure:
// the pool's own first page is the single source of truth, read and
// written through pt.Bytes exactly as any other page of the address space
// would be. Page 0 of the pool's range is reserved for this table and is
// never itself described by a region entry; regions[0] is the first
// region a caller actually allocates.
type VMPool struct {
	base     uint32
	limit    uint32
	cursor   uint32
	pt       *PageTable
	regionNo uint32
}

// NewVMPool reserves [base, base+size) for a new pool. Construction does
// not touch the pool's own metadata page; the region table lives at base
// even though its backing frame does not yet exist. The first real
// Allocate call is what writes regions[0] and so triggers the demand-paging
// fault that brings that page in — is_legitimate(base) already returns
// true by then because RegisterVMPool runs here, before any fault can
// reference this pool.
func NewVMPool(base uint32, size mem.Size, pt *PageTable) *VMPool {
	p := &VMPool{
		base:   base,
		limit:  base + uint32(size),
		cursor: base + uint32(mem.PageSize),
		pt:     pt,
	}
	pt.RegisterVMPool(p)
	return p
}

// IsLegitimate reports whether addr falls within this pool's reserved
// range. PageTable.HandleFault calls this across every registered pool to
// decide whether a fault should be serviced or rejected.
func (p *VMPool) IsLegitimate(addr uint32) bool {
	return addr >= p.base && addr < p.limit
}

// Allocate reserves a new region of size bytes, rounded up to a whole
// number of pages, and returns its base address. bytes == 0 returns 0.
// The first allocation reserves page 0 for the pool's own metadata and
// returns base_address + F; every later call places its region
// immediately after the previous one — regions are handed out in address
// order with no free-list and no coalescing of released gaps.
func (p *VMPool) Allocate(size mem.Size) uint32 {
	if size == 0 {
		return 0
	}
	kernel.Assert(p.regionNo < maxRegions, errVMPFull)

	regionSize := size.Pages() * uint32(mem.PageSize)
	if p.cursor+regionSize > p.limit {
		console.Logf(errPoolExhausted.Module, errPoolExhausted.Message)
		return 0
	}

	base := p.cursor
	if err := p.storeRegion(p.regionNo, region{base: base, size: regionSize}); err != nil {
		console.Logf(err.Module, err.Message)
		return 0
	}
	p.regionNo++
	p.cursor += regionSize

	return base
}

// Release frees the region starting at addr: every page it covers is
// unmapped through PageTable.FreePage, the descriptor is removed by
// shifting every later entry left one slot, and region_no is decremented.
// The search is bounded by region_no, not by the table's full capacity,
// since scanning past it would walk descriptors that were never written.
func (p *VMPool) Release(addr uint32) *kernel.Error {
	for i := uint32(0); i < p.regionNo; i++ {
		r, err := p.loadRegion(i)
		if err != nil {
			return err
		}
		if r.base != addr {
			continue
		}

		for page := r.base; page < r.base+r.size; page += uint32(mem.PageSize) {
			// A page that was never touched was never demand-paged in and
			// has nothing to free; only a genuine failure propagates.
			if err := p.pt.FreePage(page); err != nil && err != errPageNotMapped {
				return err
			}
		}

		for j := i; j < p.regionNo-1; j++ {
			next, err := p.loadRegion(j + 1)
			if err != nil {
				return err
			}
			if err := p.storeRegion(j, next); err != nil {
				return err
			}
		}
		p.regionNo--

		cpu.WriteCR3Fn(uint32(mem.FrameAddress(p.pt.directoryFrame)))
		return nil
	}

	kernel.Assert(false, errRegionNotFound)
	return errRegionNotFound
}

func (p *VMPool) storeRegion(index uint32, r region) *kernel.Error {
	b, err := p.pt.Bytes(p.base)
	if err != nil {
		return err
	}
	off := index * regionDescriptorSize
	binary.LittleEndian.PutUint32(b[off:], r.base)
	binary.LittleEndian.PutUint32(b[off+4:], r.size)
	return nil
}

func (p *VMPool) loadRegion(index uint32) (region, *kernel.Error) {
	b, err := p.pt.Bytes(p.base)
	if err != nil {
		return region{}, err
	}
	off := index * regionDescriptorSize
	return region{
		base: binary.LittleEndian.Uint32(b[off:]),
		size: binary.LittleEndian.Uint32(b[off+4:]),
	}, nil
}
