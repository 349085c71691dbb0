// Package pmm implements the physical frame pool: a contiguous bitmap-based
// allocator for fixed-size (mem.FrameSize) physical memory frames.
package pmm

import (
	"memcore/kernel"
	"memcore/kernel/console"
	"memcore/kernel/mem"
)

var (
	errOutOfFrames = &kernel.Error{Module: "pmm", Message: "out of frames"}
	errBadGeometry = &kernel.Error{Module: "pmm", Message: "frame pool band length must be a multiple of 4"}
	errNotFree     = &kernel.Error{Module: "pmm", Message: "mark_inaccessible target is not entirely free"}
)

// FramePool manages a contiguous band of equally-sized physical frames.
type FramePool struct {
	baseFrameNo uint32
	nFrames     uint32

	infoFrameNo uint32
	nInfoFrames uint32

	nFreeFrames uint32
	bitmap      []byte
}

// NewFramePool constructs a frame pool covering the band
// [baseFrameNo, baseFrameNo+nFrames). If infoFrameNo is 0, the pool's
// bookkeeping bitmap is considered to live in the band's own first frame,
// which is marked HEAD (a one-frame allocated run) at construction.
// Otherwise the caller is expected to reserve [infoFrameNo, infoFrameNo+
// nInfoFrames) via MarkInaccessible on the owning pool once it is known.
//
// Bands whose length is not a multiple of 4 are rejected: the bitmap packs
// 4 cells per byte and a partial trailing byte would leave undefined cells
// reachable by GetFrames.
func NewFramePool(baseFrameNo, nFrames, infoFrameNo, nInfoFrames uint32) *FramePool {
	kernel.Assert(nFrames%4 == 0, errBadGeometry)

	p := &FramePool{
		baseFrameNo: baseFrameNo,
		nFrames:     nFrames,
		infoFrameNo: infoFrameNo,
		nInfoFrames: nInfoFrames,
		nFreeFrames: nFrames,
		bitmap:      make([]byte, nFrames/4),
	}

	if infoFrameNo == 0 {
		setCell(p.bitmap, 0, cellHead)
		p.nFreeFrames--
	}

	return p
}

// BaseFrameNo returns the first frame number of this pool's band.
func (p *FramePool) BaseFrameNo() uint32 { return p.baseFrameNo }

// NFrames returns the size of this pool's band.
func (p *FramePool) NFrames() uint32 { return p.nFrames }

// NFreeFrames returns the number of FREE cells, maintained incrementally.
func (p *FramePool) NFreeFrames() uint32 { return p.nFreeFrames }

// Owns reports whether frameNo falls within this pool's band.
func (p *FramePool) Owns(frameNo uint32) bool {
	return frameNo >= p.baseFrameNo && frameNo < p.baseFrameNo+p.nFrames
}

// GetFrames scans the bitmap for the first run of at least n consecutive
// FREE cells, in ascending frame order, restarting the run whenever a
// non-FREE cell is encountered. On success it marks the first cell HEAD and
// the following n-1 cells ALLOCATED and returns the absolute frame number
// of the HEAD. On failure it logs OUT_OF_FRAMES and returns 0 without
// mutating the bitmap.
//
// n == 0 is treated as n == 1: a non-allocating "success" would be the
// wrong choice for callers that only ever check for a zero return on
// failure.
func (p *FramePool) GetFrames(n uint32) uint32 {
	if n == 0 {
		n = 1
	}

	var runStart, runLen uint32
	found := false
	for k := uint32(0); k < p.nFrames; k++ {
		if getCell(p.bitmap, k) == cellFree {
			if runLen == 0 {
				runStart = k
			}
			runLen++
			if runLen == n {
				found = true
				break
			}
			continue
		}
		runLen = 0
	}

	if !found {
		console.Logf("pmm", errOutOfFrames.Message)
		return 0
	}

	setCell(p.bitmap, runStart, cellHead)
	for k := runStart + 1; k < runStart+n; k++ {
		setCell(p.bitmap, k, cellAllocated)
	}
	p.nFreeFrames -= n

	return p.baseFrameNo + runStart
}

// MarkInaccessible marks the n frames starting at base (an absolute frame
// number within this pool's band) as permanently reserved: cell 0 of the
// run becomes HEAD and the remaining n-1 become INACCESSIBLE, distinct from
// an ordinary allocated run so that ReleaseFrames never frees them. The
// HEAD cell itself is not protected: ReleaseFrames(base) frees that one
// frame and stops at the first INACCESSIBLE cell.
//
// All targeted cells must currently be FREE; violating this precondition
// would silently corrupt nFreeFrames, so it is enforced as a fatal
// assertion rather than ignored.
func (p *FramePool) MarkInaccessible(base, n uint32) {
	start := base - p.baseFrameNo

	allFree := true
	for k := start; k < start+n; k++ {
		if getCell(p.bitmap, k) != cellFree {
			allFree = false
			break
		}
	}
	kernel.Assert(allFree, errNotFree)

	setCell(p.bitmap, start, cellHead)
	for k := start + 1; k < start+n; k++ {
		setCell(p.bitmap, k, cellInaccessible)
	}
	p.nFreeFrames -= n
}

// releaseAt implements the per-pool half of ReleaseFrames: it assumes the
// caller (the Registry) has already verified that headFrameNo falls within
// this pool's band.
func (p *FramePool) releaseAt(headFrameNo uint32) *kernel.Error {
	start := headFrameNo - p.baseFrameNo

	if getCell(p.bitmap, start) != cellHead {
		return &kernel.Error{Module: "pmm", Message: "release_frames target is not the head of an allocated sequence"}
	}

	setCell(p.bitmap, start, cellFree)
	p.nFreeFrames++

	for k := start + 1; k < p.nFrames && getCell(p.bitmap, k) == cellAllocated; k++ {
		setCell(p.bitmap, k, cellFree)
		p.nFreeFrames++
	}

	return nil
}

// NeededInfoFrames returns the number of frames required to hold the
// bitmap metadata for a band of n frames: each info frame covers
// FrameSize*4 bitmap-tracked frames at 2 bits per frame.
func NeededInfoFrames(n uint32) uint32 {
	framesPerInfoFrame := uint32(mem.FrameSize) * 4
	return (n + framesPerInfoFrame - 1) / framesPerInfoFrame
}
