package vmm

import "memcore/kernel/mem"

// pageTableFlag is one of the low flag bits of a PDE or PTE word.
type pageTableFlag uint32

const (
	// FlagPresent marks a PDE/PTE as backed by a real frame.
	FlagPresent pageTableFlag = 1 << 0
	// FlagWritable marks a PDE/PTE as writable.
	FlagWritable pageTableFlag = 1 << 1
	// FlagUser marks a PDE/PTE as accessible from user-level code.
	FlagUser pageTableFlag = 1 << 2
)

// entry is a single 32-bit page-directory or page-table word: the low 12
// bits carry flags, the high 20 bits carry a frame number.
type entry uint32

func newEntry(frameNo uint32, flags pageTableFlag) entry {
	return entry(frameNo<<mem.FrameShift) | entry(flags)
}

func (e entry) present() bool  { return e&entry(FlagPresent) != 0 }
func (e entry) writable() bool { return e&entry(FlagWritable) != 0 }
func (e entry) user() bool     { return e&entry(FlagUser) != 0 }

func (e entry) frameNumber() uint32 { return uint32(e) >> mem.FrameShift }
