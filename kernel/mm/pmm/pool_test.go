package pmm

import "testing"

// S1: pool init.
func TestPoolInitAndFirstAlloc(t *testing.T) {
	p := NewFramePool(512, 1024, 0, 0)

	if got, exp := p.bitmap[0], byte(0x40); got != exp {
		t.Fatalf("expected bitmap byte 0 = %#x; got %#x", exp, got)
	}
	if got, exp := p.NFreeFrames(), uint32(1023); got != exp {
		t.Fatalf("expected n_free_frames = %d; got %d", exp, got)
	}

	frame := p.GetFrames(1)
	if got, exp := frame, uint32(513); got != exp {
		t.Fatalf("expected GetFrames(1) to return 513; got %d", got)
	}
	if got, exp := p.bitmap[0], byte(0x50); got != exp {
		t.Fatalf("expected bitmap byte 0 = %#x after second allocation; got %#x", exp, got)
	}
}

// S2: contiguous search around an inaccessible barrier.
func TestContiguousSearchAroundBarrier(t *testing.T) {
	p := NewFramePool(0, 16, 1, 1)
	p.MarkInaccessible(4, 2)

	if got := p.GetFrames(4); got != 0 {
		t.Fatalf("expected GetFrames(4) to fit in frames 0..3 and return 0; got %d", got)
	}
	if got := p.GetFrames(6); got != 6 {
		t.Fatalf("expected GetFrames(6) to return 6; got %d", got)
	}
}

// S3: release walk leaves the inaccessible barrier untouched.
func TestReleaseWalk(t *testing.T) {
	p := NewFramePool(0, 16, 1, 1)
	p.MarkInaccessible(4, 2)
	p.GetFrames(4)
	p.GetFrames(6)

	var reg Registry
	reg.Register(p)

	if err := reg.ReleaseFrames(0); err != nil {
		t.Fatalf("unexpected error releasing frame 0: %v", err)
	}

	for k := uint32(0); k < 4; k++ {
		if getCell(p.bitmap, k) != cellFree {
			t.Errorf("expected cell %d to be FREE after release", k)
		}
	}
	if getCell(p.bitmap, 4) != cellHead || getCell(p.bitmap, 5) != cellInaccessible {
		t.Errorf("expected cells 4..5 to remain the inaccessible barrier (head=4 got %v, interior=5 got %v)", getCell(p.bitmap, 4), getCell(p.bitmap, 5))
	}
	for k := uint32(6); k < 12; k++ {
		if getCell(p.bitmap, k) == cellFree {
			t.Errorf("expected cell %d to remain allocated", k)
		}
	}
}

func TestGetFramesOutOfFrames(t *testing.T) {
	p := NewFramePool(0, 8, 0, 0)
	before := append([]byte(nil), p.bitmap...)

	if got := p.GetFrames(100); got != 0 {
		t.Fatalf("expected GetFrames to fail and return 0; got %d", got)
	}
	for i := range before {
		if p.bitmap[i] != before[i] {
			t.Fatalf("expected failed GetFrames to leave the bitmap untouched")
		}
	}
}

func TestGetFramesZeroTreatedAsOne(t *testing.T) {
	p := NewFramePool(0, 8, 0, 0)
	frame := p.GetFrames(0)
	if frame == 0 {
		t.Fatalf("expected GetFrames(0) to allocate a single frame, not fail")
	}
	if p.NFreeFrames() != 6 {
		t.Fatalf("expected exactly one additional frame consumed; free=%d", p.NFreeFrames())
	}
}

func TestMarkInaccessibleRejectsNonFreeCells(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected MarkInaccessible to assert on a non-free target")
		}
	}()
	p := NewFramePool(0, 8, 1, 1)
	p.GetFrames(2)
	p.MarkInaccessible(0, 2) // overlaps the just-allocated run
}

// Property 1: conservation of FREE+ALLOCATED+INACCESSIBLE cells.
func TestFrameConservation(t *testing.T) {
	p := NewFramePool(100, 64, 0, 0)
	var reg Registry
	reg.Register(p)

	allocs := []uint32{3, 5, 2, 8}
	var heads []uint32
	for _, n := range allocs {
		if h := p.GetFrames(n); h != 0 {
			heads = append(heads, h)
		}
	}

	free, alloc, inacc := countCells(p)
	if free+alloc+inacc != p.nFrames {
		t.Fatalf("cell accounting mismatch: free=%d alloc=%d inacc=%d total=%d want=%d", free, alloc, inacc, free+alloc+inacc, p.nFrames)
	}
	if p.NFreeFrames() != free {
		t.Fatalf("n_free_frames=%d does not match counted FREE cells=%d", p.NFreeFrames(), free)
	}

	for _, h := range heads {
		reg.ReleaseFrames(h)
	}
	// Every released run is FREE again; only the in-band metadata frame
	// (cell 0, HEAD since construction) stays allocated.
	free, alloc, inacc = countCells(p)
	if free != p.nFrames-1 || alloc != 1 || inacc != 0 {
		t.Fatalf("expected full release to leave only the metadata frame allocated; free=%d alloc=%d inacc=%d", free, alloc, inacc)
	}
}

func countCells(p *FramePool) (free, alloc, inacc uint32) {
	for k := uint32(0); k < p.nFrames; k++ {
		switch getCell(p.bitmap, k) {
		case cellFree:
			free++
		case cellHead, cellAllocated:
			alloc++
		case cellInaccessible:
			inacc++
		}
	}
	return
}

// Property 3: release on a non-HEAD frame never mutates the bitmap.
func TestReleaseNonHeadIsNoop(t *testing.T) {
	p := NewFramePool(0, 16, 0, 0)
	head := p.GetFrames(4)

	var reg Registry
	reg.Register(p)

	before := append([]byte(nil), p.bitmap...)
	if err := reg.ReleaseFrames(head + 1); err == nil {
		t.Fatal("expected releasing an interior frame to fail")
	}
	for i := range before {
		if p.bitmap[i] != before[i] {
			t.Fatalf("expected bitmap to be unchanged after a rejected release")
		}
	}
}

func TestNeededInfoFrames(t *testing.T) {
	if got, exp := NeededInfoFrames(1), uint32(1); got != exp {
		t.Errorf("expected NeededInfoFrames(1) = %d; got %d", exp, got)
	}
	if got, exp := NeededInfoFrames(4096*4), uint32(1); got != exp {
		t.Errorf("expected exact multiple to need 1 info frame; got %d", got)
	}
	if got, exp := NeededInfoFrames(4096*4+1), uint32(2); got != exp {
		t.Errorf("expected one extra frame to need 2 info frames; got %d", got)
	}
}
