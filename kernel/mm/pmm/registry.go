package pmm

import (
	"memcore/kernel"
	"memcore/kernel/console"
)

var errFrameNotInAnyPool = &kernel.Error{Module: "pmm", Message: "frame not claimed by any registered pool"}

// Registry is the process-wide collection of frame pools that
// ReleaseFrames is routed through: an owning slice, walked with an indexed
// range lookup bounded by its own length.
type Registry struct {
	pools []*FramePool
}

// Register adds pool to the registry. Registration happens once, during
// pool construction and before any concurrency exists.
func (r *Registry) Register(pool *FramePool) {
	r.pools = append(r.pools, pool)
}

// ReleaseFrames finds the pool owning headFrameNo (the unique pool whose
// band contains it) and releases the allocated run starting there. If no
// pool claims the frame, it logs FRAME_NOT_IN_ANY_POOL and returns an
// error without mutating any pool.
func (r *Registry) ReleaseFrames(headFrameNo uint32) *kernel.Error {
	for _, pool := range r.pools {
		if pool.Owns(headFrameNo) {
			if err := pool.releaseAt(headFrameNo); err != nil {
				console.Logf(err.Module, err.Message)
				return err
			}
			return nil
		}
	}

	console.Logf(errFrameNotInAnyPool.Module, errFrameNotInAnyPool.Message)
	return errFrameNotInAnyPool
}
