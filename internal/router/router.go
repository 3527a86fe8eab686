// Package router implements the shard write-routing policy of spec.md
// §4.7: a document is routed to whichever shard currently has the
// smallest amount of uncommitted data, load-balancing ingest across
// shards that are each independently lockable.
package router

import (
	"runtime"
	"sync"
)

// Shard is the subset of a shard's behavior the router needs: its
// current uncommitted size, used purely for load-balancing decisions.
type Shard interface {
	UncommittedSize() int
}

// DefaultShardCount returns runtime.NumCPU(), the number of logical CPUs
// usable by the process; it does not count physical cores.
func DefaultShardCount() int {
	return runtime.NumCPU()
}

// Router tracks a fixed set of shards and picks the least-loaded one for
// each new document, per spec.md §4.7.
type Router struct {
	mu     sync.Mutex
	shards []Shard
}

func New(shards []Shard) *Router {
	return &Router{shards: shards}
}

// NumShards returns the configured shard count.
func (r *Router) NumShards() int {
	return len(r.shards)
}

// Route picks the shard index with the smallest uncommitted size,
// breaking ties toward the lowest index for determinism.
func (r *Router) Route() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	best := 0
	bestSize := r.shards[0].UncommittedSize()
	for i := 1; i < len(r.shards); i++ {
		if s := r.shards[i].UncommittedSize(); s < bestSize {
			best = i
			bestSize = s
		}
	}
	return best
}

// SmallestShard exposes the same choice as Route without committing to
// routing a document there, for an external rate limiter to consult
// (spec.md §5: "`internal/router` exposes a `SmallestShard() int` hook a
// caller-side limiter could use").
func (r *Router) SmallestShard() int {
	return r.Route()
}
