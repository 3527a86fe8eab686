// Package commit implements the per-shard commit protocol of spec.md
// §4.6: a single-writer latch that quiesces in-flight ingest while a
// commit runs, and a skip-when-empty guard so a commit with zero
// uncommitted documents is a no-op.
package commit

import (
	"sync"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("litsearch/commit")

// Latch is a shard's single-writer, multi-reader lock: ingest
// (index_document) calls and reads hold it for read, a commit holds it
// for write while it quiesces every in-flight call, flushes the segment
// buffer to a new level, and updates metadata (spec.md §4.6, step 1).
// Modeled on the teacher's `store`'s write-preferring `stateLk`
// (`store/store.go`), which serializes Flush against concurrent Put/Get.
type Latch struct {
	mu sync.RWMutex
}

// Ingest acquires the latch for a single index_document/read call.
func (l *Latch) Ingest() func() {
	l.mu.RLock()
	return l.mu.RUnlock
}

// Commit acquires the latch exclusively, quiescing every in-flight
// ingest/read call before returning.
func (l *Latch) Commit() func() {
	l.mu.Lock()
	return l.mu.Unlock
}

// UncommittedCounter returns how many uncommitted documents a shard holds;
// zero means there is nothing to commit. Commit protocols should call it
// under no lock (or under the ingest lock)
// before acquiring the exclusive latch, mirroring the teacher's
// `outstandingWork` guard in `store/store.go`'s `Flush` ("Skip the
// commit entirely when there are zero uncommitted documents on every
// shard", spec.md §4.6).
type UncommittedCounter func() int

// ShouldSkip reports whether a commit can be skipped entirely because
// there is no uncommitted work.
func ShouldSkip(uncommitted UncommittedCounter) bool {
	return uncommitted() == 0
}

// Sequence runs one shard's commit steps in order, logging start/finish
// at the same granularity the teacher's Flush does. step must perform
// (2) flush-to-level, (3) metadata update, and (4) fsync; Sequence only
// owns the latch acquisition/release (steps 1 and 5) and the skip guard.
func Sequence(l *Latch, uncommitted UncommittedCounter, step func() error) error {
	if ShouldSkip(uncommitted) {
		return nil
	}
	release := l.Commit()
	defer release()

	log.Debug("commit starting")
	if err := step(); err != nil {
		log.Errorf("commit failed: %v", err)
		return err
	}
	log.Debug("commit finished")
	return nil
}
