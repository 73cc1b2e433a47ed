package indexer

import (
	"context"
	"sync"
	"sync/atomic"
)

// Holder publishes the current snapshot to concurrent readers. Rebuilds are
// serialized and swap the snapshot only once it is complete and persisted.
type Holder struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

func NewHolder(snap *Snapshot) *Holder {
	h := &Holder{}
	h.current.Store(snap)
	return h
}

// Current returns the published snapshot, or nil before the first Store.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

func (h *Holder) Store(snap *Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current.Store(snap)
}

// Rebuild builds a fresh snapshot from the corpus, persists it and publishes
// it. On failure the previous snapshot and artifacts stay in place.
func (h *Holder) Rebuild(ctx context.Context, b *Builder, paths Paths) (*Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap, err := b.Build(ctx, paths.Corpus)
	if err != nil {
		return nil, err
	}
	if err := b.Persist(paths, snap); err != nil {
		return nil, err
	}
	h.current.Store(snap)
	return snap, nil
}
