package server

import "sync"

// Progress is a snapshot of one request's completion state: done and
// failed both only ever increase, and done includes failed tiles (a
// failed tile still counts as "handled"). total is fixed at seed time.
type Progress struct {
	Done, Total, Failed int
}

// ProgressTracker aggregates per-request progress under per-group
// indices, so a client can poll a group id and see every request's
// state at once. All counters are monotonically non-decreasing for the
// lifetime of a request, satisfying the dispatcher's progress-never-
// goes-backward guarantee.
type ProgressTracker struct {
	mu       sync.Mutex
	requests map[uint64]*Progress
	groups   map[uint64][]uint64
}

// NewProgressTracker builds an empty tracker.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{
		requests: make(map[uint64]*Progress),
		groups:   make(map[uint64][]uint64),
	}
}

// Seed registers requestID under groupID with the given tile total and
// zeroed done/failed counts.
func (t *ProgressTracker) Seed(groupID, requestID uint64, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests[requestID] = &Progress{Total: total}
	t.groups[groupID] = append(t.groups[groupID], requestID)
}

// Advance records that one more tile of requestID has been handled;
// failed marks it as a SourceReadFailed/CodecError tile rather than a
// clean hit.
func (t *ProgressTracker) Advance(requestID uint64, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.requests[requestID]
	if !ok {
		return
	}
	p.Done++
	if failed {
		p.Failed++
	}
}

// Request returns the current progress for one request.
func (t *ProgressTracker) Request(requestID uint64) Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.requests[requestID]; ok {
		return *p
	}
	return Progress{}
}

// Group returns the current progress for every request in groupID, in
// the order they were seeded.
func (t *ProgressTracker) Group(groupID uint64) []Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := t.groups[groupID]
	out := make([]Progress, len(ids))
	for i, id := range ids {
		if p, ok := t.requests[id]; ok {
			out[i] = *p
		}
	}
	return out
}
