package dataset

import (
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// SliceTracker records which slice indices of one parameter have had a
// block file generated, using a compressed bitmap so tracking a
// dataset with millions of time steps stays cheap. Grounded on the
// teacher's own roaring-bitmap tile-existence tracking, repurposed here
// for slice indices instead of map tile ids.
type SliceTracker struct {
	mu     sync.Mutex
	bitmap *roaring.Bitmap
}

// NewSliceTracker builds an empty tracker.
func NewSliceTracker() *SliceTracker {
	return &SliceTracker{bitmap: roaring.NewBitmap()}
}

// MarkGenerated records that sliceIndex now has a block file on disk.
func (t *SliceTracker) MarkGenerated(sliceIndex int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bitmap.Add(uint32(sliceIndex))
}

// IsGenerated reports whether sliceIndex has been marked.
func (t *SliceTracker) IsGenerated(sliceIndex int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bitmap.Contains(uint32(sliceIndex))
}

// Count returns the number of generated slices tracked.
func (t *SliceTracker) Count() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bitmap.GetCardinality()
}

// ToArray returns the sorted generated slice indices.
func (t *SliceTracker) ToArray() []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bitmap.ToArray()
}
