package services

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// SeenFilter remembers match ids that have already been stored so repeated
// submissions skip straight to the duplicate check. A hit is only "maybe";
// callers confirm against the store.
type SeenFilter struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
}

func NewSeenFilter(capacity uint) *SeenFilter {
	if capacity == 0 {
		capacity = 100000
	}
	return &SeenFilter{filter: bloom.NewWithEstimates(capacity, 0.001)}
}

// MaybeSeen reports whether id may have been added before.
func (f *SeenFilter) MaybeSeen(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter.TestString(id)
}

func (f *SeenFilter) Add(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.AddString(id)
}
