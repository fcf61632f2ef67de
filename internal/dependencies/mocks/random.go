package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/roomserver/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	mu sync.Mutex

	// IDResults is a queue of results to return from ID
	IDResults []string
	idIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// ID returns the next queued result. Once the queue is exhausted it
// returns sequential "id-N" values so callers still get unique IDs.
func (r *MockRandom) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.idIndex++ }()
	if r.idIndex >= len(r.IDResults) {
		return fmt.Sprintf("id-%d", r.idIndex+1)
	}
	return r.IDResults[r.idIndex]
}

// QueueID adds values to the ID result queue
func (r *MockRandom) QueueID(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IDResults = append(r.IDResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IDResults = nil
	r.idIndex = 0
}
