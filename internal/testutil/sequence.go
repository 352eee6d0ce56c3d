package testutil

import (
	"sync"

	"github.com/roach88/ecreader/internal/model"
)

// IDSequence hands out instance ids 1, 2, 3, ... for fixtures that do not
// name their ids.
//
// Unlike a database rowid, an IDSequence can be reset for test reuse, so the
// same scenario yields the same ids on every run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type IDSequence struct {
	mu   sync.Mutex
	next uint64
}

// NewIDSequence creates a sequence whose first id is 1.
func NewIDSequence() *IDSequence {
	return &IDSequence{}
}

// Next returns the next id.
func (s *IDSequence) Next() model.InstanceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return model.InstanceID(s.next)
}

// Observe makes sure later ids are greater than id, so explicit fixture ids
// and generated ones never collide.
func (s *IDSequence) Observe(id model.InstanceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(id) > s.next {
		s.next = uint64(id)
	}
}

// Reset starts the sequence over at 1.
func (s *IDSequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = 0
}
