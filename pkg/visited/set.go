package visited

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Set is the crawl's memory of claimed URLs. TryVisit is an atomic test-and-set:
// across all concurrent callers it returns true exactly once per key.
type Set interface {
	TryVisit(key string) (bool, error)
	Len() int
	Close() error
}

// Backend names accepted by Open
const (
	Memory = "memory"
	Badger = "badger"
)

// Open creates a set for one crawl run. stateDir and runID are used only by the badger backend.
func Open(backend, stateDir, runID string, logger *logrus.Entry) (Set, error) {
	switch backend {
	case "", Memory:
		return NewMemorySet(), nil
	case Badger:
		return NewBadgerSet(stateDir, runID, logger)
	default:
		return nil, fmt.Errorf("unknown visited backend '%s'", backend)
	}
}

// MemorySet is a mutex-guarded map
type MemorySet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemorySet returns an empty in-memory set
func NewMemorySet() *MemorySet {
	return &MemorySet{seen: make(map[string]struct{})}
}

// TryVisit adds key and reports whether it was absent
func (s *MemorySet) TryVisit(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

// Len returns the number of members
func (s *MemorySet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Contains is a read-only membership check, used for reporting
func (s *MemorySet) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[key]
	return ok
}

// Keys returns a snapshot of the members in no particular order
func (s *MemorySet) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.seen))
	for k := range s.seen {
		keys = append(keys, k)
	}
	return keys
}

// Close is a no-op; the map is left to the garbage collector
func (s *MemorySet) Close() error { return nil }
