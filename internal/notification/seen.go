package notification

import (
	"context"
	"sync"

	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// SeenStore remembers the dedup keys of signals already sent. Stores are
// bounded: once full, adding a key evicts the oldest one. Adding a key that is
// already present does not refresh its age.
type SeenStore interface {
	Seen(ctx context.Context, key string) (bool, error)
	Add(ctx context.Context, key string) error
	Len(ctx context.Context) (int, error)
}

// MemorySeenStore is an in-process SeenStore backed by a ring of keys.
type MemorySeenStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
	ring []string
	next int
	size int
}

// NewMemorySeenStore creates a store holding at most capacity keys.
func NewMemorySeenStore(capacity int) (*MemorySeenStore, error) {
	if capacity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidCapacity, "seen store capacity must be positive, got %d", capacity)
	}

	return &MemorySeenStore{
		keys: make(map[string]struct{}, capacity),
		ring: make([]string, capacity),
	}, nil
}

func (s *MemorySeenStore) Seen(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.keys[key]

	return ok, nil
}

func (s *MemorySeenStore) Add(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; ok {
		return nil
	}

	// ring[next] holds the oldest key once the ring is full
	if s.size == len(s.ring) {
		delete(s.keys, s.ring[s.next])
	} else {
		s.size++
	}

	s.ring[s.next] = key
	s.keys[key] = struct{}{}
	s.next = (s.next + 1) % len(s.ring)

	return nil
}

func (s *MemorySeenStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.size, nil
}
