package outbox

import (
	"context"
	"sync"

	"github.com/google/uuid"

	txcontext "id-recon/pkg/platform/tx"
)

// InMemoryStore keeps outbox entries in process. Used by tests and the
// memory backend.
type InMemoryStore struct {
	mu        sync.Mutex
	entries   []Entry
	published map[uuid.UUID]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{published: make(map[uuid.UUID]bool)}
}

// Append queues events once the unit of work carried by ctx commits, or at
// once outside a unit of work.
func (s *InMemoryStore) Append(ctx context.Context, events ...Event) error {
	built := make([]Entry, 0, len(events))
	for _, e := range events {
		entry, err := entryFromEvent(e)
		if err != nil {
			return err
		}
		built = append(built, entry)
	}

	txcontext.OnCommit(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.entries = append(s.entries, built...)
	})
	return nil
}

// Drain hands up to limit pending entries to fn and marks them published when
// fn succeeds. It returns the number of entries published.
func (s *InMemoryStore) Drain(ctx context.Context, limit int, fn func(ctx context.Context, entries []Entry) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var batch []Entry
	for _, e := range s.entries {
		if len(batch) == limit {
			break
		}
		if !s.published[e.ID] {
			batch = append(batch, e)
		}
	}
	if len(batch) == 0 {
		return 0, nil
	}
	if err := fn(ctx, batch); err != nil {
		return 0, err
	}
	for _, e := range batch {
		s.published[e.ID] = true
	}
	return len(batch), nil
}

// Entries returns a copy of every recorded entry, published or not.
func (s *InMemoryStore) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Pending returns the number of unpublished entries.
func (s *InMemoryStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if !s.published[e.ID] {
			n++
		}
	}
	return n
}
