package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"id-recon/internal/contact/models"
	"id-recon/pkg/platform/sentinel"
)

// InMemoryStore keeps contacts in a map. Atomicity across calls comes from
// InMemoryTx, which snapshots and restores the store around a unit of work.
type InMemoryStore struct {
	mu       sync.RWMutex
	contacts map[int64]*models.Contact
	nextID   int64
	now      func() time.Time
}

type MemoryOption func(*InMemoryStore)

// WithClock overrides the timestamp source for inserts and updates.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemoryStore) {
		s.now = now
	}
}

func NewInMemoryStore(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		contacts: make(map[int64]*models.Contact),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) FindByEmailOrPhone(_ context.Context, email, phone string) ([]*models.Contact, error) {
	return s.filter(func(c *models.Contact) bool {
		return (email != "" && c.Email == email) || (phone != "" && c.PhoneNumber == phone)
	}), nil
}

func (s *InMemoryStore) FindByLinkedIDOrID(_ context.Context, id int64) ([]*models.Contact, error) {
	return s.filter(func(c *models.Contact) bool {
		return c.ID == id || (c.LinkedID != nil && *c.LinkedID == id)
	}), nil
}

func (s *InMemoryStore) FindByLinkedID(_ context.Context, id int64) ([]*models.Contact, error) {
	return s.filter(func(c *models.Contact) bool {
		return c.LinkedID != nil && *c.LinkedID == id
	}), nil
}

func (s *InMemoryStore) FindByIDs(_ context.Context, ids []int64) ([]*models.Contact, error) {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return s.filter(func(c *models.Contact) bool {
		_, ok := want[c.ID]
		return ok
	}), nil
}

func (s *InMemoryStore) Insert(_ context.Context, email, phone string, precedence models.LinkPrecedence, linkedID *int64) (*models.Contact, error) {
	if !precedence.IsValid() {
		return nil, fmt.Errorf("insert contact: unknown precedence %q", precedence)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.contacts {
		if c.Email == email && c.PhoneNumber == phone {
			return nil, fmt.Errorf("insert contact: identifier pair exists as contact %d: %w", c.ID, sentinel.ErrConflict)
		}
	}

	s.nextID++
	now := s.now()
	c := &models.Contact{
		ID:             s.nextID,
		Email:          email,
		PhoneNumber:    phone,
		LinkPrecedence: precedence,
		LinkedID:       copyID(linkedID),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.contacts[c.ID] = c
	return clone(c), nil
}

func (s *InMemoryStore) UpdateLinkage(_ context.Context, id int64, precedence models.LinkPrecedence, linkedID *int64) error {
	if !precedence.IsValid() {
		return fmt.Errorf("update contact %d: unknown precedence %q", id, precedence)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contacts[id]
	if !ok {
		return fmt.Errorf("update contact %d: %w", id, sentinel.ErrNotFound)
	}
	c.LinkPrecedence = precedence
	c.LinkedID = copyID(linkedID)
	c.UpdatedAt = s.now()
	return nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// filter returns copies of matching contacts, oldest first.
func (s *InMemoryStore) filter(match func(*models.Contact) bool) []*models.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Contact, 0)
	for _, c := range s.contacts {
		if match(c) {
			out = append(out, clone(c))
		}
	}
	models.SortByCreation(out)
	return out
}

type memorySnapshot struct {
	contacts map[int64]models.Contact
	nextID   int64
}

func (s *InMemoryStore) snapshot() memorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := memorySnapshot{contacts: make(map[int64]models.Contact, len(s.contacts)), nextID: s.nextID}
	for id, c := range s.contacts {
		snap.contacts[id] = *clone(c)
	}
	return snap
}

func (s *InMemoryStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = make(map[int64]*models.Contact, len(snap.contacts))
	for id, c := range snap.contacts {
		cp := c
		s.contacts[id] = &cp
	}
	s.nextID = snap.nextID
}

func clone(c *models.Contact) *models.Contact {
	cp := *c
	cp.LinkedID = copyID(c.LinkedID)
	return &cp
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
