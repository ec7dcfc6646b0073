package profile

import (
	"context"
	"sync"

	"storefront/internal/reconcile/models"
	"storefront/pkg/platform/sentinel"
)

// InMemoryStore is a ProfileStore backed by a map keyed by exact email.
type InMemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]*models.ProfileRecord
	byID    map[string]string
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byEmail: make(map[string]*models.ProfileRecord),
		byID:    make(map[string]string),
	}
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *InMemoryStore) Create(_ context.Context, record *models.ProfileRecord) (*models.ProfileRecord, error) {
	if record == nil || record.ID == "" || record.Email == "" {
		return nil, sentinel.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[record.Email]; ok {
		return nil, sentinel.ErrConflict
	}
	if _, ok := s.byID[record.ID]; ok {
		return nil, sentinel.ErrConflict
	}
	stored := *record
	s.byEmail[record.Email] = &stored
	s.byID[record.ID] = record.Email
	out := stored
	return &out, nil
}

func (s *InMemoryStore) Update(_ context.Context, id string, patch models.ProfilePatch) (*models.ProfileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rec := s.byEmail[email]
	applyPatch(rec, patch)
	out := *rec
	return &out, nil
}

// Probe never fails for the in-memory store.
func (s *InMemoryStore) Probe(context.Context) error {
	return nil
}

// Count returns the number of profiles holding email.
func (s *InMemoryStore) Count(email string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.byEmail[email]; ok {
		return 1
	}
	return 0
}

func applyPatch(rec *models.ProfileRecord, patch models.ProfilePatch) {
	if patch.Phone != nil {
		rec.Phone = *patch.Phone
	}
	if patch.Address != nil {
		rec.Address = *patch.Address
	}
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	if !patch.UpdatedAt.IsZero() {
		rec.UpdatedAt = patch.UpdatedAt
	}
}
