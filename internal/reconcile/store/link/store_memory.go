package link

import (
	"context"
	"sync"

	"storefront/internal/reconcile/models"
	"storefront/pkg/platform/sentinel"
)

// InMemoryStore keeps profile to identity links in process memory.
type InMemoryStore struct {
	mu        sync.RWMutex
	byProfile map[string]models.IdentityLink
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{byProfile: make(map[string]models.IdentityLink)}
}

// Save records the link, replacing any earlier link for the same profile.
func (s *InMemoryStore) Save(_ context.Context, link models.IdentityLink) error {
	if link.ProfileID == "" || link.IdentityID == "" {
		return sentinel.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byProfile[link.ProfileID] = link
	return nil
}

func (s *InMemoryStore) FindByProfileID(_ context.Context, profileID string) (*models.IdentityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.byProfile[profileID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &link, nil
}
