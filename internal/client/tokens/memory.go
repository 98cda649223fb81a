package tokens

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/dashapi/internal/client/models"
)

type MemoryStore struct {
	mu    sync.RWMutex
	creds *models.Credentials
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context) (*models.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.creds), nil
}

func (s *MemoryStore) Set(ctx context.Context, creds models.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = &creds
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return nil
}
