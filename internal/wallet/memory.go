package wallet

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests and local development.
// A single mutex serializes mutation, which trivially satisfies the
// per-wallet serialization contract.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Wallet
	byUser  map[string]string // user_id -> wallet id
}

// NewMemoryStore creates an empty in-memory wallet store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*Wallet),
		byUser: make(map[string]string),
	}
}

func (s *MemoryStore) Create(ctx context.Context, w *Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUser[w.UserID]; ok {
		return ErrWalletExists
	}
	s.byID[w.ID] = w.Clone()
	s.byUser[w.UserID] = w.ID
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return w.Clone(), nil
}

func (s *MemoryStore) GetByUserID(ctx context.Context, userID string) (*Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *MemoryStore) Mutate(ctx context.Context, id string, fn func(*Wallet) error) (*Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	working := w.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now().UTC()
	s.byID[id] = working
	return working.Clone(), nil
}
