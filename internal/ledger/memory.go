package ledger

import (
	"context"
	"sync"
)

// MemoryStore is an in-process append-only Store used in tests and local
// development.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStore creates an empty in-memory ledger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *MemoryStore) ListByTransaction(ctx context.Context, transactionID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if e.TransactionID() == transactionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListByAccountType(ctx context.Context, accountType AccountType) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if e.AccountType() == accountType {
			out = append(out, e)
		}
	}
	return out, nil
}
