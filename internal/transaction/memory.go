package transaction

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*Transaction
	byRef map[string]string // reference -> id
	order []string          // ids in insertion order
}

// NewMemoryStore creates an empty in-memory transaction store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[string]*Transaction),
		byRef: make(map[string]string),
	}
}

func (s *MemoryStore) Create(ctx context.Context, t *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byRef[t.Reference]; ok {
		return ErrDuplicateReference
	}
	s.byID[t.ID] = t.Clone()
	s.byRef[t.Reference] = t.ID
	s.order = append(s.order, t.ID)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

func (s *MemoryStore) GetByReference(ctx context.Context, reference string) (*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byRef[reference]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, t *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[t.ID]; !ok {
		return ErrNotFound
	}
	cp := t.Clone()
	cp.UpdatedAt = time.Now().UTC()
	s.byID[t.ID] = cp
	return nil
}

func (s *MemoryStore) List(ctx context.Context, f Filter) ([]*Transaction, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(f)
	total := len(matched)

	page, size := f.Page, f.PageSize
	start := (page - 1) * size
	if start >= total {
		return nil, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}

	out := make([]*Transaction, 0, end-start)
	for _, t := range matched[start:end] {
		out = append(out, t.Clone())
	}
	return out, total, nil
}

func (s *MemoryStore) LatestByTask(ctx context.Context, taskID string, typ Type) (*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		t := s.byID[s.order[i]]
		if t.Type != typ {
			continue
		}
		if tid, ok := t.MetaString(MetaTaskID); ok && tid == taskID {
			return t.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// match returns transactions newest first. Insertion order is creation
// order, so walking it backwards gives the created-at descending ordering
// with deterministic ties.
func (s *MemoryStore) match(f Filter) []*Transaction {
	var matched []*Transaction
	for i := len(s.order) - 1; i >= 0; i-- {
		t := s.byID[s.order[i]]
		if f.WalletID != "" && t.WalletID != f.WalletID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		matched = append(matched, t)
	}
	return matched
}
