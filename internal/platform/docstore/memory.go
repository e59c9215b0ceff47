package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

type memoryStore struct {
	mu   sync.Mutex
	docs map[string]*Document
}

// NewMemory returns an in-memory Store with the same semantics as the
// Postgres implementation. Used in tests.
func NewMemory() Store {
	return &memoryStore{docs: make(map[string]*Document)}
}

func (s *memoryStore) Get(_ context.Context, key string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(d.Data))
	copy(cp, d.Data)
	return &Document{Key: d.Key, Data: cp, Version: d.Version}, nil
}

func (s *memoryStore) Create(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[key]; ok {
		return ErrConflict
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.docs[key] = &Document{Key: key, Data: cp, Version: 1}
	return nil
}

func (s *memoryStore) Upsert(_ context.Context, key string, data []byte, expectedVersion int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[key]
	if !ok {
		return 0, ErrNotFound
	}
	if d.Version != expectedVersion {
		return 0, ErrVersionMismatch
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	d.Data = cp
	d.Version++
	return d.Version, nil
}

func (s *memoryStore) ListByRole(_ context.Context, role string, limit, offset int) ([]*Document, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for key, d := range s.docs {
		var body struct {
			Role string `json:"role"`
		}
		if err := json.Unmarshal(d.Data, &body); err != nil {
			continue
		}
		if body.Role == role {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	total := len(keys)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	var docs []*Document
	for _, key := range keys[offset:end] {
		d := s.docs[key]
		cp := make([]byte, len(d.Data))
		copy(cp, d.Data)
		docs = append(docs, &Document{Key: d.Key, Data: cp, Version: d.Version})
	}
	return docs, total, nil
}
