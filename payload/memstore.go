package payload

import (
	"context"
	"sync"

	"github.com/conductor-oss/decider-go/corerrors"
)

// MemStore is an in-memory Store used by tests.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (s *MemStore) Upload(_ context.Context, path string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[path] = buf
	return nil
}

func (s *MemStore) Download(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[path]
	if !ok {
		return nil, corerrors.NewNotFound("payload", path)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
