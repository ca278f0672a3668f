package artifact

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryObject struct {
	content     []byte
	contentType string
}

// MemoryStore keeps objects in process. Its URLs use the memory:// scheme
// and are only meaningful to this process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryObject)}
}

func (s *MemoryStore) Put(_ context.Context, key string, content []byte, contentType string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = memoryObject{content: append([]byte(nil), content...), contentType: contentType}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), obj.content...), nil
}

// ContentType reports the type recorded at Put.
func (s *MemoryStore) ContentType(key string) string {
	key, _ = normalizeKey(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key].contentType
}

func (s *MemoryStore) URL(_ context.Context, key string) (string, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.data[key]; !ok {
		return "", ErrNotFound
	}
	return "memory://" + key, nil
}

func (s *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	prefix = normalizePrefix(prefix)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, 8)
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			out = append(out, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(out)
	return out, nil
}
