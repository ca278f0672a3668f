package preferences

import (
	"context"
	"sort"
	"sync"
)

type orderedIDs struct {
	ids []int
	pos map[int]struct{}
}

func (o *orderedIDs) add(id int) {
	if o.pos == nil {
		o.pos = map[int]struct{}{}
	}
	if _, ok := o.pos[id]; ok {
		return
	}
	o.pos[id] = struct{}{}
	o.ids = append(o.ids, id)
}

func (o *orderedIDs) remove(id int) {
	if _, ok := o.pos[id]; !ok {
		return
	}
	delete(o.pos, id)
	for i, v := range o.ids {
		if v == id {
			o.ids = append(o.ids[:i], o.ids[i+1:]...)
			return
		}
	}
}

func (o *orderedIDs) list() []int {
	if o == nil {
		return []int{}
	}
	return append([]int{}, o.ids...)
}

type memoryList struct {
	meta  ReadingList
	items orderedIDs
}

type MemoryStore struct {
	mu    sync.RWMutex
	sets  map[string]*orderedIDs
	lists map[string]*memoryList
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sets:  map[string]*orderedIDs{},
		lists: map[string]*memoryList{},
	}
}

func setKey(owner string, kind SetKind) string { return string(kind) + "\x00" + owner }

func (s *MemoryStore) AddToSet(_ context.Context, owner string, kind SetKind, storyID int) error {
	if !kind.Valid() {
		return ErrInvalidSet
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[setKey(owner, kind)]
	if !ok {
		set = &orderedIDs{}
		s.sets[setKey(owner, kind)] = set
	}
	set.add(storyID)
	return nil
}

func (s *MemoryStore) RemoveFromSet(_ context.Context, owner string, kind SetKind, storyID int) error {
	if !kind.Valid() {
		return ErrInvalidSet
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.sets[setKey(owner, kind)]; ok {
		set.remove(storyID)
	}
	return nil
}

func (s *MemoryStore) Set(_ context.Context, owner string, kind SetKind) ([]int, error) {
	if !kind.Valid() {
		return nil, ErrInvalidSet
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sets[setKey(owner, kind)].list(), nil
}

func (s *MemoryStore) CreateList(_ context.Context, list ReadingList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[list.ID] = &memoryList{meta: list}
	return nil
}

func (s *MemoryStore) DeleteList(_ context.Context, owner, listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[listID]
	if !ok || l.meta.Owner != owner {
		return ErrListNotFound
	}
	delete(s.lists, listID)
	return nil
}

func (s *MemoryStore) GetList(_ context.Context, owner, listID string) (ReadingList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, err := s.ownedLocked(owner, listID)
	if err != nil {
		return ReadingList{}, err
	}
	return l.meta, nil
}

func (s *MemoryStore) Lists(_ context.Context, owner string) ([]ReadingList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []ReadingList{}
	for _, l := range s.lists {
		if l.meta.Owner == owner {
			out = append(out, l.meta)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) AddToList(_ context.Context, owner, listID string, storyID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.ownedLocked(owner, listID)
	if err != nil {
		return err
	}
	l.items.add(storyID)
	return nil
}

func (s *MemoryStore) RemoveFromList(_ context.Context, owner, listID string, storyID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.ownedLocked(owner, listID)
	if err != nil {
		return err
	}
	l.items.remove(storyID)
	return nil
}

func (s *MemoryStore) ListItems(_ context.Context, owner, listID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, err := s.ownedLocked(owner, listID)
	if err != nil {
		return nil, err
	}
	return l.items.list(), nil
}

func (s *MemoryStore) ownedLocked(owner, listID string) (*memoryList, error) {
	l, ok := s.lists[listID]
	if !ok || l.meta.Owner != owner {
		return nil, ErrListNotFound
	}
	return l, nil
}
