package preferences

import (
	"context"
	"errors"
	"sync"
	"time"
)

// SetKind names an owner's ordered story-ID set.
type SetKind string

const (
	SetSaved  SetKind = "saved"
	SetHidden SetKind = "hidden"
)

func (k SetKind) Valid() bool { return k == SetSaved || k == SetHidden }

type ReadingList struct {
	ID        string    `json:"id" db:"id"`
	Owner     string    `json:"owner" db:"owner"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Store persists per-owner preferences. Adds are idempotent and keep the
// first position; removes of absent IDs succeed. All listings are in
// insertion order.
type Store interface {
	AddToSet(ctx context.Context, owner string, kind SetKind, storyID int) error
	RemoveFromSet(ctx context.Context, owner string, kind SetKind, storyID int) error
	Set(ctx context.Context, owner string, kind SetKind) ([]int, error)

	CreateList(ctx context.Context, list ReadingList) error
	DeleteList(ctx context.Context, owner, listID string) error
	GetList(ctx context.Context, owner, listID string) (ReadingList, error)
	Lists(ctx context.Context, owner string) ([]ReadingList, error)
	AddToList(ctx context.Context, owner, listID string, storyID int) error
	RemoveFromList(ctx context.Context, owner, listID string, storyID int) error
	ListItems(ctx context.Context, owner, listID string) ([]int, error)
}

var (
	ErrListNotFound = errors.New("reading list not found")
	ErrInvalidSet   = errors.New("unknown preference set")
)

// sequence hands out strictly increasing positions.
type sequence struct {
	mu   sync.Mutex
	last int64
}

func (s *sequence) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := time.Now().UnixNano()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return n
}
