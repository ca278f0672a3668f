// Package thread implements paginated reading of a story's comment tree:
// a bounded first page of top-level comments, incremental "load more", and
// single-level reply expansion.
package thread

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"hnreader/internal/hn"
)

var (
	ErrNotStarted = errors.New("thread: first page not loaded")
	ErrClosed     = errors.New("thread: session closed")
)

// DefaultPageSize is the number of top-level comments per page.
const DefaultPageSize = 10

// Loader is the subset of feed.Service a session needs.
type Loader interface {
	GetItem(ctx context.Context, id int) (*hn.Item, error)
	GetMultipleItems(ctx context.Context, ids []int) ([]*hn.Item, error)
	GetCommentReplies(ctx context.Context, commentID int) ([]*hn.Item, error)
}

type ReplyStatus uint8

const (
	RepliesNotLoaded ReplyStatus = iota
	RepliesLoaded
)

// Expansion records the reply state of one comment. Records are replaced,
// never mutated in place.
type Expansion struct {
	Status  ReplyStatus
	Visible bool
	Replies []*hn.Item
}

type FirstPage struct {
	Story         *hn.Item
	Comments      []*hn.Item
	TotalComments int
	HasMore       bool
}

type Page struct {
	Comments []*hn.Item
	HasMore  bool
}

// State is a read-only view of the session bookkeeping.
type State struct {
	StoryID       int
	TotalComments int
	LoadedPages   int
	LoadedCount   int
	HasMore       bool
	Closed        bool
}

// Session owns the pagination state for one story. It is safe for
// concurrent use; concurrent LoadNextPage calls share a single fetch.
type Session struct {
	id       string
	storyID  int
	pageSize int
	loader   Loader
	flight   singleflight.Group

	mu          sync.Mutex
	started     bool
	closed      bool
	story       *hn.Item
	kids        []int
	total       int
	loadedPages int
	comments    []*hn.Item
	hasMore     bool
	expansions  map[int]Expansion
}

func NewSession(id string, storyID, pageSize int, loader Loader) *Session {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Session{
		id:         id,
		storyID:    storyID,
		pageSize:   pageSize,
		loader:     loader,
		expansions: map[int]Expansion{},
	}
}

func (s *Session) ID() string   { return s.id }
func (s *Session) StoryID() int { return s.storyID }

// LoadFirstPage fetches the story and its first page of comments. Calling
// it again restarts the session from a fresh snapshot.
func (s *Session) LoadFirstPage(ctx context.Context) (*FirstPage, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	v, err := s.shared(ctx, "first", func(ctx context.Context) (any, error) {
		return s.loadFirst(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*FirstPage), nil
}

func (s *Session) loadFirst(ctx context.Context) (*FirstPage, error) {
	story, err := s.loader.GetItem(ctx, s.storyID)
	if err != nil {
		return nil, fmt.Errorf("load story %d: %w", s.storyID, err)
	}
	if story == nil {
		return nil, hn.ItemNotFound(s.storyID)
	}

	first := &FirstPage{Story: story, Comments: []*hn.Item{}}
	kids := append([]int(nil), story.Kids...)
	if len(kids) > 0 {
		first.TotalComments = len(kids)
		items, err := s.loader.GetMultipleItems(ctx, window(kids, 0, s.pageSize))
		if err != nil {
			return nil, fmt.Errorf("load comments of %d: %w", s.storyID, err)
		}
		first.Comments = validComments(items)
		first.HasMore = s.pageSize < first.TotalComments
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return first, nil
	}
	s.started = true
	s.story = story
	s.kids = kids
	s.total = first.TotalComments
	s.loadedPages = 1
	s.comments = append([]*hn.Item(nil), first.Comments...)
	s.hasMore = first.HasMore
	s.expansions = map[int]Expansion{}
	return first, nil
}

// LoadNextPage appends the next window of top-level comments. Once hasMore
// is false it is a no-op that keeps returning hasMore=false. A concurrent
// call joins the one already in flight.
func (s *Session) LoadNextPage(ctx context.Context) (*Page, error) {
	v, err := s.shared(ctx, "next", func(ctx context.Context) (any, error) {
		return s.loadNext(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Page), nil
}

// shared runs one load per key on a context detached from the caller that
// started it, so joined callers only stop early on their own ctx.
func (s *Session) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (s *Session) loadNext(ctx context.Context) (*Page, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if !s.started {
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	if !s.hasMore {
		s.mu.Unlock()
		return &Page{Comments: []*hn.Item{}}, nil
	}
	offset := s.loadedPages * s.pageSize
	ids := window(s.kids, offset, s.pageSize)
	total := s.total
	s.mu.Unlock()

	items, err := s.loader.GetMultipleItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load comments %d-%d of %d: %w", offset, offset+len(ids), s.storyID, err)
	}

	page := &Page{
		Comments: validComments(items),
		HasMore:  offset+s.pageSize < total,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return page, nil
	}
	s.loadedPages++
	s.comments = append(s.comments, page.Comments...)
	s.hasMore = page.HasMore
	return page, nil
}

// LoadReplies expands one comment by a single level. The first call per
// comment fetches; later calls return the recorded replies.
func (s *Session) LoadReplies(ctx context.Context, commentID int) ([]*hn.Item, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if exp, ok := s.expansions[commentID]; ok && exp.Status == RepliesLoaded {
		s.mu.Unlock()
		return append([]*hn.Item(nil), exp.Replies...), nil
	}
	s.mu.Unlock()

	v, err := s.shared(ctx, "replies:"+strconv.Itoa(commentID), func(ctx context.Context) (any, error) {
		replies, err := s.loader.GetCommentReplies(ctx, commentID)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.closed {
			s.expansions[commentID] = Expansion{Status: RepliesLoaded, Visible: true, Replies: replies}
		}
		return replies, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]*hn.Item(nil), v.([]*hn.Item)...), nil
}

// ToggleReplies flips the visibility of a loaded expansion. It reports false
// when the comment's replies were never loaded.
func (s *Session) ToggleReplies(commentID int) (Expansion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.expansions[commentID]
	if !ok || exp.Status != RepliesLoaded {
		return Expansion{Status: RepliesNotLoaded}, false
	}
	exp = Expansion{Status: exp.Status, Visible: !exp.Visible, Replies: exp.Replies}
	s.expansions[commentID] = exp
	return exp, true
}

func (s *Session) Expansion(commentID int) Expansion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expansions[commentID]
}

// Comments returns every top-level comment loaded so far, in display order.
func (s *Session) Comments() []*hn.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*hn.Item(nil), s.comments...)
}

func (s *Session) Story() *hn.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.story
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		StoryID:       s.storyID,
		TotalComments: s.total,
		LoadedPages:   s.loadedPages,
		LoadedCount:   len(s.comments),
		HasMore:       s.hasMore,
		Closed:        s.closed,
	}
}

// Close abandons the session. In-flight loads still return normally but no
// longer change the session; new loads fail with ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func window(kids []int, offset, size int) []int {
	if offset >= len(kids) {
		return nil
	}
	end := offset + size
	if end > len(kids) {
		end = len(kids)
	}
	return kids[offset:end]
}

func validComments(items []*hn.Item) []*hn.Item {
	out := make([]*hn.Item, 0, len(items))
	for _, it := range items {
		if it.IsValidComment() {
			out = append(out, it)
		}
	}
	return out
}
