// Package preferences owns per-owner story preferences: saved and hidden
// sets, reading lists and their exports.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hnreader/internal/feed"
	artifactrepo "hnreader/internal/gateway/repository/artifact"
	prefrepo "hnreader/internal/gateway/repository/preferences"
	"hnreader/internal/hn"
)

var (
	ErrOwnerRequired = errors.New("owner is required")
	ErrNameRequired  = errors.New("list name is required")
	ErrInvalidStory  = errors.New("story id must be positive")
)

type Service struct {
	store     prefrepo.Store
	feed      *feed.Service
	artifacts artifactrepo.Store
	log       logrus.FieldLogger

	now   func() time.Time
	newID func() string
}

func New(store prefrepo.Store, feedSvc *feed.Service, artifacts artifactrepo.Store, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		store:     store,
		feed:      feedSvc,
		artifacts: artifacts,
		log:       logger.WithField("component", "preferences"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *Service) Save(ctx context.Context, owner string, storyID int) error {
	return s.add(ctx, owner, prefrepo.SetSaved, storyID)
}

func (s *Service) Unsave(ctx context.Context, owner string, storyID int) error {
	return s.remove(ctx, owner, prefrepo.SetSaved, storyID)
}

func (s *Service) Saved(ctx context.Context, owner string) ([]int, error) {
	return s.set(ctx, owner, prefrepo.SetSaved)
}

func (s *Service) Hide(ctx context.Context, owner string, storyID int) error {
	return s.add(ctx, owner, prefrepo.SetHidden, storyID)
}

func (s *Service) Unhide(ctx context.Context, owner string, storyID int) error {
	return s.remove(ctx, owner, prefrepo.SetHidden, storyID)
}

func (s *Service) Hidden(ctx context.Context, owner string) ([]int, error) {
	return s.set(ctx, owner, prefrepo.SetHidden)
}

// FilterVisible drops the owner's hidden stories, keeping order. A blank
// owner filters nothing.
func (s *Service) FilterVisible(ctx context.Context, owner string, items []*hn.Item) ([]*hn.Item, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" || len(items) == 0 {
		return items, nil
	}
	hidden, err := s.store.Set(ctx, owner, prefrepo.SetHidden)
	if err != nil {
		return nil, fmt.Errorf("load hidden stories: %w", err)
	}
	if len(hidden) == 0 {
		return items, nil
	}
	skip := make(map[int]struct{}, len(hidden))
	for _, id := range hidden {
		skip[id] = struct{}{}
	}
	out := make([]*hn.Item, 0, len(items))
	for _, it := range items {
		if _, ok := skip[it.ID]; !ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Service) CreateList(ctx context.Context, owner, name string) (prefrepo.ReadingList, error) {
	owner, err := requireOwner(owner)
	if err != nil {
		return prefrepo.ReadingList{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return prefrepo.ReadingList{}, ErrNameRequired
	}
	list := prefrepo.ReadingList{
		ID:        s.newID(),
		Owner:     owner,
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateList(ctx, list); err != nil {
		return prefrepo.ReadingList{}, fmt.Errorf("create list: %w", err)
	}
	return list, nil
}

func (s *Service) DeleteList(ctx context.Context, owner, listID string) error {
	owner, err := requireOwner(owner)
	if err != nil {
		return err
	}
	return s.store.DeleteList(ctx, owner, strings.TrimSpace(listID))
}

func (s *Service) Lists(ctx context.Context, owner string) ([]prefrepo.ReadingList, error) {
	owner, err := requireOwner(owner)
	if err != nil {
		return nil, err
	}
	return s.store.Lists(ctx, owner)
}

func (s *Service) AddToList(ctx context.Context, owner, listID string, storyID int) error {
	owner, err := requireOwner(owner)
	if err != nil {
		return err
	}
	if storyID <= 0 {
		return ErrInvalidStory
	}
	return s.store.AddToList(ctx, owner, strings.TrimSpace(listID), storyID)
}

func (s *Service) RemoveFromList(ctx context.Context, owner, listID string, storyID int) error {
	owner, err := requireOwner(owner)
	if err != nil {
		return err
	}
	return s.store.RemoveFromList(ctx, owner, strings.TrimSpace(listID), storyID)
}

func (s *Service) ListItems(ctx context.Context, owner, listID string) ([]int, error) {
	owner, err := requireOwner(owner)
	if err != nil {
		return nil, err
	}
	return s.store.ListItems(ctx, owner, strings.TrimSpace(listID))
}

func (s *Service) add(ctx context.Context, owner string, kind prefrepo.SetKind, storyID int) error {
	owner, err := requireOwner(owner)
	if err != nil {
		return err
	}
	if storyID <= 0 {
		return ErrInvalidStory
	}
	return s.store.AddToSet(ctx, owner, kind, storyID)
}

func (s *Service) remove(ctx context.Context, owner string, kind prefrepo.SetKind, storyID int) error {
	owner, err := requireOwner(owner)
	if err != nil {
		return err
	}
	return s.store.RemoveFromSet(ctx, owner, kind, storyID)
}

func (s *Service) set(ctx context.Context, owner string, kind prefrepo.SetKind) ([]int, error) {
	owner, err := requireOwner(owner)
	if err != nil {
		return nil, err
	}
	return s.store.Set(ctx, owner, kind)
}

func requireOwner(owner string) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", ErrOwnerRequired
	}
	return owner, nil
}
