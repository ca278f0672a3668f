package thread

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	memcache "hnreader/internal/cache/memory"
)

var ErrSessionNotFound = errors.New("thread: session not found")

type RegistryConfig struct {
	PageSize    int
	IdleTTL     time.Duration
	MaxSessions int
	Logger      logrus.FieldLogger
}

func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		PageSize:    DefaultPageSize,
		IdleTTL:     30 * time.Minute,
		MaxSessions: 10000,
	}
}

// Registry keeps sessions by ID. Sessions idle longer than IdleTTL, or
// pushed out by MaxSessions, are closed and forgotten.
type Registry struct {
	loader   Loader
	pageSize int
	sessions *memcache.LRUTTL[string, *Session]
	log      logrus.FieldLogger
}

func NewRegistry(loader Loader, cfg RegistryConfig) *Registry {
	def := DefaultRegistryConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = def.IdleTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r := &Registry{
		loader:   loader,
		pageSize: cfg.PageSize,
		log:      logger.WithField("component", "thread"),
	}
	r.sessions = memcache.NewLRUTTLWithOptions[string, *Session](cfg.MaxSessions, 0, cfg.IdleTTL, memcache.Options[string, *Session]{
		Sliding: true,
		OnEvict: func(id string, s *Session) {
			s.Close()
			r.log.WithField("session", id).WithField("story", s.StoryID()).Debug("thread session expired")
		},
	})
	return r
}

// Open starts a session and loads its first page. The session is only
// registered when the first page succeeds.
func (r *Registry) Open(ctx context.Context, storyID, pageSize int) (*Session, *FirstPage, error) {
	if pageSize <= 0 {
		pageSize = r.pageSize
	}
	s := NewSession(uuid.NewString(), storyID, pageSize, r.loader)
	first, err := s.LoadFirstPage(ctx)
	if err != nil {
		return nil, nil, err
	}
	r.sessions.Set(s.ID(), s, 1)
	return s, first, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	s, ok := r.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close abandons and forgets a session. Unknown IDs are ignored.
func (r *Registry) Close(id string) {
	if s, ok := r.sessions.Get(id); ok {
		s.Close()
	}
	r.sessions.Delete(id)
}

// Sweep closes idle sessions; the gateway calls it periodically.
func (r *Registry) Sweep() int {
	return r.sessions.Sweep()
}

func (r *Registry) Len() int {
	return r.sessions.Len()
}
