// Package feed assembles composite views over the HN API: batch hydration,
// category listings, stateless comment pages, search, user activity and
// update diffs.
package feed

import (
	"github.com/sirupsen/logrus"

	"hnreader/internal/hn"
)

// Service is safe for concurrent use; it holds no mutable state.
type Service struct {
	fetcher        hn.Fetcher
	log            logrus.FieldLogger
	maxConcurrency int
}

type Option func(*Service)

// WithLogger overrides the standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxConcurrency bounds in-flight item requests per batch. Zero means
// every ID of a batch is requested at once.
func WithMaxConcurrency(n int) Option {
	return func(s *Service) { s.maxConcurrency = n }
}

func New(f hn.Fetcher, opts ...Option) *Service {
	s := &Service{
		fetcher: f,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "feed")
	return s
}

// Fetcher exposes the underlying item source.
func (s *Service) Fetcher() hn.Fetcher { return s.fetcher }
