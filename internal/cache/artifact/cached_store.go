// Package artifact fronts an artifact.Store with in-memory LRU/TTL caches
// for blobs, listings and URLs.
package artifact

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	memcache "hnreader/internal/cache/memory"
	artifactrepo "hnreader/internal/gateway/repository/artifact"
)

type Store = artifactrepo.Store

type CacheConfig struct {
	BlobTTL        time.Duration
	BlobMaxEntries int
	BlobMaxBytes   int

	ListTTL        time.Duration
	ListMaxEntries int

	// URLTTL must stay below the origin's presign expiry.
	URLTTL        time.Duration
	URLMaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BlobTTL:        5 * time.Minute,
		BlobMaxEntries: 256,
		BlobMaxBytes:   16 * 1024 * 1024,
		ListTTL:        30 * time.Second,
		ListMaxEntries: 256,
		URLTTL:         5 * time.Minute,
		URLMaxEntries:  512,
	}
}

type MetricsSnapshot struct {
	BlobHits       uint64
	BlobMisses     uint64
	ListHits       uint64
	ListMisses     uint64
	URLHits        uint64
	URLMisses      uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type metrics struct {
	blobHits       atomic.Uint64
	blobMisses     atomic.Uint64
	listHits       atomic.Uint64
	listMisses     atomic.Uint64
	urlHits        atomic.Uint64
	urlMisses      atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *metrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		BlobHits:       m.blobHits.Load(),
		BlobMisses:     m.blobMisses.Load(),
		ListHits:       m.listHits.Load(),
		ListMisses:     m.listMisses.Load(),
		URLHits:        m.urlHits.Load(),
		URLMisses:      m.urlMisses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

type CachedStore struct {
	origin Store

	blobs *memcache.LRUTTL[string, []byte]
	lists *memcache.LRUTTL[string, []string]
	urls  *memcache.LRUTTL[string, string]

	metrics metrics
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.BlobTTL <= 0 {
		cfg.BlobTTL = def.BlobTTL
	}
	if cfg.BlobMaxEntries <= 0 {
		cfg.BlobMaxEntries = def.BlobMaxEntries
	}
	if cfg.BlobMaxBytes < 0 {
		cfg.BlobMaxBytes = def.BlobMaxBytes
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	if cfg.ListMaxEntries <= 0 {
		cfg.ListMaxEntries = def.ListMaxEntries
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = def.URLTTL
	}
	if cfg.URLMaxEntries <= 0 {
		cfg.URLMaxEntries = def.URLMaxEntries
	}
	return &CachedStore{
		origin: origin,
		blobs:  memcache.NewLRUTTL[string, []byte](cfg.BlobMaxEntries, cfg.BlobMaxBytes, cfg.BlobTTL),
		lists:  memcache.NewLRUTTL[string, []string](cfg.ListMaxEntries, 0, cfg.ListTTL),
		urls:   memcache.NewLRUTTL[string, string](cfg.URLMaxEntries, 0, cfg.URLTTL),
	}
}

// Put writes through. Listings are dropped wholesale since any prefix of
// key may be cached.
func (s *CachedStore) Put(ctx context.Context, key string, content []byte, contentType string) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.Put(ctx, key, content, contentType); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	k := cacheKey(key)
	copied := append([]byte(nil), content...)
	s.blobs.Set(k, copied, len(copied))
	s.urls.Delete(k)
	s.lists.Clear()
	return nil
}

func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	k := cacheKey(key)
	if raw, ok := s.blobs.Get(k); ok {
		s.metrics.blobHits.Add(1)
		return append([]byte(nil), raw...), nil
	}
	s.metrics.blobMisses.Add(1)
	s.metrics.originReads.Add(1)
	raw, err := s.origin.Get(ctx, key)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	copied := append([]byte(nil), raw...)
	s.blobs.Set(k, copied, len(copied))
	return append([]byte(nil), copied...), nil
}

func (s *CachedStore) URL(ctx context.Context, key string) (string, error) {
	k := cacheKey(key)
	if u, ok := s.urls.Get(k); ok {
		s.metrics.urlHits.Add(1)
		return u, nil
	}
	s.metrics.urlMisses.Add(1)
	s.metrics.originReads.Add(1)
	u, err := s.origin.URL(ctx, key)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return "", err
	}
	if u != "" {
		s.urls.Set(k, u, len(u))
	}
	return u, nil
}

func (s *CachedStore) List(ctx context.Context, prefix string) ([]string, error) {
	k := cacheKey(prefix)
	if keys, ok := s.lists.Get(k); ok {
		s.metrics.listHits.Add(1)
		return append([]string(nil), keys...), nil
	}
	s.metrics.listMisses.Add(1)
	s.metrics.originReads.Add(1)
	keys, err := s.origin.List(ctx, prefix)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	size := 0
	for _, v := range keys {
		size += len(v)
	}
	s.lists.Set(k, append([]string(nil), keys...), size)
	return keys, nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}

func cacheKey(key string) string {
	return strings.Trim(strings.TrimSpace(key), "/")
}
