// Package item puts a read-through cache in front of an hn.Fetcher.
package item

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"hnreader/internal/cache/disk"
	memcache "hnreader/internal/cache/memory"
	"hnreader/internal/hn"
)

type CacheConfig struct {
	ItemTTL        time.Duration
	ItemMaxEntries int

	ListTTL        time.Duration
	ListMaxEntries int

	UserTTL        time.Duration
	UserMaxEntries int

	// Disk is an optional second tier for items. Disk entries older than
	// ItemTTL are ignored whatever the store's own TTL.
	Disk   *disk.Store
	Logger logrus.FieldLogger
	Now    func() time.Time
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		ItemTTL:        2 * time.Minute,
		ItemMaxEntries: 4096,
		ListTTL:        30 * time.Second,
		ListMaxEntries: 16,
		UserTTL:        5 * time.Minute,
		UserMaxEntries: 512,
	}
}

type MetricsSnapshot struct {
	ItemHits     uint64
	ItemMisses   uint64
	DiskHits     uint64
	ListHits     uint64
	ListMisses   uint64
	UserHits     uint64
	UserMisses   uint64
	OriginReads  uint64
	OriginErrors uint64
}

type metrics struct {
	itemHits     atomic.Uint64
	itemMisses   atomic.Uint64
	diskHits     atomic.Uint64
	listHits     atomic.Uint64
	listMisses   atomic.Uint64
	userHits     atomic.Uint64
	userMisses   atomic.Uint64
	originReads  atomic.Uint64
	originErrors atomic.Uint64
}

func (m *metrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		ItemHits:     m.itemHits.Load(),
		ItemMisses:   m.itemMisses.Load(),
		DiskHits:     m.diskHits.Load(),
		ListHits:     m.listHits.Load(),
		ListMisses:   m.listMisses.Load(),
		UserHits:     m.userHits.Load(),
		UserMisses:   m.userMisses.Load(),
		OriginReads:  m.originReads.Load(),
		OriginErrors: m.originErrors.Load(),
	}
}

// CachedFetcher implements hn.Fetcher. Only found values are cached;
// absent items and errors always go back to the origin. Max item and
// updates are never cached. Callers receive copies.
type CachedFetcher struct {
	origin hn.Fetcher

	items *memcache.LRUTTL[int, *hn.Item]
	lists *memcache.LRUTTL[hn.Category, []int]
	users *expirable.LRU[string, *hn.User]
	disk  *disk.Store

	itemTTL time.Duration
	now     func() time.Time

	flight  singleflight.Group
	metrics metrics
	log     logrus.FieldLogger
}

var _ hn.Fetcher = (*CachedFetcher)(nil)

func NewCachedFetcher(origin hn.Fetcher, cfg CacheConfig) *CachedFetcher {
	def := DefaultCacheConfig()
	if cfg.ItemTTL <= 0 {
		cfg.ItemTTL = def.ItemTTL
	}
	if cfg.ItemMaxEntries <= 0 {
		cfg.ItemMaxEntries = def.ItemMaxEntries
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	if cfg.ListMaxEntries <= 0 {
		cfg.ListMaxEntries = def.ListMaxEntries
	}
	if cfg.UserTTL <= 0 {
		cfg.UserTTL = def.UserTTL
	}
	if cfg.UserMaxEntries <= 0 {
		cfg.UserMaxEntries = def.UserMaxEntries
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	items := memcache.NewLRUTTLWithOptions[int, *hn.Item](cfg.ItemMaxEntries, 0, cfg.ItemTTL,
		memcache.Options[int, *hn.Item]{Now: cfg.Now})
	return &CachedFetcher{
		origin:  origin,
		items:   items,
		lists:   memcache.NewLRUTTL[hn.Category, []int](cfg.ListMaxEntries, 0, cfg.ListTTL),
		users:   expirable.NewLRU[string, *hn.User](cfg.UserMaxEntries, nil, cfg.UserTTL),
		disk:    cfg.Disk,
		itemTTL: cfg.ItemTTL,
		now:     cfg.Now,
		log:     logger.WithField("component", "item-cache"),
	}
}

func (f *CachedFetcher) GetItem(ctx context.Context, id int) (*hn.Item, error) {
	if it, ok := f.items.Get(id); ok {
		f.metrics.itemHits.Add(1)
		return it.Clone(), nil
	}
	f.metrics.itemMisses.Add(1)

	if it, fetchedAt := f.fromDisk(ctx, id); it != nil {
		f.metrics.diskHits.Add(1)
		f.items.SetUntil(id, it, 0, fetchedAt.Add(f.itemTTL))
		return it.Clone(), nil
	}

	v, err := f.shared(ctx, "item:"+strconv.Itoa(id), func(ctx context.Context) (any, error) {
		f.metrics.originReads.Add(1)
		it, err := f.origin.GetItem(ctx, id)
		if err != nil {
			f.metrics.originErrors.Add(1)
			return nil, err
		}
		if it == nil {
			return nil, nil
		}
		f.items.Set(id, it, 0)
		f.toDisk(ctx, it)
		return it, nil
	})
	if err != nil {
		return nil, err
	}
	it, _ := v.(*hn.Item)
	if it == nil {
		return nil, nil
	}
	return it.Clone(), nil
}

func (f *CachedFetcher) GetUser(ctx context.Context, username string) (*hn.User, error) {
	if u, ok := f.users.Get(username); ok {
		f.metrics.userHits.Add(1)
		return u.Clone(), nil
	}
	f.metrics.userMisses.Add(1)
	f.metrics.originReads.Add(1)
	u, err := f.origin.GetUser(ctx, username)
	if err != nil {
		f.metrics.originErrors.Add(1)
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	f.users.Add(username, u)
	return u.Clone(), nil
}

func (f *CachedFetcher) GetStoryIDs(ctx context.Context, cat hn.Category) ([]int, error) {
	if ids, ok := f.lists.Get(cat); ok {
		f.metrics.listHits.Add(1)
		return append([]int(nil), ids...), nil
	}
	f.metrics.listMisses.Add(1)
	v, err := f.shared(ctx, "list:"+string(cat), func(ctx context.Context) (any, error) {
		f.metrics.originReads.Add(1)
		ids, err := f.origin.GetStoryIDs(ctx, cat)
		if err != nil {
			f.metrics.originErrors.Add(1)
			return nil, err
		}
		f.lists.Set(cat, ids, 0)
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]int(nil), v.([]int)...), nil
}

// shared runs one origin call per key on a context detached from the
// caller that started it. Each caller stops waiting when its own ctx ends;
// the origin client's timeout bounds the detached call.
func (f *CachedFetcher) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := f.flight.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (f *CachedFetcher) GetMaxItem(ctx context.Context) (int, error) {
	f.metrics.originReads.Add(1)
	return f.origin.GetMaxItem(ctx)
}

func (f *CachedFetcher) GetUpdates(ctx context.Context) (*hn.Updates, error) {
	f.metrics.originReads.Add(1)
	return f.origin.GetUpdates(ctx)
}

// Invalidate drops an item from both tiers, e.g. after an update names it.
func (f *CachedFetcher) Invalidate(ctx context.Context, ids ...int) {
	for _, id := range ids {
		f.items.Delete(id)
		if err := f.disk.Delete(ctx, diskKey(id)); err != nil {
			f.log.WithError(err).WithField("item", id).Warn("disk cache delete failed")
		}
	}
}

func (f *CachedFetcher) InvalidateUsers(names ...string) {
	for _, n := range names {
		f.users.Remove(n)
	}
}

func (f *CachedFetcher) Metrics() MetricsSnapshot {
	if f == nil {
		return MetricsSnapshot{}
	}
	return f.metrics.snapshot()
}

// diskEntry is the on-disk form of a cached item.
type diskEntry struct {
	FetchedAt time.Time `json:"fetched_at"`
	Item      *hn.Item  `json:"item"`
}

func (f *CachedFetcher) fromDisk(ctx context.Context, id int) (*hn.Item, time.Time) {
	if f.disk == nil {
		return nil, time.Time{}
	}
	raw, ok, err := f.disk.Get(ctx, diskKey(id))
	if err != nil {
		f.log.WithError(err).WithField("item", id).Warn("disk cache read failed")
		return nil, time.Time{}
	}
	if !ok {
		return nil, time.Time{}
	}
	var ent diskEntry
	if err := json.Unmarshal(raw, &ent); err != nil || ent.Item == nil || f.now().Sub(ent.FetchedAt) >= f.itemTTL {
		_ = f.disk.Delete(ctx, diskKey(id))
		return nil, time.Time{}
	}
	return ent.Item, ent.FetchedAt
}

func (f *CachedFetcher) toDisk(ctx context.Context, it *hn.Item) {
	if f.disk == nil {
		return
	}
	raw, err := json.Marshal(diskEntry{FetchedAt: f.now(), Item: it})
	if err != nil {
		return
	}
	if err := f.disk.Set(ctx, diskKey(it.ID), raw); err != nil {
		f.log.WithError(err).WithField("item", it.ID).Warn("disk cache write failed")
	}
}

func diskKey(id int) string { return "item:" + strconv.Itoa(id) }
