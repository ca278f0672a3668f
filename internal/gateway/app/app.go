package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/sirupsen/logrus"

	"hnreader/internal/assist"
	"hnreader/internal/cache/disk"
	"hnreader/internal/cache/item"
	"hnreader/internal/feed"
	"hnreader/internal/gateway/config"
	"hnreader/internal/gateway/handler"
	"hnreader/internal/gateway/handler/rpc"
	"hnreader/internal/gateway/middleware"
	"hnreader/internal/gateway/server"
	"hnreader/internal/gateway/service/preferences"
	"hnreader/internal/hn"
	"hnreader/internal/llm"
	"hnreader/internal/thread"
)

type App struct {
	server  *server.Server
	log     logrus.FieldLogger
	stores  *gatewayStores
	disk    *disk.Store
	llm     llm.Client
	threads *thread.Registry
	cancel  context.CancelFunc
	done    chan struct{}
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := NewLogger(cfg.LogLevel, cfg.LogFormat)
	return NewWithConfig(cfg, log)
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(level, format string) *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	if strings.EqualFold(format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

func NewWithConfig(cfg *config.Config, log *logrus.Logger) (*App, error) {
	// Dependencies
	hnClient := hn.NewClient(hn.Options{BaseURL: cfg.HN.BaseURL, Timeout: cfg.HN.Timeout, Logger: log})

	var diskStore *disk.Store
	if dir := strings.TrimSpace(cfg.HN.CacheDir); dir != "" {
		ds, err := disk.Open(disk.Config{Dir: dir, MaxEntries: cfg.HN.CacheMaxEntries * 4, TTL: cfg.HN.CacheItemTTL})
		if err != nil {
			return nil, fmt.Errorf("failed to open disk cache: %w", err)
		}
		diskStore = ds
	}
	cacheCfg := item.DefaultCacheConfig()
	cacheCfg.ItemTTL = cfg.HN.CacheItemTTL
	cacheCfg.ItemMaxEntries = cfg.HN.CacheMaxEntries
	cacheCfg.Disk = diskStore
	cacheCfg.Logger = log
	cached := item.NewCachedFetcher(hnClient, cacheCfg)

	feedSvc := feed.New(cached, feed.WithLogger(log), feed.WithMaxConcurrency(32))
	threads := thread.NewRegistry(feedSvc, thread.RegistryConfig{
		PageSize: cfg.Thread.PageSize,
		IdleTTL:  cfg.Thread.SessionTTL,
		Logger:   log,
	})

	stores, err := initStores(cfg, log)
	if err != nil {
		return nil, err
	}
	prefSvc := preferences.New(stores.preferences, feedSvc, stores.artifact, log)

	llmClient, err := newLLMClient(cfg, log)
	if err != nil {
		stores.Close()
		return nil, err
	}
	assistSvc := assist.New(llmClient, feedSvc, log)

	rpcHandler := rpc.New(feedSvc, threads, prefSvc, assistSvc)
	updatesHandler := handler.NewUpdatesHandler(&invalidatingPoller{feed: feedSvc, cache: cached}, cfg.UpdatesPoll, log)
	health := handler.Health(func() handler.HealthStatus {
		return handler.HealthStatus{ThreadSessions: threads.Len(), AssistEnabled: assistSvc.Configured()}
	})

	// Routing & Server
	mux := server.NewMux(rpcHandler, updatesHandler, health, cfg.CORSOrigins,
		connect.WithInterceptors(middleware.RPCLogging(log.WithField("component", "rpc"))))
	srv := server.New(cfg.Port, mux, log)

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		server:  srv,
		log:     log,
		stores:  stores,
		disk:    diskStore,
		llm:     llmClient,
		threads: threads,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go a.maintain(ctx, cfg.Thread.SessionTTL)
	return a, nil
}

// newLLMClient returns nil without an API key; assist calls then fail with
// llm.ErrNotConfigured.
func newLLMClient(cfg *config.Config, log logrus.FieldLogger) (llm.Client, error) {
	if strings.TrimSpace(cfg.LLM.GeminiAPIKey) == "" {
		log.Warn("GEMINI_API_KEY not set; assist endpoints disabled")
		return nil, nil
	}
	gemini, err := llm.NewGeminiClient(context.Background(), llm.GeminiConfig{
		APIKey: cfg.LLM.GeminiAPIKey,
		Model:  cfg.LLM.GeminiModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
	}
	return llm.Wrap(gemini,
		llm.Logging(log.WithField("component", "llm")),
		llm.Retry(3, 500*time.Millisecond),
		llm.RateLimit(cfg.LLM.RPS, cfg.LLM.Burst),
	), nil
}

// maintain sweeps idle thread sessions and flushes the disk cache index.
func (a *App) maintain(ctx context.Context, ttl time.Duration) {
	defer close(a.done)
	every := ttl / 4
	if every < time.Second {
		every = time.Second
	}
	if every > time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.threads.Sweep(); n > 0 {
				a.log.WithField("sessions", n).Debug("expired idle thread sessions")
			}
			if err := a.disk.Flush(); err != nil {
				a.log.WithError(err).Warn("disk cache flush failed")
			}
		}
	}
}

func (a *App) Logger() logrus.FieldLogger { return a.log }

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.cancel()
	<-a.done
	if ferr := a.disk.Flush(); ferr != nil {
		a.log.WithError(ferr).Warn("disk cache flush failed")
	}
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if cerr := a.stores.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// invalidatingPoller drops cached copies of whatever the update feed
// reports as changed before the delta reaches clients.
type invalidatingPoller struct {
	feed  *feed.Service
	cache *item.CachedFetcher
}

func (p *invalidatingPoller) PollUpdates(ctx context.Context, prev feed.Snapshot) (feed.Snapshot, feed.Delta, error) {
	next, delta, err := p.feed.PollUpdates(ctx, prev)
	if err != nil {
		return next, delta, err
	}
	p.cache.Invalidate(ctx, delta.Items...)
	p.cache.InvalidateUsers(delta.Profiles...)
	return next, delta, nil
}
