package app

import (
	"database/sql"
	"fmt"
	"io"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	artifactcache "hnreader/internal/cache/artifact"
	"hnreader/internal/gateway/config"
	artifactrepo "hnreader/internal/gateway/repository/artifact"
	prefrepo "hnreader/internal/gateway/repository/preferences"
)

type gatewayStores struct {
	preferences prefrepo.Store
	artifact    artifactrepo.Store
	closers     []io.Closer
}

func (s *gatewayStores) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// initStores picks the preference backend: Postgres when DATABASE_URL is
// set, else sqlite when SQLITE_PATH is set, else memory.
func initStores(cfg *config.Config, log logrus.FieldLogger) (*gatewayStores, error) {
	s3Factory := newArtifactS3StoreFactory(cfg, log)

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		return initPostgresStores(dsn, cfg, log, s3Factory)
	}
	if path := strings.TrimSpace(cfg.SQLitePath); path != "" {
		return initSQLiteStores(path, cfg, log, s3Factory)
	}
	return initInMemoryStores(cfg, log, s3Factory)
}

func newArtifactS3StoreFactory(cfg *config.Config, log logrus.FieldLogger) func() (artifactrepo.Store, error) {
	return func() (artifactrepo.Store, error) {
		s3Cfg := artifactrepo.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		}
		s3Store, err := artifactrepo.NewS3Store(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
		}
		log.WithFields(logrus.Fields{"bucket": s3Cfg.Bucket, "endpoint": s3Cfg.Endpoint}).Info("artifact store: s3")
		return s3Store, nil
	}
}

func initPostgresStores(dsn string, cfg *config.Config, log logrus.FieldLogger, s3Factory func() (artifactrepo.Store, error)) (*gatewayStores, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	artifactStore, err := chooseArtifactStore(cfg, log, "postgres", s3Factory)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Info("preference store: postgres")
	return &gatewayStores{
		preferences: prefrepo.NewPostgresStore(db),
		artifact:    artifactStore,
		closers:     []io.Closer{db},
	}, nil
}

func initSQLiteStores(path string, cfg *config.Config, log logrus.FieldLogger, s3Factory func() (artifactrepo.Store, error)) (*gatewayStores, error) {
	store, err := prefrepo.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	artifactStore, err := chooseArtifactStore(cfg, log, "sqlite", s3Factory)
	if err != nil {
		store.Close()
		return nil, err
	}
	log.WithField("path", path).Info("preference store: sqlite")
	return &gatewayStores{
		preferences: store,
		artifact:    artifactStore,
		closers:     []io.Closer{store},
	}, nil
}

func initInMemoryStores(cfg *config.Config, log logrus.FieldLogger, s3Factory func() (artifactrepo.Store, error)) (*gatewayStores, error) {
	artifactStore, err := chooseArtifactStore(cfg, log, "in-memory", s3Factory)
	if err != nil {
		return nil, err
	}
	log.Info("preference store: in-memory")
	return &gatewayStores{
		preferences: prefrepo.NewMemoryStore(),
		artifact:    artifactStore,
	}, nil
}

// chooseArtifactStore uses S3 when an endpoint is configured and memory
// otherwise; either way reads go through the artifact cache.
func chooseArtifactStore(
	cfg *config.Config,
	log logrus.FieldLogger,
	label string,
	s3Factory func() (artifactrepo.Store, error),
) (artifactrepo.Store, error) {
	var origin artifactrepo.Store
	if cfg.Artifact.Enabled {
		s3Store, err := s3Factory()
		if err != nil {
			return nil, err
		}
		origin = s3Store
	} else {
		log.WithField("backend", label).Info("artifact store: in-memory exports")
		origin = artifactrepo.NewMemoryStore()
	}
	return artifactcache.NewCachedStore(origin, artifactcache.DefaultCacheConfig()), nil
}
