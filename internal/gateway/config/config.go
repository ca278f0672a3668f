// Package config reads gateway settings from the environment, with an
// optional .env file and a -port flag.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.akpain.net/cfger"
)

type Config struct {
	Port string
	Env  string

	LogLevel  string
	LogFormat string

	// CORSOrigins empty means any origin.
	CORSOrigins []string

	HN          HNConfig
	Thread      ThreadConfig
	UpdatesPoll time.Duration
	LLM         LLMConfig

	DatabaseURL string
	SQLitePath  string
	Artifact    ArtifactConfig
}

type HNConfig struct {
	BaseURL         string
	Timeout         time.Duration
	CacheItemTTL    time.Duration
	CacheMaxEntries int
	// CacheDir enables the on-disk item tier when set.
	CacheDir string
}

type ThreadConfig struct {
	PageSize   int
	SessionTTL time.Duration
}

type LLMConfig struct {
	GeminiAPIKey string
	GeminiModel  string
	RPS          float64
	Burst        int
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load with explicit command-line arguments.
func LoadArgs(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	port := fs.String("port", ":8081", "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	p := newParser()
	if envPort := p.str("PORT", ""); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := p.str("APP_ENV", "local")
	if env == "" {
		env = "local"
	}

	cfg := &Config{
		Port:        *port,
		Env:         env,
		LogLevel:    p.str("LOG_LEVEL", "info"),
		LogFormat:   p.str("LOG_FORMAT", "text"),
		CORSOrigins: p.list("CORS_ALLOWED_ORIGINS"),
		HN: HNConfig{
			BaseURL:         strings.TrimRight(p.str("HN_API_BASE", "https://hacker-news.firebaseio.com/v0"), "/"),
			Timeout:         p.duration("HN_HTTP_TIMEOUT", 10*time.Second),
			CacheItemTTL:    p.duration("HN_CACHE_ITEM_TTL", 2*time.Minute),
			CacheMaxEntries: p.integer("HN_CACHE_MAX_ENTRIES", 4096),
			CacheDir:        p.str("HN_CACHE_DIR", ""),
		},
		Thread: ThreadConfig{
			PageSize:   p.integer("THREAD_PAGE_SIZE", 10),
			SessionTTL: p.duration("THREAD_SESSION_TTL", 30*time.Minute),
		},
		UpdatesPoll: p.duration("UPDATES_POLL_INTERVAL", 30*time.Second),
		LLM: LLMConfig{
			GeminiAPIKey: p.str("GEMINI_API_KEY", ""),
			GeminiModel:  p.str("GEMINI_MODEL", "gemini-2.5-flash"),
			RPS:          p.float("LLM_RPS", 0),
			Burst:        p.integer("LLM_BURST", 1),
		},
		DatabaseURL: p.str("DATABASE_URL", ""),
		SQLitePath:  p.str("SQLITE_PATH", ""),
		Artifact:    loadArtifactConfig(p, env),
	}
	if err := p.err(); err != nil {
		return nil, err
	}
	if cfg.Thread.PageSize <= 0 {
		return nil, fmt.Errorf("THREAD_PAGE_SIZE must be positive, got %d", cfg.Thread.PageSize)
	}
	return cfg, nil
}

func loadArtifactConfig(p parser, env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(p, env)
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    p.str("ARTIFACT_S3_REGION", "us-east-1"),
		AccessKey: firstNonEmpty(p.str("ARTIFACT_S3_ACCESS_KEY", ""), p.str("MINIO_ROOT_USER", "")),
		SecretKey: firstNonEmpty(p.str("ARTIFACT_S3_SECRET_KEY", ""), p.str("MINIO_ROOT_PASSWORD", "")),
		Bucket:    p.str("ARTIFACT_S3_BUCKET", "hnreader-exports"),
		UseSSL:    resolveArtifactUseSSL(p, env),
	}
}

// resolveArtifactEndpoint prefers a local MinIO when one is named; without
// any endpoint exports stay in memory.
func resolveArtifactEndpoint(p parser, env string) string {
	if strings.EqualFold(env, "local") {
		return p.str("ARTIFACT_MINIO_ENDPOINT", "")
	}
	return firstNonEmpty(p.str("ARTIFACT_S3_ENDPOINT", ""), p.str("ARTIFACT_MINIO_ENDPOINT", ""))
}

func resolveArtifactUseSSL(p parser, env string) bool {
	if strings.EqualFold(env, "local") {
		return false
	}
	raw := p.str("ARTIFACT_S3_USE_SSL", "")
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

// parser reads typed values through cfger and remembers bad ones.
type parser struct {
	get  func(key, def string) string
	errs *[]error
}

func newParser() parser {
	cl := cfger.New()
	return parser{
		get: func(key, def string) string {
			return cl.GetEnv(key).WithDefault(def).AsString()
		},
		errs: &[]error{},
	}
}

func (p parser) str(key, def string) string {
	return strings.TrimSpace(p.get(key, def))
}

func (p parser) list(key string) []string {
	var out []string
	for _, v := range strings.Split(p.str(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (p parser) duration(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (p parser) integer(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p parser) float(key string, def float64) float64 {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p parser) fail(err error) {
	*p.errs = append(*p.errs, err)
}

func (p parser) err() error {
	if len(*p.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(*p.errs...))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
