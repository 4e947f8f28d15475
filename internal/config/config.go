// Package config resolves portal settings from defaults, .env files and
// VF_PORTAL_* environment variables. Command-line flags are applied on top
// by cmd.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/session"
	"github.com/joho/godotenv"
)

// Environment keys
const (
	EnvAPIURL    = "VF_PORTAL_API_URL"
	EnvStore     = "VF_PORTAL_STORE"
	EnvStorePath = "VF_PORTAL_STORE_PATH"
	EnvRedisURL  = "VF_PORTAL_REDIS_URL"
	EnvProfile   = "VF_PORTAL_PROFILE"
	EnvListen    = "VF_PORTAL_LISTEN"
	EnvNoLatency = "VF_PORTAL_NO_LATENCY"
	EnvCacheTTL  = "VF_PORTAL_CACHE_TTL"
	EnvDataDir   = "VF_PORTAL_DATA_DIR"
	EnvLogLevel  = "VF_PORTAL_LOG_LEVEL"
	EnvDotEnv    = "VF_PORTAL_DOTENV" // "0" or "false" skips .env loading
)

// DefaultDotEnvFiles are loaded from the working directory, first match wins
// per key
var DefaultDotEnvFiles = []string{".env.local", ".env"}

// Config holds resolved settings
type Config struct {
	APIURL    string // empty selects the mock backend
	StoreType session.StoreType
	StorePath string
	RedisURL  string
	Profile   string
	Listen    string
	NoLatency bool
	CacheTTL  time.Duration
	DataDir   string
	LogLevel  internal.LogLevel
}

// Default returns settings for a local, mock-backed portal
func Default() Config {
	dataDir := ".voiceflow-portal"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".voiceflow-portal")
	}
	return Config{
		StoreType: session.StoreTypeSQLite,
		Profile:   session.DefaultProfile,
		Listen:    "127.0.0.1:8080",
		CacheTTL:  internal.DefaultCacheTTL,
		DataDir:   dataDir,
		LogLevel:  internal.LogLevelInfo,
	}
}

// CacheDir is where fetched transcript lists are cached
func (c Config) CacheDir() string {
	return filepath.Join(c.DataDir, "cache")
}

// SessionPath is the sqlite session database, StorePath or a file in DataDir
func (c Config) SessionPath() string {
	if c.StorePath != "" {
		return c.StorePath
	}
	return filepath.Join(c.DataDir, "sessions.db")
}

// UseMock reports whether the simulated backend should be used
func (c Config) UseMock() bool {
	return c.APIURL == ""
}

// Validate checks the settings are coherent
func (c Config) Validate() error {
	switch c.StoreType {
	case session.StoreTypeMemory, session.StoreTypeSQLite:
	case session.StoreTypeRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%s=redis requires %s", EnvStore, EnvRedisURL)
		}
	default:
		return fmt.Errorf("invalid store %q (want memory, sqlite or redis)", c.StoreType)
	}
	if c.Profile == "" {
		return errors.New("profile must not be empty")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must not be negative, got %s", c.CacheTTL)
	}
	if c.APIURL != "" && !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("API URL %q must start with http:// or https://", c.APIURL)
	}
	return nil
}

// LoadDotEnv loads the given files, or DefaultDotEnvFiles when none are
// given. Missing files are skipped. Variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvDotEnv))); v == "0" || v == "false" {
		return nil
	}
	if len(paths) == 0 {
		paths = DefaultDotEnvFiles
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
		internal.LogDebug("loaded env from %s", p)
	}
	return nil
}

// Load reads .env files then the environment
func Load(envFiles ...string) (Config, error) {
	if err := LoadDotEnv(envFiles...); err != nil {
		return Config{}, err
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv applies VF_PORTAL_* variables from lookup over Default
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvAPIURL); ok {
		cfg.APIURL = strings.TrimRight(v, "/")
	}
	if v, ok := get(EnvStore); ok {
		cfg.StoreType = session.StoreType(strings.ToLower(v))
	}
	if v, ok := get(EnvStorePath); ok {
		cfg.StorePath = v
	}
	if v, ok := get(EnvRedisURL); ok {
		cfg.RedisURL = v
	}
	if v, ok := get(EnvProfile); ok {
		cfg.Profile = v
	}
	if v, ok := get(EnvListen); ok {
		cfg.Listen = v
	}
	if v, ok := get(EnvDataDir); ok {
		cfg.DataDir = v
	}
	if v, ok := get(EnvNoLatency); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvNoLatency, v, err)
		}
		cfg.NoLatency = b
	}
	if v, ok := get(EnvLogLevel); ok {
		level, err := internal.ParseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}
	if v, ok := get(EnvCacheTTL); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvCacheTTL, v, err)
		}
		cfg.CacheTTL = d
	}

	return cfg, cfg.Validate()
}
