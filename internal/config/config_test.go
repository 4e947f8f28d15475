package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/session"
)

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.StoreType != session.StoreTypeSQLite || cfg.Profile != "default" {
		t.Errorf("Default() = %+v", cfg)
	}
	if cfg.CacheTTL != internal.DefaultCacheTTL {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if !cfg.UseMock() {
		t.Error("default config should use the mock backend")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
	if filepath.Base(cfg.SessionPath()) != "sessions.db" || filepath.Base(cfg.CacheDir()) != "cache" {
		t.Errorf("paths = %s, %s", cfg.SessionPath(), cfg.CacheDir())
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(t *testing.T, cfg Config)
		wantErr string
	}{
		{
			name: "empty",
			env:  map[string]string{},
			check: func(t *testing.T, cfg Config) {
				if cfg.APIURL != "" || cfg.NoLatency {
					t.Errorf("cfg = %+v", cfg)
				}
			},
		},
		{
			name: "all keys",
			env: map[string]string{
				EnvAPIURL:    "http://localhost:8080/",
				EnvStore:     "Memory",
				EnvStorePath: "/tmp/s.db",
				EnvProfile:   "work",
				EnvListen:    ":9000",
				EnvNoLatency: "true",
				EnvCacheTTL:  "90s",
				EnvDataDir:   "/tmp/vfp",
				EnvLogLevel:  "WARN",
			},
			check: func(t *testing.T, cfg Config) {
				if cfg.APIURL != "http://localhost:8080" || cfg.UseMock() {
					t.Errorf("APIURL = %q", cfg.APIURL)
				}
				if cfg.StoreType != session.StoreTypeMemory || cfg.Profile != "work" || cfg.Listen != ":9000" {
					t.Errorf("cfg = %+v", cfg)
				}
				if !cfg.NoLatency || cfg.CacheTTL != 90*time.Second {
					t.Errorf("latency/ttl = %v/%v", cfg.NoLatency, cfg.CacheTTL)
				}
				if cfg.LogLevel != internal.LogLevelWarn {
					t.Errorf("log level = %s", cfg.LogLevel)
				}
				if cfg.SessionPath() != "/tmp/s.db" || cfg.CacheDir() != filepath.Join("/tmp/vfp", "cache") {
					t.Errorf("paths = %s, %s", cfg.SessionPath(), cfg.CacheDir())
				}
			},
		},
		{
			name: "blank values ignored",
			env:  map[string]string{EnvProfile: "  ", EnvStore: ""},
			check: func(t *testing.T, cfg Config) {
				if cfg.Profile != "default" || cfg.StoreType != session.StoreTypeSQLite {
					t.Errorf("cfg = %+v", cfg)
				}
			},
		},
		{
			name: "redis with url",
			env:  map[string]string{EnvStore: "redis", EnvRedisURL: "redis://localhost:6379/0"},
			check: func(t *testing.T, cfg Config) {
				if cfg.StoreType != session.StoreTypeRedis || cfg.RedisURL == "" {
					t.Errorf("cfg = %+v", cfg)
				}
			},
		},
		{name: "redis without url", env: map[string]string{EnvStore: "redis"}, wantErr: EnvRedisURL},
		{name: "unknown store", env: map[string]string{EnvStore: "etcd"}, wantErr: "invalid store"},
		{name: "bad bool", env: map[string]string{EnvNoLatency: "sometimes"}, wantErr: EnvNoLatency},
		{name: "bad log level", env: map[string]string{EnvLogLevel: "loud"}, wantErr: EnvLogLevel},
		{name: "bad duration", env: map[string]string{EnvCacheTTL: "soon"}, wantErr: EnvCacheTTL},
		{name: "negative ttl", env: map[string]string{EnvCacheTTL: "-1m"}, wantErr: "negative"},
		{name: "bad api url", env: map[string]string{EnvAPIURL: "localhost:8080"}, wantErr: "http://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromEnv(mapLookup(tt.env))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("FromEnv() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromEnv() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	base := filepath.Join(dir, ".env")
	if err := os.WriteFile(local, []byte("VF_PORTAL_PROFILE=from-local\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(base, []byte("VF_PORTAL_PROFILE=from-base\nVF_PORTAL_LISTEN=:7777\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvDotEnv, "")
	t.Setenv(EnvProfile, "")
	os.Unsetenv(EnvProfile)
	t.Setenv(EnvListen, "")
	os.Unsetenv(EnvListen)

	if err := LoadDotEnv(local, base, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(EnvProfile); got != "from-local" {
		t.Errorf("%s = %q, want from-local (first file wins)", EnvProfile, got)
	}
	if got := os.Getenv(EnvListen); got != ":7777" {
		t.Errorf("%s = %q", EnvListen, got)
	}

	cfg, err := Load(local)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Profile != "from-local" || cfg.Listen != ":7777" {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestLoadDotEnv_Disabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("VF_PORTAL_LISTEN=:1234\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvDotEnv, "0")
	t.Setenv(EnvListen, "")
	os.Unsetenv(EnvListen)

	if err := LoadDotEnv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv(EnvListen); got != "" {
		t.Errorf("%s = %q, want unset when dotenv is disabled", EnvListen, got)
	}
}

func TestLoadDotEnv_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("VF_PORTAL_PROFILE!=x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvDotEnv, "")
	if err := LoadDotEnv(path); err == nil {
		t.Error("LoadDotEnv() should fail on a malformed file")
	}
}
