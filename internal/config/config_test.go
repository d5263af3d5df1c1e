package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_Modes(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad driver", func(c *Config) { c.Database.Driver = "memcached" }, "database.driver"},
		{"bad session backend", func(c *Config) { c.Session.Backend = "disk" }, "session.backend"},
		{"bad embedding mode", func(c *Config) { c.Embedding.Mode = "magic" }, "embedding.mode"},
		{"live embedding without key", func(c *Config) { c.Embedding.Mode = ModeLive }, "embedding.provider.api_key"},
		{"live embedding", func(c *Config) {
			c.Embedding.Mode = ModeLive
			c.Embedding.Provider.APIKey = "k"
			c.Embedding.Model = "Qwen/Qwen3-Embedding-8B"
		}, ""},
		{"live generation without model", func(c *Config) {
			c.Generation.Mode = ModeLive
			c.Generation.Provider.APIKey = "k"
		}, "generation.provider.api_key"},
		{"bad diversity", func(c *Config) { c.Search.Diversity = "random" }, "search.diversity"},
		{"lambda above one", func(c *Config) { c.Search.MMRLambda = 1.5 }, "search.mmr_lambda"},
		{"rerank cap below top k", func(c *Config) { c.Search.RerankTopK = 2 }, "search.rerank_top_k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != "redis" {
		t.Errorf("expected driver=redis, got %q", cfg.Database.Driver)
	}
	if cfg.Session.Backend != BackendMemory || cfg.Session.MaxSessions != 100 || cfg.Session.HistoryWindow != 5 {
		t.Errorf("unexpected session defaults %+v", cfg.Session)
	}
	if cfg.Embedding.Mode != ModeSynthetic || cfg.Embedding.Dimensions != 3584 {
		t.Errorf("unexpected embedding defaults %+v", cfg.Embedding)
	}
	s := cfg.Search
	if s.CandidateK != 30 || s.RerankTopK != 10 || s.TopK != 5 || s.NumSubQueries != 3 {
		t.Errorf("unexpected search sizes %+v", s)
	}
	if s.SimilarityThreshold != 0.3 || s.MMRLambda != 0.7 || s.Diversity != DiversityTruncate {
		t.Errorf("unexpected search tuning %+v", s)
	}
	if s.IndexName != "idx:facilities" || s.KeyPrefix != "outing:facility:" {
		t.Errorf("unexpected index naming %+v", s)
	}
	if cfg.Generation.Mode != ModeTemplate {
		t.Errorf("expected generation mode template, got %q", cfg.Generation.Mode)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Session: SessionConfig{Backend: BackendRedis, MaxSessions: 500},
		Search:  SearchConfig{TopK: 3, Diversity: DiversityMMR, MMRLambda: 0.5},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Session.Backend != BackendRedis || cfg.Session.MaxSessions != 500 {
		t.Errorf("session overridden: %+v", cfg.Session)
	}
	if cfg.Search.TopK != 3 || cfg.Search.Diversity != DiversityMMR || cfg.Search.MMRLambda != 0.5 {
		t.Errorf("search overridden: %+v", cfg.Search)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("OUTING_TEST_PORT", "9090")
	t.Setenv("OUTING_TEST_KMA_KEY", "secret")

	cfg, err := Parse([]byte(`
http:
  port: ${OUTING_TEST_PORT}
database:
  addrs: ["${OUTING_TEST_DB:-localhost:6379}"]
weather:
  api_key: ${OUTING_TEST_KMA_KEY}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("expected default addr, got %v", cfg.Database.Addrs)
	}
	if cfg.Weather.APIKey != "secret" {
		t.Errorf("expected api key from env, got %q", cfg.Weather.APIKey)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected YAML error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Fatal("expected validation error for missing addrs")
	}
}
