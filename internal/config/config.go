package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Strategy modes selected once at startup.
const (
	ModeSynthetic = "synthetic"
	ModeLive      = "live"
	ModeTemplate  = "template"

	BackendMemory = "memory"
	BackendRedis  = "redis"

	DiversityTruncate = "truncate"
	DiversityMMR      = "mmr"
)

// Config holds the outing API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Auth       AuthConfig       `yaml:"auth"`
	Session    SessionConfig    `yaml:"session"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Search     SearchConfig     `yaml:"search"`
	Rerank     RerankConfig     `yaml:"rerank"`
	Generation GenerationConfig `yaml:"generation"`
	Weather    WeatherConfig    `yaml:"weather"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. Empty api_keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SessionConfig selects the session backend.
type SessionConfig struct {
	Backend       string `yaml:"backend"` // memory, redis
	MaxSessions   int    `yaml:"max_sessions"`
	TTLMinutes    int    `yaml:"ttl_minutes"`
	HistoryWindow int    `yaml:"history_window"`
	TurnTimeoutMs int    `yaml:"turn_timeout_ms"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Mode             string         `yaml:"mode"` // synthetic, live
	Provider         ProviderConfig `yaml:"provider"`
	Model            string         `yaml:"model"`
	Dimensions       int            `yaml:"dimensions"`
	// SendDimensions forwards dimensions in the request; leave off for models that reject it.
	SendDimensions   bool           `yaml:"send_dimensions"`
	QueryInstruction string         `yaml:"query_instruction"`
	TimeoutMs        int            `yaml:"timeout_ms"`
	Cache            CacheConfig    `yaml:"cache"`
}

// CacheConfig controls the embedding cache.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLMinutes int  `yaml:"ttl_minutes"`
}

// ProviderConfig holds OpenAI-compatible provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// SearchConfig tunes the retrieval pipeline.
type SearchConfig struct {
	IndexName           string  `yaml:"index_name"`
	KeyPrefix           string  `yaml:"key_prefix"`
	Algorithm           string  `yaml:"algorithm"` // HNSW, FLAT
	CandidateK          int     `yaml:"candidate_k"`
	RerankTopK          int     `yaml:"rerank_top_k"`
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MultiQuery          bool    `yaml:"multi_query"`
	NumSubQueries       int     `yaml:"num_sub_queries"`
	Diversity           string  `yaml:"diversity"` // truncate, mmr
	MMRLambda           float64 `yaml:"mmr_lambda"`
	TimeoutMs           int     `yaml:"timeout_ms"`
}

// RerankConfig points at a cross-encoder service. Empty URL disables reranking.
type RerankConfig struct {
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// GenerationConfig holds answer generation settings.
type GenerationConfig struct {
	Mode        string         `yaml:"mode"` // template, live
	Provider    ProviderConfig `yaml:"provider"`
	Model       string         `yaml:"model"`
	Temperature float32        `yaml:"temperature"`
	MaxTokens   int            `yaml:"max_tokens"`
	TimeoutMs   int            `yaml:"timeout_ms"`
}

// WeatherConfig holds KMA settings. Empty api_key means fallback readings only.
type WeatherConfig struct {
	APIKey     string  `yaml:"api_key"`
	BaseURL    string  `yaml:"base_url"`
	TimeoutMs  int     `yaml:"timeout_ms"`
	RatePerSec float64 `yaml:"rate_per_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, when present, seeds the environment first.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	c.applySessionDefaults()
	c.applyEmbeddingDefaults()
	c.applySearchDefaults()

	if c.Rerank.TimeoutMs <= 0 {
		c.Rerank.TimeoutMs = 5000
	}
	if c.Generation.Mode == "" {
		c.Generation.Mode = ModeTemplate
	}
	if c.Generation.TimeoutMs <= 0 {
		c.Generation.TimeoutMs = 15000
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 512
	}
	if c.Weather.TimeoutMs <= 0 {
		c.Weather.TimeoutMs = 5000
	}
	if c.Weather.RatePerSec <= 0 {
		c.Weather.RatePerSec = 5
	}
}

func (c *Config) applySessionDefaults() {
	if c.Session.Backend == "" {
		c.Session.Backend = BackendMemory
	}
	if c.Session.MaxSessions <= 0 {
		c.Session.MaxSessions = 100
	}
	if c.Session.TTLMinutes <= 0 {
		c.Session.TTLMinutes = 24 * 60
	}
	if c.Session.HistoryWindow <= 0 {
		c.Session.HistoryWindow = 5
	}
	if c.Session.TurnTimeoutMs <= 0 {
		c.Session.TurnTimeoutMs = 30000
	}
}

func (c *Config) applyEmbeddingDefaults() {
	if c.Embedding.Mode == "" {
		c.Embedding.Mode = ModeSynthetic
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 3584
	}
	if c.Embedding.TimeoutMs <= 0 {
		c.Embedding.TimeoutMs = 10000
	}
	if c.Embedding.Cache.TTLMinutes <= 0 {
		c.Embedding.Cache.TTLMinutes = 7 * 24 * 60
	}
}

func (c *Config) applySearchDefaults() {
	s := &c.Search
	if s.IndexName == "" {
		s.IndexName = "idx:facilities"
	}
	if s.KeyPrefix == "" {
		s.KeyPrefix = "outing:facility:"
	}
	if s.Algorithm == "" {
		s.Algorithm = "HNSW"
	}
	if s.CandidateK <= 0 {
		s.CandidateK = 30
	}
	if s.RerankTopK <= 0 {
		s.RerankTopK = 10
	}
	if s.TopK <= 0 {
		s.TopK = 5
	}
	if s.SimilarityThreshold <= 0 {
		s.SimilarityThreshold = 0.3
	}
	if s.NumSubQueries <= 0 {
		s.NumSubQueries = 3
	}
	if s.Diversity == "" {
		s.Diversity = DiversityTruncate
	}
	if s.MMRLambda <= 0 {
		s.MMRLambda = 0.7
	}
	if s.TimeoutMs <= 0 {
		s.TimeoutMs = 10000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Database.Driver {
	case "redis", "valkey":
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}
	switch c.Session.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("session.backend must be %q or %q, got %q", BackendMemory, BackendRedis, c.Session.Backend)
	}
	switch c.Embedding.Mode {
	case ModeSynthetic:
	case ModeLive:
		if c.Embedding.Provider.APIKey == "" || c.Embedding.Model == "" {
			return fmt.Errorf("embedding.provider.api_key and embedding.model are required in live mode")
		}
	default:
		return fmt.Errorf("embedding.mode must be %q or %q, got %q", ModeSynthetic, ModeLive, c.Embedding.Mode)
	}
	switch c.Generation.Mode {
	case ModeTemplate:
	case ModeLive:
		if c.Generation.Provider.APIKey == "" || c.Generation.Model == "" {
			return fmt.Errorf("generation.provider.api_key and generation.model are required in live mode")
		}
	default:
		return fmt.Errorf("generation.mode must be %q or %q, got %q", ModeTemplate, ModeLive, c.Generation.Mode)
	}
	switch c.Search.Diversity {
	case DiversityTruncate, DiversityMMR:
	default:
		return fmt.Errorf("search.diversity must be %q or %q, got %q", DiversityTruncate, DiversityMMR, c.Search.Diversity)
	}
	if c.Search.MMRLambda > 1 {
		return fmt.Errorf("search.mmr_lambda must be in (0, 1], got %v", c.Search.MMRLambda)
	}
	if c.Search.SimilarityThreshold > 1 {
		return fmt.Errorf("search.similarity_threshold must be <= 1, got %v", c.Search.SimilarityThreshold)
	}
	if c.Search.RerankTopK < c.Search.TopK {
		return fmt.Errorf("search.rerank_top_k (%d) must be >= search.top_k (%d)", c.Search.RerankTopK, c.Search.TopK)
	}
	return nil
}

// Millis converts a millisecond setting to a Duration.
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
