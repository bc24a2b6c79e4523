package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"repomatch/internal/model"
)

// Config is the application's configuration model.
// It captures the GitHub connection, engine tuning, storage and outputs.
type Config struct {
	Account   AccountConfig   `yaml:"account" koanf:"account"`
	GitHub    GitHubConfig    `yaml:"github" koanf:"github"`
	Recommend RecommendConfig `yaml:"recommend" koanf:"recommend"`
	Storage   StorageConfig   `yaml:"storage" koanf:"storage"`
	Logging   LoggingConfig   `yaml:"logging" koanf:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" koanf:"metrics"`
	Server    ServerConfig    `yaml:"server" koanf:"server"`
}

type AccountConfig struct {
	// Default login for commands run without one.
	Login string `yaml:"login" koanf:"login"`
}

type GitHubConfig struct {
	// API token. If empty, read from env GITHUB_TOKEN
	Token       string        `yaml:"token" koanf:"token"`
	APIBaseURL  string        `yaml:"apiBaseURL" koanf:"apiBaseURL" validate:"required,url"`
	RawBaseURL  string        `yaml:"rawBaseURL" koanf:"rawBaseURL" validate:"required,url"`
	Timeout     time.Duration `yaml:"timeout" koanf:"timeout" validate:"gt=0"`
	MaxAttempts int           `yaml:"maxAttempts" koanf:"maxAttempts" validate:"min=1,max=10"`
	BaseBackoff time.Duration `yaml:"baseBackoff" koanf:"baseBackoff" validate:"gte=0"`
	// Core API requests per second and burst
	RPS   float64 `yaml:"rps" koanf:"rps" validate:"gt=0"`
	Burst int     `yaml:"burst" koanf:"burst" validate:"min=1"`
	// Search API requests per second and burst (GitHub allows 30/min authenticated)
	SearchRPS   float64       `yaml:"searchRPS" koanf:"searchRPS" validate:"gt=0"`
	SearchBurst int           `yaml:"searchBurst" koanf:"searchBurst" validate:"min=1"`
	Breaker     BreakerConfig `yaml:"breaker" koanf:"breaker"`
	// Fetch full profiles for user search hits (search omits bio and followers)
	HydrateUsers bool `yaml:"hydrateUsers" koanf:"hydrateUsers"`
}

type BreakerConfig struct {
	Enabled bool `yaml:"enabled" koanf:"enabled"`
	// Consecutive failures before the breaker opens
	Failures    uint32        `yaml:"failures" koanf:"failures" validate:"min=1"`
	MaxRequests uint32        `yaml:"maxRequests" koanf:"maxRequests" validate:"min=1"`
	Interval    time.Duration `yaml:"interval" koanf:"interval" validate:"gte=0"`
	Timeout     time.Duration `yaml:"timeout" koanf:"timeout" validate:"gt=0"`
}

type RecommendConfig struct {
	Quota             int      `yaml:"quota" koanf:"quota" validate:"min=1,max=100"`
	MaxKeywords       int      `yaml:"maxKeywords" koanf:"maxKeywords" validate:"min=1,max=50"`
	MinKeywordLength  int      `yaml:"minKeywordLength" koanf:"minKeywordLength" validate:"min=1"`
	Stopwords         []string `yaml:"stopwords" koanf:"stopwords"`
	PopularityCeiling int      `yaml:"popularityCeiling" koanf:"popularityCeiling" validate:"gte=0"`
	// Closest repos must be pushed after this date (YYYY-MM-DD)
	ClosestPushedAfter string        `yaml:"closestPushedAfter" koanf:"closestPushedAfter" validate:"required,datetime=2006-01-02"`
	NewMaxAge          time.Duration `yaml:"newMaxAge" koanf:"newMaxAge" validate:"gt=0"`
	CallTimeout        time.Duration `yaml:"callTimeout" koanf:"callTimeout" validate:"gt=0"`
	Parallelism        int           `yaml:"parallelism" koanf:"parallelism" validate:"min=1,max=16"`
	// 0 = unlimited
	MaxQueries int      `yaml:"maxQueries" koanf:"maxQueries" validate:"gte=0"`
	RoleTerms  []string `yaml:"roleTerms" koanf:"roleTerms" validate:"min=1"`
	UserFields []string `yaml:"userFields" koanf:"userFields" validate:"min=1,dive,oneof=bio login name email"`

	ExcludeStarredFromNew      bool          `yaml:"excludeStarredFromNew" koanf:"excludeStarredFromNew"`
	ExcludeOrgOwnedFromClosest bool          `yaml:"excludeOrgOwnedFromClosest" koanf:"excludeOrgOwnedFromClosest"`
	MutualMode                 string        `yaml:"mutualMode" koanf:"mutualMode" validate:"oneof=intersection union"`
	Weights                    WeightsConfig `yaml:"weights" koanf:"weights"`
}

type WeightsConfig struct {
	Repo      model.RepoWeights      `yaml:"repo" koanf:"repo"`
	Developer model.DeveloperWeights `yaml:"developer" koanf:"developer"`
}

type StorageConfig struct {
	// Response cache database; empty disables caching
	DBPath   string        `yaml:"dbPath" koanf:"dbPath"`
	CacheTTL time.Duration `yaml:"cacheTTL" koanf:"cacheTTL" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" koanf:"level" validate:"oneof=debug info warn error disabled"`
	Format string `yaml:"format" koanf:"format" validate:"oneof=json console"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" koanf:"addr"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr" koanf:"addr" validate:"required"`
	ReadTimeout  time.Duration `yaml:"readTimeout" koanf:"readTimeout" validate:"gt=0"`
	WriteTimeout time.Duration `yaml:"writeTimeout" koanf:"writeTimeout" validate:"gt=0"`
	// Requests per client IP per window on /v1 routes; 0 disables limiting
	RateLimitRequests int           `yaml:"rateLimitRequests" koanf:"rateLimitRequests" validate:"gte=0"`
	RateLimitWindow   time.Duration `yaml:"rateLimitWindow" koanf:"rateLimitWindow" validate:"required_with=RateLimitRequests"`
	CORSOrigins       []string      `yaml:"corsOrigins" koanf:"corsOrigins" validate:"dive,required"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		GitHub: GitHubConfig{
			APIBaseURL:  "https://api.github.com",
			RawBaseURL:  "https://raw.githubusercontent.com",
			Timeout:     20 * time.Second,
			MaxAttempts: 4,
			BaseBackoff: 500 * time.Millisecond,
			RPS:         1.0,
			Burst:       5,
			SearchRPS:   0.5,
			SearchBurst: 2,
			Breaker: BreakerConfig{
				Enabled:     true,
				Failures:    5,
				MaxRequests: 1,
				Interval:    time.Minute,
				Timeout:     30 * time.Second,
			},
			HydrateUsers: true,
		},
		Recommend: RecommendConfig{
			Quota:                 5,
			MaxKeywords:           8,
			MinKeywordLength:      3,
			Stopwords:             defaultStopwords(),
			PopularityCeiling:     100000,
			ClosestPushedAfter:    "2023-01-01",
			NewMaxAge:             180 * 24 * time.Hour,
			CallTimeout:           15 * time.Second,
			Parallelism:           1,
			RoleTerms:             []string{"developer", "engineer", "opensource"},
			UserFields:            []string{"bio", "login", "name"},
			ExcludeStarredFromNew: true,
			MutualMode:            "intersection",
			Weights: WeightsConfig{
				Repo:      model.DefaultRepoWeights(),
				Developer: model.DefaultDeveloperWeights(),
			},
		},
		Storage: StorageConfig{DBPath: "./repomatch.db", CacheTTL: 6 * time.Hour},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      5 * time.Minute,
			RateLimitRequests: 30,
			RateLimitWindow:   time.Minute,
		},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.GitHub.Token == "" {
		c.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = os.Getenv("METRICS_ADDR")
	}
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
