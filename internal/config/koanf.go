package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "REPOMATCH_CONFIG"

// DefaultConfigPath is used when neither a flag nor ConfigPathEnvVar is set.
const DefaultConfigPath = "./config.yaml"

// envMappings maps environment variables to koanf paths. Variables not
// listed here are ignored.
var envMappings = map[string]string{
	"REPOMATCH_LOGIN":               "account.login",
	"REPOMATCH_GITHUB_TOKEN":        "github.token",
	"REPOMATCH_GITHUB_API_BASE_URL": "github.apiBaseURL",
	"REPOMATCH_GITHUB_RAW_BASE_URL": "github.rawBaseURL",
	"REPOMATCH_GITHUB_TIMEOUT":      "github.timeout",
	"REPOMATCH_GITHUB_MAX_ATTEMPTS": "github.maxAttempts",
	"REPOMATCH_GITHUB_RPS":          "github.rps",
	"REPOMATCH_GITHUB_SEARCH_RPS":   "github.searchRPS",
	"REPOMATCH_BREAKER_ENABLED":     "github.breaker.enabled",
	"REPOMATCH_HYDRATE_USERS":       "github.hydrateUsers",
	"REPOMATCH_QUOTA":               "recommend.quota",
	"REPOMATCH_MAX_KEYWORDS":        "recommend.maxKeywords",
	"REPOMATCH_STOPWORDS":           "recommend.stopwords",
	"REPOMATCH_POPULARITY_CEILING":  "recommend.popularityCeiling",
	"REPOMATCH_CALL_TIMEOUT":        "recommend.callTimeout",
	"REPOMATCH_PARALLELISM":         "recommend.parallelism",
	"REPOMATCH_MAX_QUERIES":         "recommend.maxQueries",
	"REPOMATCH_MUTUAL_MODE":         "recommend.mutualMode",
	"REPOMATCH_DB_PATH":             "storage.dbPath",
	"REPOMATCH_CACHE_TTL":           "storage.cacheTTL",
	"REPOMATCH_LOG_LEVEL":           "logging.level",
	"REPOMATCH_LOG_FORMAT":          "logging.format",
	"REPOMATCH_METRICS_ADDR":        "metrics.addr",
	"REPOMATCH_SERVER_ADDR":         "server.addr",
	"REPOMATCH_RATE_LIMIT":          "server.rateLimitRequests",
	"REPOMATCH_CORS_ORIGINS":        "server.corsOrigins",
}

// sliceFields are koanf paths that accept comma-separated env values.
var sliceFields = []string{"recommend.stopwords", "server.corsOrigins"}

// ResolvePath picks the config path: explicit value, then env, then default.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Load layers defaults, the YAML file at path (if it exists) and REPOMATCH_*
// environment variables, then resolves secrets and validates the result.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	defaults := Default()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	// Layer 3: environment
	if err := k.Load(env.Provider("REPOMATCH_", ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	if err := splitSliceFields(k); err != nil {
		return Config{}, fmt.Errorf("process slice fields: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ResolveEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envTransform returns "" for unmapped variables so koanf skips them.
func envTransform(key string) string {
	return envMappings[key]
}

func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceFields {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var items []string
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		if err := k.Set(path, items); err != nil {
			return err
		}
	}
	return nil
}
