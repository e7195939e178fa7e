package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	GeoIPDBPath      string
	DefaultLocale    string
	CORSOrigins      []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Admission rate limiting.
	RateLimitWindow   time.Duration
	RateLimitGenerate int
	RateLimitRead     int
	RateLimitExempt   []string

	// Batch ceilings.
	MaxBatchLevels        int
	MaxValuesPerVariation int
	MaxVariations         int
	WorkerPoolSize        int

	// Job status cache.
	JobTTL       time.Duration
	BatchJobTTL  time.Duration
	CacheSliding time.Duration
	CacheMaxSize int
	CacheSweep   time.Duration

	// Background-processing thresholds.
	AsyncTileThreshold   int
	AsyncEntityThreshold int
	AsyncParamThreshold  int

	// Input guard.
	MaxTextLength  int
	MaxConfigBytes int
	MaxJSONDepth   int
	GuardDenylist  []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		CORSOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", nil),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),

		RateLimitWindow:   time.Second * time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)),
		RateLimitGenerate: getEnvInt("RATE_LIMIT_GENERATE", 10),
		RateLimitRead:     getEnvInt("RATE_LIMIT_READ", 60),
		RateLimitExempt:   getEnvList("RATE_LIMIT_EXCLUDE_PATHS", []string{"/v1/healthz", "/docs"}),

		MaxBatchLevels:        getEnvInt("MAX_BATCH_LEVELS", 100),
		MaxValuesPerVariation: getEnvInt("MAX_VALUES_PER_VARIATION", 10),
		MaxVariations:         getEnvInt("MAX_VARIATIONS", 6),
		WorkerPoolSize:        getEnvInt("WORKER_POOL_SIZE", 4),

		JobTTL:       time.Second * time.Duration(getEnvInt("JOB_TTL_SECONDS", 600)),
		BatchJobTTL:  time.Second * time.Duration(getEnvInt("BATCH_JOB_TTL_SECONDS", 1800)),
		CacheSliding: time.Second * time.Duration(getEnvInt("CACHE_SLIDING_SECONDS", 120)),
		CacheMaxSize: getEnvInt("CACHE_MAX_ENTRIES", 1000),
		CacheSweep:   time.Second * time.Duration(getEnvInt("CACHE_SWEEP_SECONDS", 30)),

		AsyncTileThreshold:   getEnvInt("ASYNC_TILE_THRESHOLD", 10000),
		AsyncEntityThreshold: getEnvInt("ASYNC_ENTITY_THRESHOLD", 500),
		AsyncParamThreshold:  getEnvInt("ASYNC_PARAM_THRESHOLD", 12),

		MaxTextLength:  getEnvInt("MAX_TEXT_LENGTH", 1000),
		MaxConfigBytes: getEnvInt("MAX_CONFIG_BYTES", 64*1024),
		MaxJSONDepth:   getEnvInt("MAX_JSON_DEPTH", 10),
		GuardDenylist:  getEnvList("GUARD_DENYLIST", nil),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
