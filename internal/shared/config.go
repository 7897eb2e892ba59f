package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	LogLevel       string
	HTTPAddr       string
	MetricsAddr    string
	WPBase         string
	WPPageSize     int
	WPRPS          int
	WPTimeout      time.Duration
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	CacheTTL       time.Duration
	MySQLDSN       string
	RefreshEvery   time.Duration
	ImageWorkers   int
	PrefetchImages bool
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		WPBase:         env("WP_BASE_URL", "https://api.elixirtrips.com"),
		WPPageSize:     atoi("WP_PAGE_SIZE", 100),
		WPRPS:          atoi("WP_RPS", 10),
		WPTimeout:      time.Duration(atoi("WP_TIMEOUT_SECONDS", 20)) * time.Second,
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		MySQLDSN:       env("MYSQL_DSN", ""),
		RefreshEvery:   time.Duration(atoi("CATALOG_REFRESH_SECONDS", 0)) * time.Second,
		ImageWorkers:   atoi("IMAGE_WORKERS", 8),
		PrefetchImages: env("LOADER_PREFETCH_IMAGES", "true") == "true",
	}
	if c.WPPageSize <= 0 || c.WPPageSize > 100 {
		// WordPress caps per_page at 100
		log.Warn().Int("per_page", c.WPPageSize).Msg("WP_PAGE_SIZE out of range, using 100")
		c.WPPageSize = 100
	}
	if c.ImageWorkers <= 0 {
		c.ImageWorkers = 1
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
