package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	PlacesBase string
	PlacesKey  string
	PlacesRPS  int

	RakutenBase      string
	RakutenAppID     string
	RakutenAffiliate string
	RakutenRPS       int

	LookupWorkers   int
	StationCacheTTL time.Duration
	HotelCacheTTL   time.Duration
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
		AppEnv:           env("APP_ENV", "prod"),
		HTTPAddr:         env("HTTP_ADDR", ":8080"),
		MetricsAddr:      env("METRICS_ADDR", ":9100"),
		RedisAddr:        env("REDIS_ADDR", "localhost:6379"),
		RedisDB:          atoi("REDIS_DB", 0),
		RedisPass:        env("REDIS_PASSWORD", ""),
		PlacesBase:       env("GOOGLE_PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		PlacesKey:        env("GOOGLE_PLACES_API_KEY", ""),
		PlacesRPS:        atoi("GOOGLE_PLACES_RATE_LIMIT_PER_SECOND", 10),
		RakutenBase:      env("RAKUTEN_BASE_URL", "https://app.rakuten.co.jp/services/api"),
		RakutenAppID:     env("RAKUTEN_APPLICATION_ID", ""),
		RakutenAffiliate: env("RAKUTEN_AFFILIATE_ID", ""),
		RakutenRPS:       atoi("RAKUTEN_RATE_LIMIT_PER_SECOND", 5),
		LookupWorkers:    atoi("LOOKUP_WORKERS", 8),
		StationCacheTTL:  time.Duration(atoi("STATION_CACHE_TTL", 86400)) * time.Second,
		HotelCacheTTL:    time.Duration(atoi("HOTEL_CACHE_TTL", 900)) * time.Second,
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("GOOGLE_PLACES_API_KEY is empty")
	}
	if c.RakutenAppID == "" {
		log.Warn().Msg("RAKUTEN_APPLICATION_ID is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
