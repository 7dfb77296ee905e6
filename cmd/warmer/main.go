package main

import (
	"context"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_recommender/internal/adapters/googleplaces"
	"hotel_recommender/internal/adapters/observability"
	redisad "hotel_recommender/internal/adapters/redis"
	"hotel_recommender/internal/resolve"
	"hotel_recommender/internal/shared"
)

// defaultStations seeds the cache when no names are given on the command line.
var defaultStations = []string{
	"東京", "新宿", "渋谷", "池袋", "品川", "上野", "秋葉原",
	"横浜", "大宮", "名古屋", "京都", "大阪", "博多", "札幌", "仙台",
}

func main() {
	ctx := context.Background()

	// .env is optional
	_ = godotenv.Load()

	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	names := os.Args[1:]
	if len(names) == 0 {
		names = defaultStations
	}

	log.Info().
		Str("base", cfg.PlacesBase).
		Int("workers", cfg.LookupWorkers).
		Int("stations", len(names)).
		Msg("cache warmer starting")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, "station")
	places, err := googleplaces.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlacesRPS, cache, cfg.StationCacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Places client")
	}

	sem := semaphore.NewWeighted(int64(cfg.LookupWorkers))
	var wg sync.WaitGroup

	for _, name := range names {
		name := name

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(raw string) {
			defer wg.Done()
			defer sem.Release(1)

			normalized, err := resolve.NormalizeStationName(raw)
			if err != nil {
				log.Warn().Str("station", raw).Err(err).Msg("skipping station")
				return
			}
			stations, err := places.Lookup(ctx, raw, normalized)
			if err != nil {
				log.Warn().Str("station", raw).Err(err).Msg("warm failed")
				return
			}
			log.Info().Str("station", raw).Int("matches", len(stations)).Msg("warm ok")
		}(name)
	}

	wg.Wait()
	log.Info().Msg("warm-up completed")
}
