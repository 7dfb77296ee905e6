package main

import (
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"hotel_recommender/internal/adapters/googleplaces"
	server "hotel_recommender/internal/adapters/http_server"
	"hotel_recommender/internal/adapters/observability"
	"hotel_recommender/internal/adapters/rakuten"
	redisad "hotel_recommender/internal/adapters/redis"
	"hotel_recommender/internal/app"
	"hotel_recommender/internal/recommend"
	"hotel_recommender/internal/shared"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// provider caches share one redis, separated by key prefix
	stationCache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, "station")
	hotelCache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, "hotel")

	stations, err := googleplaces.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlacesRPS, stationCache, cfg.StationCacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("google places client init failed")
	}
	hotels, err := rakuten.New(cfg.RakutenBase, cfg.RakutenAppID, cfg.RakutenAffiliate, cfg.RakutenRPS, hotelCache, cfg.HotelCacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("rakuten client init failed")
	}

	svc := app.NewRecommendationService(stations, hotels, recommend.NewEngine(), cfg.LookupWorkers, nil)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Svc:                 svc,
		PlacesConfigured:    cfg.PlacesKey != "",
		RakutenConfigured:   cfg.RakutenAppID != "",
		AffiliateConfigured: cfg.RakutenAffiliate != "",
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
