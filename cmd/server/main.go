package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kseniabot/astro-backend/internal/config"
	"github.com/kseniabot/astro-backend/internal/database"
	"github.com/kseniabot/astro-backend/internal/handlers"
	"github.com/kseniabot/astro-backend/internal/middleware"
	"github.com/kseniabot/astro-backend/internal/routes"
	"github.com/kseniabot/astro-backend/internal/services"
	"github.com/kseniabot/astro-backend/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found")
	}
	cfg := config.Load()
	setupLogger(cfg)

	if cfg.N8NToken == "" {
		log.Warn().Msg("N8N_TOKEN not set; /n8n routes will answer 500 until it is configured")
	}
	if cfg.AstrologyAPIUserID == "" || cfg.AstrologyAPIKey == "" {
		log.Warn().Msg("astrology API credentials not set; report endpoints will not work")
	}
	if cfg.YandexGeocoderAPIKey == "" {
		log.Warn().Msg("YANDEX_GEOCODER_API_KEY not set; geocoding will not work")
	}

	mongoDB, err := database.ConnectMongo(cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := mongoDB.Close(); err != nil {
			log.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}()

	users := store.NewUsers(mongoDB.DB)
	if err := users.EnsureIndexes(context.Background()); err != nil {
		log.Warn().Err(err).Msg("failed to ensure user indexes")
	}

	geocoder, err := services.NewGeocoder(cfg.YandexGeocoderAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init geocoder")
	}
	astrology := services.NewAstrology(cfg.AstrologyAPIUserID, cfg.AstrologyAPIKey, cfg.AstrologyAPILanguage)
	entitlements := services.NewEntitlements(users)
	spreads := services.NewSpreads(users)
	notifier := services.NewNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)

	h := handlers.New(cfg, users, entitlements, spreads, geocoder, astrology)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer(notifier))
	r.Use(middleware.RequestLogger)
	r.Use(middleware.SecurityHeaders)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.TokenHeader},
			MaxAge:         300,
		}))
	}
	if cfg.RedisURI != "" {
		redisClient, err := database.ConnectRedis(cfg.RedisURI)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer redisClient.Close()
		r.Use(middleware.RateLimit(redisClient))
	} else {
		log.Info().Msg("REDIS_URI not set; rate limiting disabled")
	}

	routes.Setup(r, h, cfg.N8NToken)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	notifyCtx, notifyCancel := context.WithTimeout(context.Background(), 7*time.Second)
	notifier.Notify(notifyCtx, "astro-backend started")
	notifyCancel()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("astro backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	notifyCtx, notifyCancel = context.WithTimeout(context.Background(), 7*time.Second)
	notifier.Notify(notifyCtx, "astro-backend stopped")
	notifyCancel()
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
