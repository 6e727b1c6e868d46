package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/screenlens/screenlens/internal/api"
	"github.com/screenlens/screenlens/internal/cache"
	"github.com/screenlens/screenlens/internal/config"
	"github.com/screenlens/screenlens/internal/database"
	"github.com/screenlens/screenlens/internal/health"
	"github.com/screenlens/screenlens/internal/llm"
	"github.com/screenlens/screenlens/internal/logger"
	"github.com/screenlens/screenlens/internal/resolver"
	"github.com/screenlens/screenlens/internal/scheduler"
	"github.com/screenlens/screenlens/internal/scheduler/tasks"
	"github.com/screenlens/screenlens/internal/streamavail"
	"github.com/screenlens/screenlens/internal/tmdb"
	"github.com/screenlens/screenlens/internal/webpage"
	"github.com/screenlens/screenlens/internal/youtube"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting screenlens")

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	log.Info().Msg("running database migrations")
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Upstream clients
	catalogClient := tmdb.NewClient(cfg.TMDB, log.Logger)
	videoClient := youtube.NewClient(cfg.YouTube, log.Logger)
	availClient := streamavail.NewClient(cfg.StreamAvail, log.Logger)
	aiClient := llm.NewClient(cfg.LLM, log.Logger)
	pages := webpage.NewExtractor(log.Logger)

	store := cache.NewStore(db.Conn(), cfg.Cache.Enabled, log.Logger)

	pipeline := resolver.New(cfg, store, resolver.Providers{
		Catalog:      catalogClient,
		Video:        videoClient,
		Availability: availClient,
		AI:           aiClient,
		Pages:        pages,
	}, log.Logger)

	healthSvc := health.NewService(log.Logger)
	healthSvc.Register(catalogClient)
	healthSvc.Register(videoClient)
	healthSvc.Register(availClient)
	healthSvc.Register(aiClient)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if err := tasks.RegisterProviderHealthTask(sched, healthSvc); err != nil {
		log.Fatal().Err(err).Msg("failed to register health task")
	}
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	server := api.NewServer(pipeline, store, healthSvc, sched, cfg, log.Logger)

	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil {
			log.Info().Msg("server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}

	log.Info().Msg("server stopped")
}
