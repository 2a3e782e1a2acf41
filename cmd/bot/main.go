package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"newsalpha/internal/alpha"
	"newsalpha/internal/broadcast"
	"newsalpha/internal/client/markets"
	"newsalpha/internal/client/social"
	"newsalpha/internal/config"
	"newsalpha/internal/correlation"
	cronrunner "newsalpha/internal/cron"
	"newsalpha/internal/cycle"
	"newsalpha/internal/db"
	"newsalpha/internal/dedup"
	"newsalpha/internal/embed"
	"newsalpha/internal/handler"
	"newsalpha/internal/ingest"
	"newsalpha/internal/judge"
	"newsalpha/internal/logger"
	"newsalpha/internal/notify"
	gormrepository "newsalpha/internal/repository/gorm"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("NA_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("NA_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	marketsClient := markets.NewClient(
		&http.Client{Timeout: cfg.Catalogue.Timeout},
		cfg.Catalogue.BaseURL,
		cfg.Catalogue.RequestsPerSec,
	)
	socialClient := social.NewClient(
		&http.Client{Timeout: cfg.Social.Timeout},
		cfg.Social.BaseURL,
		os.Getenv(cfg.Social.APIKeyEnv),
		cfg.Social.RequestsPerSec,
	)
	oaClient := openai.NewClient(option.WithAPIKey(os.Getenv(cfg.OpenAI.APIKeyEnv)))

	adjudicator := &judge.OpenAIJudge{
		Client:         oaClient,
		Model:          cfg.OpenAI.JudgeModel,
		Temperature:    cfg.OpenAI.Temperature,
		ReportingFloor: cfg.Correlation.ReportingFloor,
		Logger:         log,
	}
	embedder := &embed.OpenAIEmbedder{
		Client:    oaClient,
		Model:     cfg.OpenAI.EmbeddingModel,
		BatchSize: cfg.OpenAI.EmbedBatchSize,
		Logger:    log,
	}

	catalogSync := &ingest.CatalogSync{
		Store:    store,
		Client:   marketsClient,
		Embedder: embedder,
		Config:   cfg.Catalogue,
		Logger:   log,
	}
	tweetIngest := &ingest.TweetIngest{
		Store:    store,
		Client:   socialClient,
		Dedup:    &dedup.Deduplicator{Judge: adjudicator, Config: cfg.Dedup, Logger: log},
		Accounts: cfg.Social.Accounts,
		Logger:   log,
	}
	corrEngine := &correlation.Engine{
		Store:    store,
		Judge:    adjudicator,
		Embedder: embedder,
		Config:   cfg.Correlation,
		Logger:   log,
	}

	prices := cycle.NewPriceSource(marketsClient)
	prioritizer := &alpha.Prioritizer{Store: store, Prices: prices, Logger: log}

	notifier, err := notify.NewDiscordNotifier(os.Getenv(cfg.Discord.BotTokenEnv), log)
	if err != nil {
		log.Fatal("discord session failed", zap.Error(err))
	}
	scheduler := &broadcast.Scheduler{
		Store:      store,
		Notifier:   notifier,
		Prices:     prices,
		HalfWindow: cfg.Cycle.HalfWindow,
		Logger:     log,
	}

	runner := cycle.NewRunner(
		store, catalogSync, tweetIngest, corrEngine, prioritizer, scheduler,
		cfg.Cycle, cfg.Dedup, log,
	)

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	(&handler.HealthHandler{DB: dbConn.Gorm}).Register(router)
	(&handler.CycleHandler{Store: store, Logger: log}).Register(router)
	(&handler.SubscriptionHandler{Store: store, Logger: log}).Register(router)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(log, ctx)
	if cfg.Cycle.Enabled {
		cronRunner.Every(cfg.Cycle.PollInterval, "news-cycle", runner.RunOnce)
		// First pass immediately; the scheduler only fires after a full interval.
		go runner.RunOnce(ctx)
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", zap.Error(err))
	}
}
