package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/lifeline-backend/internal/data/db"
	"github.com/yungbote/lifeline-backend/internal/data/repos"
	httpserver "github.com/yungbote/lifeline-backend/internal/http"
	httpH "github.com/yungbote/lifeline-backend/internal/http/handlers"
	"github.com/yungbote/lifeline-backend/internal/jobs/ingest"
	"github.com/yungbote/lifeline-backend/internal/observability"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/openai"
	"github.com/yungbote/lifeline-backend/internal/platform/redisx"
	"github.com/yungbote/lifeline-backend/internal/platform/scrape"
	"github.com/yungbote/lifeline-backend/internal/platform/websearch"
	"github.com/yungbote/lifeline-backend/internal/services"
	"github.com/yungbote/lifeline-backend/internal/temporalx"
	"github.com/yungbote/lifeline-backend/internal/temporalx/temporalworker"
	"github.com/yungbote/lifeline-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Observability
	observability.Init(log)
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:      strings.EqualFold(utils.GetEnv("OTEL_ENABLED", "false", log), "true"),
		ServiceName:  utils.GetEnv("OTEL_SERVICE_NAME", "lifeline-backend", log),
		Environment:  utils.GetEnv("APP_ENV", "development", log),
		OTLPEndpoint: utils.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(shutdownCtx)
	}()

	// Postgres
	log.Info("Connecting to Postgres from main...")
	postgresService, err := db.NewPostgresService(log, db.Config{
		Host:     utils.GetEnv("POSTGRES_HOST", "localhost", log),
		Port:     utils.GetEnv("POSTGRES_PORT", "5432", log),
		User:     utils.GetEnv("POSTGRES_USER", "postgres", log),
		Password: utils.GetEnv("POSTGRES_PASSWORD", "postgres", log),
		Name:     utils.GetEnv("POSTGRES_DB", "lifeline", log),
		SSLMode:  utils.GetEnv("POSTGRES_SSLMODE", "disable", log),
	})
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()
	if err := db.Migrate(thePG); err != nil {
		log.Error("Postgres migration failed", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	allRepos := repos.NewAll(thePG, log)

	// Platform clients
	log.Info("Setting up platform clients from main...")
	llmClient, err := openai.NewClient(log, openai.Config{
		APIKey:     utils.GetEnv("OPENAI_API_KEY", "", log),
		BaseURL:    utils.GetEnv("OPENAI_BASE_URL", "", log),
		Model:      utils.GetEnv("OPENAI_MODEL", "", log),
		EmbedModel: utils.GetEnv("OPENAI_EMBED_MODEL", "", log),
	})
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}
	searchClient, err := websearch.NewClient(log, websearch.Config{
		APIKey: utils.GetEnv("BRAVE_SEARCH_API_KEY", "", log),
	})
	if err != nil {
		log.Error("Could not init search client", "error", err)
		os.Exit(1)
	}
	pageFetcher, err := scrape.NewFetcher(log, scrape.Config{})
	if err != nil {
		log.Error("Could not init page fetcher", "error", err)
		os.Exit(1)
	}
	transcriptFetcher, err := scrape.NewTranscriptFetcher(log, scrape.TranscriptConfig{})
	if err != nil {
		log.Error("Could not init transcript fetcher", "error", err)
		os.Exit(1)
	}

	// Redis (optional; gates concurrent inline ingestion per person)
	redisClient, err := redisx.NewClient(ctx, log, redisx.Config{
		Addr:     utils.GetEnv("REDIS_ADDR", "", log),
		Password: utils.GetEnv("REDIS_PASSWORD", "", log),
		DB:       utils.GetEnvAsInt("REDIS_DB", 0, log),
	})
	if err != nil {
		log.Error("Redis init failed", "error", err)
		os.Exit(1)
	}
	lease := redisx.NewIngestLease(log, redisClient, time.Duration(utils.GetEnvAsInt("INGEST_LEASE_TTL_SECONDS", 1800, log))*time.Second)

	ingestDeps := ingest.Deps{
		DB:          thePG,
		Log:         log,
		LLM:         llmClient,
		Search:      searchClient,
		Pages:       pageFetcher,
		Transcripts: transcriptFetcher,
		Repos:       allRepos,
		Lease:       lease,
	}

	// Temporal (optional; without it ingestion runs inline)
	temporalClient, err := temporalx.NewClient(log)
	if err != nil {
		log.Error("Temporal init failed", "error", err)
		os.Exit(1)
	}
	if temporalClient != nil {
		defer temporalClient.Close()
	}

	// Services
	log.Info("Setting up Services from main...")
	personService := services.NewPersonService(thePG, log, temporalClient, ingestDeps)
	chatService := services.NewChatService(thePG, log, llmClient, allRepos)

	// Handlers
	log.Info("Setting up handlers from main...")
	personHandler := httpH.NewPersonHandler(personService)
	timelineHandler := httpH.NewTimelineHandler(personService)
	chatHandler := httpH.NewChatHandler(chatService)
	healthHandler := httpH.NewHealthHandler()

	server := httpserver.NewServer(httpserver.RouterConfig{
		PersonHandler:   personHandler,
		TimelineHandler: timelineHandler,
		ChatHandler:     chatHandler,
		HealthHandler:   healthHandler,
	})

	if m := observability.Current(); m != nil {
		if addr := utils.GetEnv("METRICS_ADDR", "", log); addr != "" {
			m.StartServer(ctx, log, addr)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if temporalClient != nil {
		runner, err := temporalworker.NewRunner(log, temporalClient, ingestDeps)
		if err != nil {
			log.Error("Temporal worker init failed", "error", err)
			os.Exit(1)
		}
		g.Go(func() error {
			return runner.Start(gctx)
		})
	}

	port := utils.GetEnv("PORT", "8080", log)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		return server.Run(":" + port)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error("Shutting down", "error", err)
		os.Exit(1)
	}
}
