package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/RishiKendai/assignment-portal/internal/api"
	"github.com/RishiKendai/assignment-portal/internal/auth"
	"github.com/RishiKendai/assignment-portal/internal/config"
	"github.com/RishiKendai/assignment-portal/internal/configs/env"
	"github.com/RishiKendai/assignment-portal/internal/coursework"
	"github.com/RishiKendai/assignment-portal/internal/extract"
	"github.com/RishiKendai/assignment-portal/internal/infra/mongo"
	redisInfra "github.com/RishiKendai/assignment-portal/internal/infra/redis"
	"github.com/RishiKendai/assignment-portal/internal/logger"
	"github.com/RishiKendai/assignment-portal/internal/metrics"
	"github.com/RishiKendai/assignment-portal/internal/plagiarism"
	"github.com/RishiKendai/assignment-portal/internal/repository"
	"github.com/RishiKendai/assignment-portal/internal/scoring"
	"github.com/RishiKendai/assignment-portal/internal/storage"
	"github.com/RishiKendai/assignment-portal/internal/stream"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	retryAttempts  = 3
	retryBaseDelay = 500 * time.Millisecond
)

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env file, continuing with system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("timezone", cfg.Timezone).
		Str("storage", cfg.StorageProvider).
		Str("metric", cfg.SimilarityMetric).
		Msg("Starting assignment portal")

	metrics.InitPrometheus()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.MetricsHandler())
	metricsServer := api.StartServer("metrics", metricsMux, cfg.MetricsPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect MongoDB
	mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create MongoDB client")
	}
	defer mongoClient.Close(context.Background())

	// Connect Redis
	redisClient, err := redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis client")
	}
	defer redisClient.Close()

	// Repositories
	mongoRepo := repository.NewMongoRepository(mongoClient)
	assignmentsRepo := repository.NewAssignmentsRepository(mongoRepo)
	submissionsRepo := repository.NewSubmissionsRepository(mongoRepo)
	usersRepo := repository.NewUsersRepository(mongoRepo)

	for name, ensure := range map[string]func(context.Context) error{
		"assignments": assignmentsRepo.EnsureIndexes,
		"submissions": submissionsRepo.EnsureIndexes,
		"users":       usersRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Str("collection", name).Msg("Failed to create indexes")
		}
	}

	// Document storage
	files, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize document storage")
	}
	resolver := storage.NewResolver(files, cfg.FetchTimeout)

	// Text extraction, with OCR when configured
	var ocr extract.OCR
	if cfg.OCRBaseURL != "" {
		ocr = extract.NewOCRClient(cfg.OCRBaseURL, cfg.OCRAPIKey, cfg.FetchTimeout)
	} else {
		log.Warn().Msg("OCR_BASE_URL not set, scanned documents will score as empty")
	}
	extractor := extract.New(ocr, cfg.OCRMinChars)

	// Originality scorer
	metric, err := plagiarism.NewMetric(cfg.SimilarityMetric)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid similarity metric")
	}
	workerPool := plagiarism.NewWorkerPool(ctx, cfg.ScoringWorkers)
	defer workerPool.Close()

	scorer := plagiarism.NewScorer(resolver, extractor, workerPool, plagiarism.Options{
		Metric:             metric,
		MinTextLength:      cfg.MinTextLength,
		EarlyExitThreshold: cfg.EarlyExitThreshold,
		FlagThreshold:      cfg.FlagThreshold,
		FetchTimeout:       cfg.FetchTimeout,
	})
	statusStore := plagiarism.NewStatusStore(redisClient)
	scoringSvc := scoring.NewService(submissionsRepo, resolver, scorer, statusStore, cfg.FetchTimeout)

	// Redis stream
	producer := stream.NewProducer(redisClient, cfg.RedisStreamKey)
	retryHandler := stream.NewRetryHandler(redisClient, cfg.RedisDeadLetterKey, retryAttempts, retryBaseDelay)

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	consumerName := fmt.Sprintf("consumer-%s-%d-%s", hostname, os.Getpid(), uuid.New().String()[:8])
	consumer := stream.NewConsumer(
		redisClient,
		cfg.RedisStreamKey,
		cfg.RedisConsumerGroup,
		consumerName,
		scoringSvc,
		retryHandler,
		stream.ConsumerOptions{
			JobTimeout: cfg.ScoringTimeout,
			Retention:  cfg.StreamRetentionDuration,
		},
	)
	log.Info().Str("consumer_name", consumerName).Msg("Redis stream consumer initialized")

	// Services and HTTP
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiry)
	authSvc := auth.NewService(usersRepo, tokens, cfg.TeacherSignupCode)
	courseworkSvc := coursework.NewService(assignmentsRepo, submissionsRepo, usersRepo, files, producer, statusStore, cfg.Location)

	handler := api.NewHandler(authSvc, courseworkSvc, cfg.MaxUploadBytes)
	router := api.SetupRoutes(cfg, handler, tokens)

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Redis consumer error")
		}
	}()
	log.Info().Msg("Redis consumer started")

	srv := api.StartServer("api", router, cfg.ServerPort)

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down gracefully...")

	if err := api.ShutdownServer(srv, 30*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down Gin server")
	}

	// stop consuming; an in-flight job stays pending and is reclaimed on restart
	cancel()
	select {
	case <-consumerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Timed out waiting for the stream consumer to stop")
	}

	if err := api.ShutdownServer(metricsServer, 5*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down metrics server")
	}

	log.Info().Msg("Shutdown complete")
}
