// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"google.golang.org/grpc/health"

	"github.com/AzlanEh/EducationPlus-sub000/internal/config"
	"github.com/AzlanEh/EducationPlus-sub000/internal/events"
	"github.com/AzlanEh/EducationPlus-sub000/internal/migration"
	"github.com/AzlanEh/EducationPlus-sub000/internal/observability"
	"github.com/AzlanEh/EducationPlus-sub000/internal/repository"
	"github.com/AzlanEh/EducationPlus-sub000/internal/server"
	"github.com/AzlanEh/EducationPlus-sub000/internal/service"
	awspkg "github.com/AzlanEh/EducationPlus-sub000/pkg/aws"
	"github.com/AzlanEh/EducationPlus-sub000/pkg/bunny"
)

const version = "1.0.0"

func main() {
	// Missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogger(cfg.Server.LogLevel, cfg.IsDevelopment())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	slog.Info("starting learning platform service",
		"environment", cfg.Server.Environment,
		"httpPort", cfg.Server.HTTPPort,
		"grpcPort", cfg.Server.GRPCPort,
	)

	if err := run(cfg); err != nil {
		slog.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server exited")
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	mongoClient, err := repository.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			slog.Warn("failed to disconnect from MongoDB", "error", err)
		}
	}()
	db := mongoClient.Database(cfg.Mongo.Database)

	if err := migration.NewMongoMigrator(db).CreateIndexes(ctx); err != nil {
		return err
	}

	checks := map[string]server.HealthCheckFunc{
		"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) },
	}

	var cache repository.Cache = repository.NopCache{}
	if cfg.Redis.Addr != "" {
		redisCache, err := repository.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisCache.Close()
		cache = redisCache
		checks["redis"] = redisCache.Ping
		slog.Info("redis cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	} else {
		slog.Info("redis cache disabled, reads go straight to MongoDB")
	}

	sess, err := awspkg.NewSession(cfg.AWS.Region, cfg.AWS.Endpoint)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AWS.KinesisStreamName != "" {
		publisher = events.NewStreamPublisher(awspkg.NewKinesisClient(sess, cfg.AWS.KinesisStreamName))
		slog.Info("domain events enabled", "stream", cfg.AWS.KinesisStreamName)
	}

	var thumbnails service.ThumbnailStore
	if cfg.AWS.S3BucketName != "" {
		thumbnails = awspkg.NewS3Client(sess, cfg.AWS.S3BucketName, cfg.AWS.S3PublicBaseURL)
	}

	bunnyClient := bunny.NewClient(bunny.Options{
		BaseURL:           cfg.Bunny.APIBaseURL,
		APIKey:            cfg.Bunny.APIKey,
		LibraryID:         cfg.Bunny.LibraryID,
		CDNHostname:       cfg.Bunny.CDNHostname,
		RequestsPerSecond: cfg.Bunny.RequestsPerSecond,
		Timeout:           cfg.Bunny.HTTPTimeout,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	streaks := service.NewStreakService(repository.NewStreakRepository(db), publisher, cfg.StreakLocation(), time.Now)
	videos := service.NewVideoService(service.VideoDeps{
		Store:     repository.NewVideoRepository(db),
		Progress:  repository.NewVideoProgressRepository(db),
		Provider:  bunnyClient,
		Streaks:   streaks,
		Events:    publisher,
		Metrics:   metrics,
		UploadTTL: cfg.Bunny.UploadTTL,
	})
	live := service.NewLiveStreamService(service.LiveStreamDeps{
		Store:      repository.NewLiveStreamRepository(db),
		Videos:     repository.NewVideoRepository(db),
		Provider:   bunnyClient,
		Cache:      cache,
		CacheTTL:   cfg.Redis.TTL,
		Events:     publisher,
		Metrics:    metrics,
		Thumbnails: thumbnails,
	})
	dpps := service.NewDPPService(service.DPPDeps{
		DPPs:        repository.NewDPPRepository(db),
		Attempts:    repository.NewAttemptRepository(db),
		Streaks:     streaks,
		Cache:       cache,
		CacheTTL:    cfg.Redis.TTL,
		Events:      publisher,
		Metrics:     metrics,
		AllowRetake: cfg.Learning.AllowRetake,
	})
	users := service.NewUserService(repository.NewUserRepository(db), repository.NewSessionRepository(db), time.Now)

	router := server.NewRouter(server.Handlers{
		Live:    server.NewLiveStreamHandler(live),
		Videos:  server.NewVideoHandler(videos),
		DPPs:    server.NewDPPHandler(dpps),
		Users:   server.NewUserHandler(users, streaks),
		Webhook: server.NewWebhookHandler(videos, bunny.NewWebhookVerifier(cfg.Bunny.WebhookSecret), metrics),
	}, server.RouterOptions{
		Auth:           users,
		Metrics:        metrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Health:         server.HealthCheck(version, checks),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	hs := health.NewServer()
	grpcServer, _, err := server.StartGRPCServer(":"+cfg.Server.GRPCPort, hs)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err = <-serveErr:
		slog.Error("HTTP server failed", "error", err)
	}

	hs.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
		slog.Error("server forced to shutdown", "error", shutdownErr)
	}
	grpcServer.GracefulStop()

	return err
}

func setupLogger(level string, development bool) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if development {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)))
		return
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, opts)))
}
