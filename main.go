package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/slack-go/slack"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"slack-pr-sla/config"
	"slack-pr-sla/handlers"
	"slack-pr-sla/models"
	"slack-pr-sla/services"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env はローカル開発用なので、なくてもよい
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("config loaded",
		"db_path", cfg.DBPath,
		"port", cfg.Port,
		"sweep_interval", cfg.SweepInterval,
		"redis", cfg.RedisAddr != "",
		"default_timezone", cfg.DefaultTimezone,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&models.ReviewRequest{}, &models.ChannelPolicy{}); err != nil {
		return err
	}
	logger.Info("database opened", "path", cfg.DBPath)

	slackClient := slack.New(cfg.SlackBotToken)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("error closing redis client", "error", err)
			}
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis is not reachable, user names will be looked up on every message", "addr", cfg.RedisAddr, "error", err)
		}
	}

	messenger := services.NewSlackMessenger(slackClient, nil, logger)
	if redisClient != nil {
		names := services.NewUserNameCache(redisClient, cfg.UserCacheTTL, messenger.LookupUserName, logger)
		messenger = services.NewSlackMessenger(slackClient, names, logger)
	}

	requests := services.NewGormRequestStore(db)
	policies := services.NewPolicyResolver(services.NewGormPolicyStore(db), cfg.DefaultTimezone, logger)
	sweeper := services.NewSweeper(requests, policies, logger)
	reviews := services.NewReviewService(requests, messenger, services.NewGitHubClient(cfg.GitHubToken, logger), logger)
	scheduler := services.NewScheduler(sweeper, requests, messenger, cfg.SweepInterval, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Start(ctx)
	}()

	r := gin.New()
	r.Use(gin.Recovery())
	handlers.RegisterRoutes(r, &handlers.Dependencies{
		Reviews:       reviews,
		Policies:      policies,
		Sweeper:       sweeper,
		Slack:         messenger,
		SigningSecret: cfg.SlackSigningSecret,
		WebhookSecret: cfg.GitHubWebhookSecret,
		Logger:        logger,
	})
	if cfg.SlackSigningSecret == "" {
		logger.Warn("SLACK_SIGNING_SECRET is not set, slack request signatures are not verified")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	// 実行中のチェックが終わるのを待つ
	wg.Wait()
	logger.Info("shutdown complete")
	return nil
}
