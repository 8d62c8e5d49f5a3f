package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config は環境変数から読み込んだアプリケーション設定
type Config struct {
	SlackBotToken       string
	SlackSigningSecret  string
	DBPath              string
	Port                string
	SweepInterval       time.Duration
	RedisAddr           string
	UserCacheTTL        time.Duration
	GitHubToken         string
	GitHubWebhookSecret string
	DefaultTimezone     string
	LogLevel            slog.Level
}

// Load は環境変数を読み込んで検証する
// SLACK_BOT_TOKEN 以外は省略可能で、省略時はデフォルト値を使う
func Load() (*Config, error) {
	token := os.Getenv("SLACK_BOT_TOKEN")
	if token == "" {
		return nil, errors.New("SLACK_BOT_TOKEN is required")
	}

	sweepInterval, err := durationEnv("SWEEP_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}
	if sweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive: %s", sweepInterval)
	}

	userCacheTTL, err := durationEnv("USER_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	timezone := os.Getenv("DEFAULT_TIMEZONE")
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("DEFAULT_TIMEZONE has invalid location %q: %w", timezone, err)
		}
	}

	var level slog.Level
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := level.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			return nil, fmt.Errorf("LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	return &Config{
		SlackBotToken:       token,
		SlackSigningSecret:  os.Getenv("SLACK_SIGNING_SECRET"),
		DBPath:              stringEnv("DB_PATH", "review_requests.db"),
		Port:                stringEnv("PORT", "8080"),
		SweepInterval:       sweepInterval,
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		UserCacheTTL:        userCacheTTL,
		GitHubToken:         os.Getenv("GITHUB_TOKEN"),
		GitHubWebhookSecret: os.Getenv("GITHUB_WEBHOOK_SECRET"),
		DefaultTimezone:     timezone,
		LogLevel:            level,
	}, nil
}

func stringEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	return parsed, nil
}
