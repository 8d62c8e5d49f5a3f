package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const userNameKeyPrefix = "slack:user_name:"

// UserNameLookup はSlackのユーザーIDから表示名を取得する
type UserNameLookup func(ctx context.Context, userID string) (string, error)

// UserNameCache はSlackユーザーの表示名をRedisにキャッシュする
// client が nil の場合は毎回 lookup を呼ぶ
type UserNameCache struct {
	client *redis.Client
	ttl    time.Duration
	lookup UserNameLookup
	logger *slog.Logger
}

func NewUserNameCache(client *redis.Client, ttl time.Duration, lookup UserNameLookup, logger *slog.Logger) *UserNameCache {
	return &UserNameCache{
		client: client,
		ttl:    ttl,
		lookup: lookup,
		logger: logger,
	}
}

// Name は表示名を返す。取得できなければ空文字を返す
func (c *UserNameCache) Name(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}

	key := userNameKeyPrefix + userID
	if c.client != nil {
		name, err := c.client.Get(ctx, key).Result()
		if err == nil {
			return name
		}
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("user name cache read failed", "user", userID, "error", err)
		}
	}

	name, err := c.lookup(ctx, userID)
	if err != nil {
		c.logger.Warn("failed to look up slack user", "user", userID, "error", err)
		return ""
	}

	if c.client != nil && name != "" {
		if err := c.client.Set(ctx, key, name, c.ttl).Err(); err != nil {
			c.logger.Warn("user name cache write failed", "user", userID, "error", err)
		}
	}
	return name
}

// Names は複数ユーザーの表示名をまとめて解決する。取得できなかったユーザーは含まない
func (c *UserNameCache) Names(ctx context.Context, userIDs ...string) map[string]string {
	names := make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		if _, ok := names[id]; ok {
			continue
		}
		if name := c.Name(ctx, id); name != "" {
			names[id] = name
		}
	}
	return names
}
