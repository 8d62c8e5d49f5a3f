package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slack-pr-sla/testutil"
)

func countingLookup(calls *int, names map[string]string) UserNameLookup {
	return func(_ context.Context, userID string) (string, error) {
		*calls++
		name, ok := names[userID]
		if !ok {
			return "", errors.New("user_not_found")
		}
		return name, nil
	}
}

func TestUserNameCache_WithoutRedis(t *testing.T) {
	ctx := context.Background()
	calls := 0
	cache := NewUserNameCache(nil, time.Hour, countingLookup(&calls, map[string]string{"U1": "Alice"}), testLogger())

	assert.Equal(t, "Alice", cache.Name(ctx, "U1"))
	assert.Equal(t, "Alice", cache.Name(ctx, "U1"))
	// キャッシュがないので毎回問い合わせる
	assert.Equal(t, 2, calls)

	assert.Equal(t, "", cache.Name(ctx, "U-unknown"))
	assert.Equal(t, "", cache.Name(ctx, ""))
	assert.Equal(t, 3, calls)
}

func TestUserNameCache_Names(t *testing.T) {
	calls := 0
	cache := NewUserNameCache(nil, time.Hour, countingLookup(&calls, map[string]string{
		"U1": "Alice",
		"U2": "Bob",
	}), testLogger())

	names := cache.Names(context.Background(), "U1", "U2", "U1", "U-unknown")
	assert.Equal(t, map[string]string{"U1": "Alice", "U2": "Bob"}, names)
	assert.Equal(t, 3, calls)
}

func TestUserNameCache_Redis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	calls := 0
	cache := NewUserNameCache(client, time.Hour, countingLookup(&calls, map[string]string{"U1": "Alice"}), testLogger())

	assert.Equal(t, "Alice", cache.Name(ctx, "U1"))
	assert.Equal(t, "Alice", cache.Name(ctx, "U1"))
	assert.Equal(t, 1, calls)

	stored, err := client.Get(ctx, "slack:user_name:U1").Result()
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored)

	ttl, err := client.TTL(ctx, "slack:user_name:U1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	// 取得できなかったユーザーはキャッシュしない
	assert.Equal(t, "", cache.Name(ctx, "U-unknown"))
	assert.Equal(t, int64(0), client.Exists(ctx, "slack:user_name:U-unknown").Val())
}
