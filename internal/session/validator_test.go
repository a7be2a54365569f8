package session

import (
	"context"
	"testing"
	"time"

	"phenoqc/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestSessions(t *testing.T) (*miniredis.Miniredis, *RedisValidator, *Seeder) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	kv := store.NewRedisKV(redisClient)
	return mr, NewRedisValidator(kv, zap.NewNop()), NewSeeder(kv, time.Hour)
}

func TestIsValid_MintedToken(t *testing.T) {
	_, validator, seeder := setupTestSessions(t)
	ctx := context.Background()

	token, err := seeder.Mint(ctx, 7)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.True(t, validator.IsValid(ctx, token, 7))
}

func TestIsValid_WrongUser(t *testing.T) {
	_, validator, seeder := setupTestSessions(t)
	ctx := context.Background()

	token, err := seeder.Mint(ctx, 7)
	require.NoError(t, err)

	assert.False(t, validator.IsValid(ctx, token, 9))
}

func TestIsValid_UnknownToken(t *testing.T) {
	_, validator, _ := setupTestSessions(t)

	assert.False(t, validator.IsValid(context.Background(), "no-such-token", 7))
}

func TestIsValid_ExpiredToken(t *testing.T) {
	mr, validator, seeder := setupTestSessions(t)
	ctx := context.Background()

	token, err := seeder.Mint(ctx, 7)
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	assert.False(t, validator.IsValid(ctx, token, 7))
}

func TestIsValid_EmptyToken(t *testing.T) {
	_, validator, _ := setupTestSessions(t)

	assert.False(t, validator.IsValid(context.Background(), "", 7))
	assert.False(t, validator.IsValid(context.Background(), "token", -1))
}
