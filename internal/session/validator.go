package session

import (
	"context"
	"strconv"
	"time"

	"phenoqc/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const keyPrefix = "qc:session:"

// Validator checks whether a session token belongs to a user. Session
// issuance lives in the auth service; this side only validates.
type Validator interface {
	IsValid(ctx context.Context, token string, userID int) bool
}

// RedisValidator validates tokens against the shared Redis session store:
// key qc:session:<token> holds the owning user id.
type RedisValidator struct {
	kv     store.KV
	logger *zap.Logger
}

func NewRedisValidator(kv store.KV, logger *zap.Logger) *RedisValidator {
	return &RedisValidator{kv: kv, logger: logger}
}

var _ Validator = (*RedisValidator)(nil)

func (v *RedisValidator) IsValid(ctx context.Context, token string, userID int) bool {
	if token == "" || userID < 0 {
		return false
	}
	val, err := v.kv.Get(ctx, keyPrefix+token)
	if err != nil {
		if err != store.ErrMiss {
			v.logger.Warn("session store lookup failed", zap.Error(err))
		}
		return false
	}
	uid, err := strconv.Atoi(val)
	if err != nil {
		return false
	}
	return uid == userID
}

// Seeder mints sessions into the store. Used by the dev bootstrap in main and
// by tests; production tokens are written by the auth service.
type Seeder struct {
	kv  store.KV
	ttl time.Duration
}

func NewSeeder(kv store.KV, ttl time.Duration) *Seeder {
	return &Seeder{kv: kv, ttl: ttl}
}

// Mint stores a fresh token for userID and returns it.
func (s *Seeder) Mint(ctx context.Context, userID int) (string, error) {
	token := uuid.NewString()
	if err := s.kv.Set(ctx, keyPrefix+token, strconv.Itoa(userID), s.ttl); err != nil {
		return "", err
	}
	return token, nil
}
