package otp

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/accounts"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otp:"

// consumeScript deletes the hash only when both the code matches and the
// stored expiry is still ahead of the caller's clock.
var consumeScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'code', 'exp')
if v[1] and v[1] == ARGV[1] and tonumber(v[2]) > tonumber(ARGV[2]) then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

// RedisStore keeps codes in Redis, one hash per email, with a key TTL as a
// backstop. The account record is still the source of identity.
type RedisStore struct {
	rdb      redis.UniversalClient
	accounts accounts.Repository
}

func NewRedisStore(rdb redis.UniversalClient, repo accounts.Repository) *RedisStore {
	return &RedisStore{rdb: rdb, accounts: repo}
}

func redisKey(email string) string { return keyPrefix + email }

func (s *RedisStore) Save(ctx context.Context, account *models.Account, code Code) error {
	key := redisKey(account.Email)

	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, "code", code.Value, "exp", strconv.FormatInt(code.ExpiresAt.UnixMilli(), 10))
		p.PExpireAt(ctx, key, code.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, email, code string, now time.Time) (*models.Account, error) {
	if err := s.consume(ctx, email, code, now); err != nil {
		return nil, err
	}
	return s.accounts.GetByEmail(ctx, email)
}

// ConsumeAndReset burns the code first; the hash update can only follow a
// successful consume.
func (s *RedisStore) ConsumeAndReset(ctx context.Context, email, code string, now time.Time, passwordHash string) (*models.Account, error) {
	if err := s.consume(ctx, email, code, now); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.UpdatePasswordHash(ctx, account.ID, passwordHash); err != nil {
		return nil, err
	}
	account.PasswordHash = passwordHash
	return account, nil
}

func (s *RedisStore) consume(ctx context.Context, email, code string, now time.Time) error {
	if code == "" {
		return common.ErrNotFound
	}

	n, err := consumeScript.Run(ctx, s.rdb, []string{redisKey(email)}, code, now.UnixMilli()).Int()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if n != 1 {
		return common.ErrNotFound
	}
	return nil
}
