package auth

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeStore keeps hashed one-time codes and verify-attempt counters.
type CodeStore interface {
	Save(ctx context.Context, phone string, salt, hash []byte) error
	Get(ctx context.Context, phone string) (salt, hash []byte, err error)
	Delete(ctx context.Context, phone string) error
	IncrAttempts(ctx context.Context, phone string) (int, error)
}

// RedisCodeStore keeps codes in a Redis hash that expires with the code.
type RedisCodeStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisCodeStore creates a code store. ttl bounds both the code and the
// attempt counter window.
func NewRedisCodeStore(client *redis.Client, ttl time.Duration) *RedisCodeStore {
	if client == nil {
		panic("auth: redis client required")
	}
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	return &RedisCodeStore{redis: client, ttl: ttl}
}

func codeKey(phone string) string     { return "otp:" + phone }
func attemptsKey(phone string) string { return "otp:attempts:" + phone }

func (s *RedisCodeStore) Save(ctx context.Context, phone string, salt, hash []byte) error {
	key := codeKey(phone)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "salt", hex.EncodeToString(salt), "code", hex.EncodeToString(hash))
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("auth: save code: %w", err)
	}
	return nil
}

func (s *RedisCodeStore) Get(ctx context.Context, phone string) ([]byte, []byte, error) {
	fields, err := s.redis.HGetAll(ctx, codeKey(phone)).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("auth: get code: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil, ErrOTPNotFound
	}
	salt, err := hex.DecodeString(fields["salt"])
	if err != nil {
		return nil, nil, fmt.Errorf("auth: decode salt: %w", err)
	}
	hash, err := hex.DecodeString(fields["code"])
	if err != nil {
		return nil, nil, fmt.Errorf("auth: decode code: %w", err)
	}
	return salt, hash, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, phone string) error {
	if err := s.redis.Del(ctx, codeKey(phone), attemptsKey(phone)).Err(); err != nil {
		return fmt.Errorf("auth: delete code: %w", err)
	}
	return nil
}

// IncrAttempts counts a verify attempt. The window starts at the first
// attempt and survives code resends; a counter found without a TTL gets one.
func (s *RedisCodeStore) IncrAttempts(ctx context.Context, phone string) (int, error) {
	key := attemptsKey(phone)
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("auth: count attempt: %w", err)
	}
	if ttl.Val() < 0 {
		if err := s.redis.Expire(ctx, key, s.ttl).Err(); err != nil {
			return 0, fmt.Errorf("auth: expire attempts: %w", err)
		}
	}
	return int(incr.Val()), nil
}
