// Package redisstore keeps login codes in Redis so several API replicas
// share one view of pending codes.
package redisstore

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-kanban/internal/domain"
	"github.com/redis/go-redis/v9"
)

// expiryGrace keeps a key alive past ExpiresAt so a late attempt reads the
// record and is told the code expired instead of that it never existed.
const expiryGrace = 5 * time.Minute

const maxTakeRetries = 4

type record struct {
	Code      string `json:"code"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

type CodeStore struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

func NewCodeStore(rdb *redis.Client, prefix string) *CodeStore {
	if prefix == "" {
		prefix = "logincode"
	}
	return &CodeStore{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *CodeStore) key(email string) string {
	return s.prefix + ":" + email
}

func (s *CodeStore) Put(ctx context.Context, v *domain.VerificationCode) error {
	data, err := json.Marshal(record{
		Code:      v.Code,
		CreatedAt: v.CreatedAt.UnixMilli(),
		ExpiresAt: v.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode login code: %w", err)
	}
	ttl := v.ExpiresAt.Sub(s.now()) + expiryGrace
	if ttl <= 0 {
		ttl = expiryGrace
	}
	if err := s.rdb.Set(ctx, s.key(v.Email), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set login code: %w", err)
	}
	return nil
}

func (s *CodeStore) Get(ctx context.Context, email string) (*domain.VerificationCode, error) {
	data, err := s.rdb.Get(ctx, s.key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("login code: %w", domain.ErrCodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get login code: %w", err)
	}
	return decode(email, data)
}

func (s *CodeStore) Delete(ctx context.Context, email string) error {
	if err := s.rdb.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("redis delete login code: %w", err)
	}
	return nil
}

// Take deletes the record only if it still holds code. The key is watched so
// a concurrent Put or Take between the read and the delete aborts the
// transaction, which is then retried against the new value.
func (s *CodeStore) Take(ctx context.Context, email, code string) error {
	key := s.key(email)
	for i := 0; i < maxTakeRetries; i++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}
			var r record
			if err := json.Unmarshal(data, &r); err != nil {
				return err
			}
			if subtle.ConstantTimeCompare([]byte(r.Code), []byte(code)) != 1 {
				return domain.ErrCodeNotFound
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}, key)

		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, redis.Nil), errors.Is(err, domain.ErrCodeNotFound):
			return fmt.Errorf("login code already used or replaced: %w", domain.ErrCodeNotFound)
		default:
			return fmt.Errorf("redis take login code: %w", err)
		}
	}
	return fmt.Errorf("login code contended: %w", domain.ErrCodeNotFound)
}

func decode(email string, data []byte) (*domain.VerificationCode, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode login code: %w", err)
	}
	return &domain.VerificationCode{
		Email:     email,
		Code:      r.Code,
		CreatedAt: time.UnixMilli(r.CreatedAt),
		ExpiresAt: time.UnixMilli(r.ExpiresAt),
	}, nil
}
