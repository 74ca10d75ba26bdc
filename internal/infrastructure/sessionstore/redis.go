// Package sessionstore persists verification sessions for the lifetime of one
// attempt. Redis backs the deployed service; the in-memory store serves tests
// and single-process development.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
)

const keyPrefix = "kyc:session:"

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, session *domain.VerificationSession) error {
	return s.write(ctx, session)
}

// Update rewrites the session and refreshes the TTL: an attempt that is being
// worked on stays alive.
func (s *RedisStore) Update(ctx context.Context, session *domain.VerificationSession) error {
	return s.write(ctx, session)
}

func (s *RedisStore) write(ctx context.Context, session *domain.VerificationSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+session.ID, payload, s.ttl).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "store session", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.VerificationSession, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "load session", fmt.Errorf("id %s", id))
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "load session", err)
	}

	var session domain.VerificationSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, domain.WrapError(domain.ErrSessionCorrupt, "load session", err)
	}
	return &session, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "delete session", err)
	}
	return nil
}
