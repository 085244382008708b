// Package redis implements the session store over a Redis instance.
//
// The SQLite store remains the source of truth for accounts; Redis is an
// optional backend for session tokens when the gateway runs with more than
// one replica.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/louisbranch/accountgate/internal/services/gateway/storage"
)

const (
	sessionKeyPrefix        = "gateway:session:"
	accountSessionKeyPrefix = "gateway:account-sessions:"
)

// SessionStore persists session tokens in Redis. Tokens never expire, so
// records carry no TTL and live until the account destroys them.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore wraps an existing Redis client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func accountSessionsKey(accountID string) string {
	return accountSessionKeyPrefix + accountID
}

// PutSession stores the token record and indexes it under its account so
// DeleteAccountSessions can find every token later.
func (s *SessionStore) PutSession(ctx context.Context, sess storage.Session) error {
	if sess.Token == "" {
		return fmt.Errorf("session token is required")
	}
	if sess.AccountID == "" {
		return fmt.Errorf("session account id is required")
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, sessionKey(sess.Token),
		"account_id", sess.AccountID,
		"created_at", strconv.FormatInt(sess.CreatedAt.UTC().UnixMilli(), 10),
	)
	pipe.SAdd(ctx, accountSessionsKey(sess.AccountID), sess.Token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// GetSession resolves a token back to its session record.
func (s *SessionStore) GetSession(ctx context.Context, token string) (storage.Session, error) {
	values, err := s.client.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return storage.Session{}, fmt.Errorf("get session: %w", err)
	}
	accountID := values["account_id"]
	if accountID == "" {
		return storage.Session{}, storage.ErrNotFound
	}
	createdAt, err := strconv.ParseInt(values["created_at"], 10, 64)
	if err != nil {
		return storage.Session{}, fmt.Errorf("parse session created at: %w", err)
	}
	return storage.Session{
		Token:     token,
		AccountID: accountID,
		CreatedAt: time.UnixMilli(createdAt).UTC(),
	}, nil
}

// DeleteAccountSessions removes every token the account holds along with
// its index set.
func (s *SessionStore) DeleteAccountSessions(ctx context.Context, accountID string) error {
	tokens, err := s.client.SMembers(ctx, accountSessionsKey(accountID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("list account sessions: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, token := range tokens {
		pipe.Del(ctx, sessionKey(token))
	}
	pipe.Del(ctx, accountSessionsKey(accountID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete account sessions: %w", err)
	}
	return nil
}

var _ storage.SessionStore = (*SessionStore)(nil)
