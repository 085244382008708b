// Package session issues and resolves API session tokens.
//
// Tokens are opaque 64-character strings handed to mobile clients on login
// and signup. They never expire; logout destroys every token an account
// holds.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/accountgate/internal/platform/errors"
	"github.com/louisbranch/accountgate/internal/services/gateway/account"
	"github.com/louisbranch/accountgate/internal/services/gateway/storage"
)

// tokenBytes yields a 64-character token once base32 encoded without padding.
const tokenBytes = 40

// Service manages session tokens for accounts.
type Service struct {
	accounts storage.AccountStore
	sessions storage.SessionStore
	clock    func() time.Time
	tokenFn  func() (string, error)
}

// NewService creates a session service with default dependencies.
func NewService(accounts storage.AccountStore, sessions storage.SessionStore) *Service {
	return &Service{
		accounts: accounts,
		sessions: sessions,
		clock:    time.Now,
		tokenFn:  NewToken,
	}
}

// NewToken returns a fresh random session token.
func NewToken() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}

// Issue creates and persists a new session token for the account.
func (s *Service) Issue(ctx context.Context, accountID string) (storage.Session, error) {
	if _, err := s.accounts.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Session{}, apperrors.New(apperrors.CodeIdentityNotFound, "account not found")
		}
		return storage.Session{}, fmt.Errorf("load account: %w", err)
	}

	token, err := s.tokenFn()
	if err != nil {
		return storage.Session{}, err
	}

	sess := storage.Session{
		Token:     token,
		AccountID: accountID,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.sessions.PutSession(ctx, sess); err != nil {
		return storage.Session{}, fmt.Errorf("persist session: %w", err)
	}
	return sess, nil
}

// Resolve returns the account bound to a token.
func (s *Service) Resolve(ctx context.Context, token string) (account.Account, error) {
	sess, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return account.Account{}, apperrors.New(apperrors.CodeTokenInvalid, "session token is invalid")
		}
		return account.Account{}, fmt.Errorf("load session: %w", err)
	}
	a, err := s.accounts.GetAccount(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return account.Account{}, apperrors.New(apperrors.CodeTokenInvalid, "session token is invalid")
		}
		return account.Account{}, fmt.Errorf("load account: %w", err)
	}
	return a, nil
}

// DestroyAll removes every session the account holds. Destroying an account
// with no sessions succeeds.
func (s *Service) DestroyAll(ctx context.Context, accountID string) error {
	if err := s.sessions.DeleteAccountSessions(ctx, accountID); err != nil {
		return fmt.Errorf("destroy sessions: %w", err)
	}
	return nil
}
