package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/accountgate/internal/services/gateway/storage"
)

// PutSession persists an issued session token.
func (s *Store) PutSession(ctx context.Context, sess storage.Session) error {
	if strings.TrimSpace(sess.Token) == "" {
		return fmt.Errorf("session token is required")
	}
	if strings.TrimSpace(sess.AccountID) == "" {
		return fmt.Errorf("session account id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO account_api_sessions (token, account_id, created_at)
VALUES (?, ?, ?)
`, sess.Token, sess.AccountID, toMillis(sess.CreatedAt))
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// GetSession resolves a token back to its session record.
func (s *Store) GetSession(ctx context.Context, token string) (storage.Session, error) {
	var sess storage.Session
	var createdAt int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT token, account_id, created_at
FROM account_api_sessions
WHERE token = ?
`, token).Scan(&sess.Token, &sess.AccountID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Session{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Session{}, fmt.Errorf("get session: %w", err)
	}
	sess.CreatedAt = fromMillis(createdAt)
	return sess, nil
}

// DeleteAccountSessions removes every session held by one account.
func (s *Store) DeleteAccountSessions(ctx context.Context, accountID string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM account_api_sessions WHERE account_id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("delete account sessions: %w", err)
	}
	return nil
}
