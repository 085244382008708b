package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/accountgate/internal/services/gateway/storage"
)

// EnqueueEmail queues a transactional email for out-of-band delivery.
func (s *Store) EnqueueEmail(ctx context.Context, e storage.OutboundEmail) error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("email id is required")
	}
	if strings.TrimSpace(e.Recipient) == "" {
		return fmt.Errorf("email recipient is required")
	}
	if e.PayloadJSON == "" {
		e.PayloadJSON = "{}"
	}
	if e.Status == "" {
		e.Status = storage.EmailStatusPending
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO outbound_emails (id, recipient, template, payload_json, status, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, e.ID, e.Recipient, e.Template, e.PayloadJSON, e.Status, toMillis(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}

// ListPendingEmails returns queued emails oldest first.
func (s *Store) ListPendingEmails(ctx context.Context, limit int) ([]storage.OutboundEmail, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, recipient, template, payload_json, status, created_at, sent_at
FROM outbound_emails
WHERE status = ?
ORDER BY created_at
LIMIT ?
`, storage.EmailStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending emails: %w", err)
	}
	defer rows.Close()

	var emails []storage.OutboundEmail
	for rows.Next() {
		var e storage.OutboundEmail
		var createdAt int64
		var sentAt sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Recipient, &e.Template, &e.PayloadJSON, &e.Status, &createdAt, &sentAt); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		e.CreatedAt = fromMillis(createdAt)
		e.SentAt = fromOptionalMillis(sentAt)
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emails: %w", err)
	}
	return emails, nil
}

// MarkEmailSent records a successful delivery.
func (s *Store) MarkEmailSent(ctx context.Context, id string, at time.Time) error {
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE outbound_emails SET status = ?, sent_at = ? WHERE id = ?
`, storage.EmailStatusSent, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("mark email sent: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark email sent rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
