package storage

import (
	"context"
	"time"

	"github.com/louisbranch/accountgate/internal/platform/errors"
	"github.com/louisbranch/accountgate/internal/services/gateway/account"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New(errors.CodeNotFound, "record not found")

// AccountStore persists account records.
type AccountStore interface {
	PutAccount(ctx context.Context, a account.Account) error
	UpdateAccount(ctx context.Context, a account.Account) error
	GetAccount(ctx context.Context, accountID string) (account.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (account.Account, error)
	GetAccountByFacebookID(ctx context.Context, facebookID string) (account.Account, error)
	GetAccountByReferralCode(ctx context.Context, code string) (account.Account, error)
	// TouchLastSeen records activity without bumping the updated timestamp.
	TouchLastSeen(ctx context.Context, accountID string, at time.Time) error
}

// Session is an issued API session token bound to one account.
type Session struct {
	Token     string
	AccountID string
	CreatedAt time.Time
}

// SessionStore persists API session tokens. Sessions have no expiry; they
// live until the account destroys them.
type SessionStore interface {
	PutSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	// DeleteAccountSessions removes every session for the account. Deleting
	// an account with no sessions is not an error.
	DeleteAccountSessions(ctx context.Context, accountID string) error
}

// Device is a mobile install registered against an account. Active
// controls whether push notifications target it.
type Device struct {
	AccountID  string
	DeviceID   string
	Platform   string
	PushToken  string
	AppVersion string
	Active     bool
	UpdatedAt  time.Time
}

// DeviceStore persists device registrations keyed by (account, device).
type DeviceStore interface {
	PutDevice(ctx context.Context, d Device) error
	ListAccountDevices(ctx context.Context, accountID string) ([]Device, error)
}

// Outbound email delivery states.
const (
	EmailStatusPending = "PENDING"
	EmailStatusSent    = "SENT"
)

// OutboundEmail is a queued transactional email.
type OutboundEmail struct {
	ID          string
	Recipient   string
	Template    string
	PayloadJSON string
	Status      string
	CreatedAt   time.Time
	SentAt      *time.Time
}

// EmailStore is a transactional email outbox. Enqueueing is part of the
// request path; delivery happens out of band.
type EmailStore interface {
	EnqueueEmail(ctx context.Context, e OutboundEmail) error
	ListPendingEmails(ctx context.Context, limit int) ([]OutboundEmail, error)
	MarkEmailSent(ctx context.Context, id string, at time.Time) error
}
