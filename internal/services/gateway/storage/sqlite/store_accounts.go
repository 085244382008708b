package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/accountgate/internal/services/gateway/account"
	"github.com/louisbranch/accountgate/internal/services/gateway/storage"
)

const accountColumns = `
	id,
	email,
	password_hash,
	name,
	date_of_birth,
	gender,
	hometown,
	avatar_url,
	facebook_id,
	facebook_connected,
	referral_code,
	inviter_account_id,
	country_code,
	registration_source,
	state,
	activation_hash,
	activation_email_sent,
	last_seen,
	created_at,
	updated_at
`

// PutAccount inserts a new account record.
func (s *Store) PutAccount(ctx context.Context, a account.Account) error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("account id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO accounts (`+accountColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, accountArgs(a)...)
	if err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

// UpdateAccount replaces the stored record for the account's ID.
func (s *Store) UpdateAccount(ctx context.Context, a account.Account) error {
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE accounts SET
	email = ?,
	password_hash = ?,
	name = ?,
	date_of_birth = ?,
	gender = ?,
	hometown = ?,
	avatar_url = ?,
	facebook_id = ?,
	facebook_connected = ?,
	referral_code = ?,
	inviter_account_id = ?,
	country_code = ?,
	registration_source = ?,
	state = ?,
	activation_hash = ?,
	activation_email_sent = ?,
	last_seen = ?,
	created_at = ?,
	updated_at = ?
WHERE id = ?
`, append(accountArgs(a)[1:], a.ID)...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetAccount loads one account by its identifier.
func (s *Store) GetAccount(ctx context.Context, accountID string) (account.Account, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, accountID)
	return scanAccount(row)
}

// GetAccountByEmail loads one account by its email address.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ? AND email <> ''`, email)
	return scanAccount(row)
}

// GetAccountByFacebookID loads one account by its linked Facebook identity.
func (s *Store) GetAccountByFacebookID(ctx context.Context, facebookID string) (account.Account, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE facebook_id = ? AND facebook_id <> ''`, facebookID)
	return scanAccount(row)
}

// GetAccountByReferralCode loads the account owning a referral code.
func (s *Store) GetAccountByReferralCode(ctx context.Context, code string) (account.Account, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE referral_code = ? AND referral_code <> ''`, code)
	return scanAccount(row)
}

// TouchLastSeen records activity without bumping updated_at.
func (s *Store) TouchLastSeen(ctx context.Context, accountID string, at time.Time) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`UPDATE accounts SET last_seen = ? WHERE id = ?`, toMillis(at), accountID)
	if err != nil {
		return fmt.Errorf("touch last seen: %w", err)
	}
	return nil
}

func accountArgs(a account.Account) []any {
	return []any{
		a.ID,
		a.Email,
		a.PasswordHash,
		a.Name,
		optionalMillis(a.DateOfBirth),
		a.Gender,
		a.Hometown,
		a.AvatarURL,
		a.FacebookID,
		a.FacebookConnected,
		a.ReferralCode,
		a.InviterAccountID,
		a.CountryCode,
		a.RegistrationSource,
		string(a.State),
		a.ActivationHash,
		optionalMillis(a.ActivationEmailSent),
		optionalMillis(a.LastSeen),
		toMillis(a.CreatedAt),
		toMillis(a.UpdatedAt),
	}
}

func optionalMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

func fromOptionalMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

func scanAccount(row *sql.Row) (account.Account, error) {
	var a account.Account
	var state string
	var dateOfBirth, activationEmailSent, lastSeen sql.NullInt64
	var createdAt, updatedAt int64
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.Name,
		&dateOfBirth,
		&a.Gender,
		&a.Hometown,
		&a.AvatarURL,
		&a.FacebookID,
		&a.FacebookConnected,
		&a.ReferralCode,
		&a.InviterAccountID,
		&a.CountryCode,
		&a.RegistrationSource,
		&state,
		&a.ActivationHash,
		&activationEmailSent,
		&lastSeen,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return account.Account{}, storage.ErrNotFound
	}
	if err != nil {
		return account.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.State = account.State(state)
	a.DateOfBirth = fromOptionalMillis(dateOfBirth)
	a.ActivationEmailSent = fromOptionalMillis(activationEmailSent)
	a.LastSeen = fromOptionalMillis(lastSeen)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return a, nil
}
