package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	apperrors "github.com/louisbranch/accountgate/internal/platform/errors"
	"github.com/louisbranch/accountgate/internal/services/gateway/storage"
)

// passwordMinLength is the shortest password a client may register.
const passwordMinLength = 6

// validEmailSyntax reports whether the value parses as a bare address.
func validEmailSyntax(value string) bool {
	parsed, err := mail.ParseAddress(value)
	return err == nil && parsed.Address == value
}

// validateNewEmail checks syntax and that no account owns the address yet.
func (s *Service) validateNewEmail(ctx context.Context, email string) error {
	if !validEmailSyntax(email) {
		return apperrors.New(apperrors.CodeEmailInvalid,
			fmt.Sprintf("%q is not a valid email address", email))
	}
	_, err := s.accounts.GetAccountByEmail(ctx, email)
	if err == nil {
		return apperrors.New(apperrors.CodeUsernameTaken,
			"user with the provided email already exists")
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("check email uniqueness: %w", err)
	}
	return nil
}

// validateEmailChange checks syntax and that no other account owns the
// address. The account's own current address is allowed.
func (s *Service) validateEmailChange(ctx context.Context, email, accountID string) error {
	if !validEmailSyntax(email) {
		return apperrors.New(apperrors.CodeEmailInvalid,
			fmt.Sprintf("%q is not a valid email address", email))
	}
	owner, err := s.accounts.GetAccountByEmail(ctx, email)
	if err == nil {
		if owner.ID != accountID {
			return apperrors.New(apperrors.CodeUsernameTaken,
				"user with the provided email already exists")
		}
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("check email uniqueness: %w", err)
	}
	return nil
}

// validatePassword enforces length and that the password differs from the
// login.
func validatePassword(password, login string) error {
	if len(password) < passwordMinLength {
		return apperrors.New(apperrors.CodePasswordInvalid,
			fmt.Sprintf("password has to be at least %d letters long", passwordMinLength))
	}
	if password == login {
		return apperrors.New(apperrors.CodePasswordInvalid,
			"password and login must not be the same")
	}
	return nil
}
