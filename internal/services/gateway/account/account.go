// Package account provides the mobile account domain model.
package account

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/accountgate/internal/platform/errors"
)

// State describes the account activation lifecycle. Transitions are
// one-directional: NEW -> WAITING_FOR_ACTIVATION -> ACTIVE.
type State string

const (
	// StateNew is the initial state of a freshly created account.
	StateNew State = "NEW"
	// StateWaitingForActivation marks an account whose activation email
	// has been sent but not yet confirmed.
	StateWaitingForActivation State = "WAITING_FOR_ACTIVATION"
	// StateActive marks a confirmed account.
	StateActive State = "ACTIVE"
)

// Registration sources.
const (
	SourceWeb = "WEB"
	SourceApp = "APP"
)

// Account represents a mobile application account.
type Account struct {
	ID                  string
	Email               string
	PasswordHash        string
	Name                string
	DateOfBirth         *time.Time
	Gender              string
	Hometown            string
	AvatarURL           string
	FacebookID          string
	FacebookConnected   bool
	ReferralCode        string
	InviterAccountID    string
	CountryCode         string
	RegistrationSource  string
	State               State
	ActivationHash      string
	ActivationEmailSent *time.Time
	LastSeen            *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// RequestActivation moves the account into WAITING_FOR_ACTIVATION and
// stamps the activation email timestamp. Only NEW accounts may request
// activation.
func (a *Account) RequestActivation(now time.Time) error {
	if a.State != StateNew {
		return apperrors.New(apperrors.CodeAccountStateInvalid,
			fmt.Sprintf("only %s accounts can be sent an activation email", StateNew))
	}
	sent := now.UTC()
	a.State = StateWaitingForActivation
	a.ActivationHash = a.activationHash()
	a.ActivationEmailSent = &sent
	a.UpdatedAt = sent
	return nil
}

// Activate moves the account into ACTIVE. Only accounts waiting for
// activation may be activated.
func (a *Account) Activate(now time.Time) error {
	if a.State != StateWaitingForActivation {
		return apperrors.New(apperrors.CodeAccountStateInvalid,
			fmt.Sprintf("only %s accounts can be activated", StateWaitingForActivation))
	}
	a.State = StateActive
	a.UpdatedAt = now.UTC()
	return nil
}

// ActivationValidUntil returns the expiry deadline of the activation
// window. The second return is false when no activation email was sent.
func (a *Account) ActivationValidUntil(window time.Duration) (time.Time, bool) {
	if a.ActivationEmailSent == nil {
		return time.Time{}, false
	}
	return a.ActivationEmailSent.Add(window), true
}

// activationHash derives a stable activation token from immutable fields.
func (a *Account) activationHash() string {
	sum := sha256.Sum256([]byte(a.ID + a.CreatedAt.UTC().Format("2006#01#02#15#04#05")))
	return hex.EncodeToString(sum[:])
}
