package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	apperrors "github.com/louisbranch/accountgate/internal/platform/errors"
	"github.com/louisbranch/accountgate/internal/platform/requestctx"
	"github.com/louisbranch/accountgate/internal/services/gateway/account"
	"github.com/louisbranch/accountgate/internal/services/gateway/recovery"
	"github.com/louisbranch/accountgate/internal/services/gateway/rpc"
	"github.com/louisbranch/accountgate/internal/services/gateway/storage"
)

// Login authenticates by email plus password or Facebook identity and
// returns a fresh session token.
func (s *Service) Login(ctx context.Context, params rpc.Params) (any, error) {
	email, err := params.Require("user")
	if err != nil {
		return nil, err
	}
	password, _ := params.String("password")
	facebookID, _ := params.String("facebook_id")
	if err := checkCredentialInput(password, facebookID); err != nil {
		return nil, err
	}

	a, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodeIdentityNotFound, "identity not found")
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if facebookID != "" {
		if a.FacebookID == "" || a.FacebookID != facebookID {
			return nil, apperrors.New(apperrors.CodeCredentialsInvalid, "credentials not valid")
		}
	} else {
		ok, rehashed := a.CheckPassword(password)
		if !ok {
			return nil, apperrors.New(apperrors.CodeCredentialsInvalid, "credentials not valid")
		}
		if rehashed {
			if err := s.accounts.UpdateAccount(ctx, a); err != nil {
				log.Printf("persist rehashed password for %s: %v", a.ID, err)
			}
		}
	}

	sess, err := s.sessions.Issue(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"token": sess.Token,
		"user":  email,
	}, nil
}

// Signup validates the submitted registration, creates the account, sends
// the activation email, and logs the new account in.
func (s *Service) Signup(ctx context.Context, params rpc.Params) (any, error) {
	email, err := params.Require("email")
	if err != nil {
		return nil, err
	}
	password, _ := params.String("password")
	facebookID, _ := params.String("facebook_id")
	referral, _ := params.String("referral")
	if err := checkCredentialInput(password, facebookID); err != nil {
		return nil, err
	}

	// Facebook registrations get a random throwaway password.
	if password == "" {
		generated, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("generate password: %w", err)
		}
		password = generated
	}

	if err := s.validateNewEmail(ctx, email); err != nil {
		return nil, err
	}
	if err := validatePassword(password, email); err != nil {
		return nil, err
	}

	accountID, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate account id: %w", err)
	}

	now := s.clock().UTC()
	a := account.Account{
		ID:                 accountID,
		Email:              email,
		FacebookID:         facebookID,
		FacebookConnected:  facebookID != "",
		ReferralCode:       referralCodeFromID(accountID),
		CountryCode:        s.resolveCountry(ctx),
		RegistrationSource: account.SourceApp,
		State:              account.StateNew,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := a.SetPassword(password); err != nil {
		return nil, fmt.Errorf("set password: %w", err)
	}

	// A stale or unknown referral code is ignored rather than rejected.
	if referral != "" {
		inviter, err := s.accounts.GetAccountByReferralCode(ctx, strings.ToUpper(referral))
		if err == nil {
			a.InviterAccountID = inviter.ID
		} else if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("resolve referral: %w", err)
		}
	}

	if err := a.RequestActivation(now); err != nil {
		return nil, err
	}
	if err := s.accounts.PutAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	if err := s.enqueueActivationEmail(ctx, a); err != nil {
		log.Printf("enqueue activation email for %s: %v", a.ID, err)
	}

	sess, err := s.sessions.Issue(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"token": sess.Token,
		"user":  email,
	}, nil
}

// Logout destroys every session the calling account holds.
func (s *Service) Logout(ctx context.Context, params rpc.Params) (any, error) {
	accountID := requestctx.AccountIDFromContext(ctx)
	if accountID == "" {
		return map[string]string{"message": "Goodbye"}, nil
	}
	if err := s.sessions.DestroyAll(ctx, accountID); err != nil {
		return nil, err
	}
	return map[string]string{"message": "Goodbye"}, nil
}

// ResetPassword emails a recovery grant to the account's address.
func (s *Service) ResetPassword(ctx context.Context, params rpc.Params) (any, error) {
	email, err := params.Require("email")
	if err != nil {
		return nil, err
	}

	a, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodeIdentityNotFound, "identity not found")
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	grant, err := recovery.Issue(a.ID, a.Email, s.recovery)
	if err != nil {
		return nil, fmt.Errorf("issue recovery grant: %w", err)
	}

	payload, err := json.Marshal(map[string]string{
		"link": s.linkBase + "/password-recovery?grant=" + grant,
	})
	if err != nil {
		return nil, fmt.Errorf("encode recovery payload: %w", err)
	}
	emailID, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate email id: %w", err)
	}
	err = s.emails.EnqueueEmail(ctx, storage.OutboundEmail{
		ID:          emailID,
		Recipient:   a.Email,
		Template:    "password_recovery",
		PayloadJSON: string(payload),
		CreatedAt:   s.clock().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue recovery email: %w", err)
	}

	return map[string]string{
		"message": "Email with password recovery instructions has been sent",
	}, nil
}

// GetEmailBy resolves an account email from a unique external identifier.
// Facebook is the only supported filter today.
func (s *Service) GetEmailBy(ctx context.Context, params rpc.Params) (any, error) {
	facebookID, ok := params.String("facebook_id")
	if !ok || facebookID == "" {
		return nil, apperrors.New(apperrors.CodeParamEmpty,
			"at least one filter param has to be supplied")
	}

	result := map[string]any{"facebook_id": facebookID, "email": nil}
	a, err := s.accounts.GetAccountByFacebookID(ctx, facebookID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return result, nil
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	result["email"] = a.Email
	return result, nil
}

// checkCredentialInput enforces that either a password or a Facebook
// identity accompanies the call.
func checkCredentialInput(password, facebookID string) error {
	if password == "" && facebookID == "" {
		return apperrors.New(apperrors.CodeParamEmpty,
			"either facebook id or password has to be supplied")
	}
	return nil
}

// referralCodeFromID derives a share code from the account identifier.
func referralCodeFromID(accountID string) string {
	code := strings.ToUpper(accountID)
	if len(code) > 8 {
		code = code[:8]
	}
	return code
}

// resolveCountry looks up the caller's country, tolerating resolver
// failures.
func (s *Service) resolveCountry(ctx context.Context) string {
	if s.country == nil {
		return ""
	}
	addr := requestctx.RemoteAddrFromContext(ctx)
	if addr == "" {
		return ""
	}
	code, err := s.country.CountryCode(ctx, addr)
	if err != nil {
		log.Printf("resolve country for %s: %v", addr, err)
		return ""
	}
	return code
}

// enqueueActivationEmail queues the confirmation email for a fresh signup.
func (s *Service) enqueueActivationEmail(ctx context.Context, a account.Account) error {
	payload, err := json.Marshal(map[string]string{
		"link": s.linkBase + "/activate?hash=" + a.ActivationHash,
	})
	if err != nil {
		return fmt.Errorf("encode activation payload: %w", err)
	}
	emailID, err := s.newID()
	if err != nil {
		return fmt.Errorf("generate email id: %w", err)
	}
	return s.emails.EnqueueEmail(ctx, storage.OutboundEmail{
		ID:          emailID,
		Recipient:   a.Email,
		Template:    "activation",
		PayloadJSON: string(payload),
		CreatedAt:   s.clock().UTC(),
	})
}
