package user

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/accountgate/internal/platform/errors"
	"github.com/louisbranch/accountgate/internal/platform/requestctx"
	"github.com/louisbranch/accountgate/internal/services/gateway/account"
	"github.com/louisbranch/accountgate/internal/services/gateway/rpc"
	"github.com/louisbranch/accountgate/internal/services/gateway/storage"
)

// dateOnly is the wire format for birth dates.
const dateOnly = "2006-01-02"

// profileUpdate is the shape of user.updateprofile params. Pointer fields
// distinguish "absent" from "set to empty".
type profileUpdate struct {
	Name              *string `json:"name"`
	DateOfBirth       *string `json:"date_of_birth"`
	Gender            *string `json:"gender"`
	Hometown          *string `json:"hometown"`
	Avatar            *string `json:"avatar"`
	FacebookConnected *bool   `json:"facebook_connected"`
	FacebookID        *string `json:"facebook_id"`
	Email             *string `json:"email"`
}

// UpdateProfile applies the provided profile fields to the calling account.
func (s *Service) UpdateProfile(ctx context.Context, params rpc.Params) (any, error) {
	a, err := s.requireAccount(ctx, "profile updates not allowed for visitors")
	if err != nil {
		return nil, err
	}

	var update profileUpdate
	if err := params.Bind(&update); err != nil {
		return nil, err
	}

	// Email first, its validation can fail the whole call.
	if update.Email != nil {
		if err := s.validateEmailChange(ctx, *update.Email, a.ID); err != nil {
			return nil, err
		}
		a.Email = *update.Email
	}
	if update.FacebookConnected != nil && *update.FacebookConnected &&
		(update.FacebookID == nil || *update.FacebookID == "") && a.FacebookID == "" {
		return nil, apperrors.New(apperrors.CodeParamsInvalid,
			"when connecting to facebook, FB id has to be supplied")
	}

	if update.Name != nil {
		a.Name = *update.Name
	}
	if update.DateOfBirth != nil {
		parsed, err := time.Parse(dateOnly, *update.DateOfBirth)
		if err != nil {
			return nil, apperrors.New(apperrors.CodeParamsInvalid,
				"date_of_birth must be YYYY-MM-DD")
		}
		a.DateOfBirth = &parsed
	}
	if update.Gender != nil {
		a.Gender = *update.Gender
	}
	if update.Hometown != nil {
		a.Hometown = *update.Hometown
	}
	if update.FacebookID != nil {
		a.FacebookID = *update.FacebookID
	}
	if update.FacebookConnected != nil {
		a.FacebookConnected = *update.FacebookConnected
	}
	if update.Avatar != nil && *update.Avatar != "" {
		avatarURL, err := s.processAvatar(a.ID, *update.Avatar)
		if err != nil {
			return nil, err
		}
		a.AvatarURL = avatarURL
	}

	a.UpdatedAt = s.clock().UTC()
	if err := s.accounts.UpdateAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return true, nil
}

// FindProfile returns the calling account's profile details.
func (s *Service) FindProfile(ctx context.Context, params rpc.Params) (any, error) {
	a, err := s.requireAccount(ctx, "profile info not allowed for visitors")
	if err != nil {
		return nil, err
	}

	detail := map[string]any{
		"name":               a.Name,
		"email":              a.Email,
		"date_of_birth":      nil,
		"gender":             a.Gender,
		"hometown":           a.Hometown,
		"avatar_url":         nil,
		"facebook_connected": a.FacebookConnected,
		"referral_code":      a.ReferralCode,
		"referral_link":      s.linkBase + "/signup?referral=" + a.ReferralCode,
	}
	if a.DateOfBirth != nil {
		detail["date_of_birth"] = a.DateOfBirth.Format(dateOnly)
	}
	if a.AvatarURL != "" {
		detail["avatar_url"] = a.AvatarURL
	}

	if deviceID, ok := params.String("device_hash"); ok && deviceID != "" {
		detail["notifications"] = nil
		devices, err := s.devices.ListAccountDevices(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("list devices: %w", err)
		}
		for _, d := range devices {
			if d.DeviceID == deviceID {
				detail["notifications"] = d.Active
				break
			}
		}
	}
	return detail, nil
}

// UpdateDevice upserts the caller's device registration for push delivery.
func (s *Service) UpdateDevice(ctx context.Context, params rpc.Params) (any, error) {
	a, err := s.requireAccount(ctx, "notifications not allowed for visitors")
	if err != nil {
		return nil, err
	}

	deviceID, err := params.Require("hash")
	if err != nil {
		return nil, err
	}
	active := true
	if value, ok := params.Bool("active"); ok {
		active = value
	}
	platform, _ := params.String("platform")
	switch platform {
	case "", "android", "ios":
	default:
		return nil, apperrors.New(apperrors.CodeParamsInvalid,
			"platform must be android or ios")
	}
	pushToken, _ := params.String("push_token")
	appVersion, _ := params.String("app_version")

	err = s.devices.PutDevice(ctx, storage.Device{
		AccountID:  a.ID,
		DeviceID:   deviceID,
		Platform:   platform,
		PushToken:  pushToken,
		AppVersion: appVersion,
		Active:     active,
		UpdatedAt:  s.clock().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("put device: %w", err)
	}
	return true, nil
}

// SetReferralCode binds the caller to the inviter owning the code.
func (s *Service) SetReferralCode(ctx context.Context, params rpc.Params) (any, error) {
	a, err := s.requireAccount(ctx, "setting referral code not allowed for visitors")
	if err != nil {
		return nil, err
	}

	code, err := params.Require("referral")
	if err != nil {
		return nil, err
	}

	inviter, err := s.accounts.GetAccountByReferralCode(ctx, strings.ToUpper(code))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodeItemNotFound, "referrer account not found")
		}
		return nil, fmt.Errorf("resolve referral: %w", err)
	}
	if inviter.ID == a.ID {
		return nil, apperrors.New(apperrors.CodeParamsInvalid, "an account can not invite self")
	}

	a.InviterAccountID = inviter.ID
	a.UpdatedAt = s.clock().UTC()
	if err := s.accounts.UpdateAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return true, nil
}

// requireAccount loads the authenticated account or rejects visitor calls.
func (s *Service) requireAccount(ctx context.Context, visitorMessage string) (account.Account, error) {
	accountID := requestctx.AccountIDFromContext(ctx)
	if accountID == "" {
		return account.Account{}, apperrors.New(apperrors.CodeVisitorNotAllowed, visitorMessage)
	}
	a, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return account.Account{}, apperrors.New(apperrors.CodeIdentityNotFound, "identity not found")
		}
		return account.Account{}, fmt.Errorf("load account: %w", err)
	}
	return a, nil
}

// processAvatar accepts an image URL or inline base64 payload and returns
// the URL to store.
func (s *Service) processAvatar(accountID, avatar string) (string, error) {
	if strings.HasPrefix(avatar, "http://") || strings.HasPrefix(avatar, "https://") {
		return avatar, nil
	}
	if _, err := base64.StdEncoding.DecodeString(avatar); err != nil {
		return "", apperrors.New(apperrors.CodeParamsInvalid,
			"avatar has to be either a valid base64 string or valid URL")
	}
	return s.linkBase + "/avatars/" + accountID, nil
}
