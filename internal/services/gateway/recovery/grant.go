// Package recovery issues and verifies password recovery grants.
//
// A grant is a short-lived Ed25519-signed JWT embedded in the password
// reset email link. Verifying the grant proves control of the mailbox
// without keeping reset state server-side.
package recovery

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/accountgate/internal/platform/errors"
	"github.com/louisbranch/accountgate/internal/platform/id"
)

// DefaultTTL is how long a recovery grant stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// grantEnv holds raw env values before post-parse validation.
type grantEnv struct {
	Issuer     string `env:"ACCOUNTGATE_RECOVERY_GRANT_ISSUER"`
	Audience   string `env:"ACCOUNTGATE_RECOVERY_GRANT_AUDIENCE"`
	PrivateKey string `env:"ACCOUNTGATE_RECOVERY_GRANT_PRIVATE_KEY"`
	TTLSeconds int    `env:"ACCOUNTGATE_RECOVERY_GRANT_TTL_SECONDS"`
}

// Config defines how recovery grants are signed and verified.
type Config struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration
	Now      func() time.Time
}

// Claims captures a validated recovery grant.
type Claims struct {
	AccountID string
	Email     string
	JWTID     string
	ExpiresAt time.Time
}

// grantClaims is the internal claims type used for JWT parsing.
type grantClaims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

// LoadConfigFromEnv reads recovery grant configuration.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw grantEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse recovery grant env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	privateKey := strings.TrimSpace(raw.PrivateKey)
	if issuer == "" {
		return Config{}, fmt.Errorf("ACCOUNTGATE_RECOVERY_GRANT_ISSUER is required")
	}
	if audience == "" {
		return Config{}, fmt.Errorf("ACCOUNTGATE_RECOVERY_GRANT_AUDIENCE is required")
	}
	if privateKey == "" {
		return Config{}, fmt.Errorf("ACCOUNTGATE_RECOVERY_GRANT_PRIVATE_KEY is required")
	}
	keyBytes, err := decodeBase64(privateKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode recovery grant private key: %w", err)
	}
	var key ed25519.PrivateKey
	switch len(keyBytes) {
	case ed25519.SeedSize:
		key = ed25519.NewKeyFromSeed(keyBytes)
	case ed25519.PrivateKeySize:
		key = ed25519.PrivateKey(keyBytes)
	default:
		return Config{}, fmt.Errorf("recovery grant private key must be %d or %d bytes", ed25519.SeedSize, ed25519.PrivateKeySize)
	}
	ttl := DefaultTTL
	if raw.TTLSeconds > 0 {
		ttl = time.Duration(raw.TTLSeconds) * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return Config{
		Issuer:   issuer,
		Audience: audience,
		Key:      key,
		TTL:      ttl,
		Now:      now,
	}, nil
}

// Issue signs a recovery grant for the account and email.
func Issue(accountID, email string, cfg Config) (string, error) {
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PrivateKeySize {
		return "", errors.New("recovery grant signer is not configured")
	}
	if strings.TrimSpace(accountID) == "" {
		return "", errors.New("account id is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	grantID, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate grant id: %w", err)
	}

	now := cfg.Now().UTC()
	claims := grantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        grantID,
		},
		AccountID: accountID,
		Email:     email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(cfg.Key)
	if err != nil {
		return "", fmt.Errorf("sign recovery grant: %w", err)
	}
	return signed, nil
}

// Validate verifies a recovery grant token and returns its claims.
func Validate(grant string, cfg Config) (Claims, error) {
	grant = strings.TrimSpace(grant)
	if grant == "" {
		return Claims{}, apperrors.New(apperrors.CodeRecoveryGrantInvalid, "recovery grant is required")
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PrivateKeySize {
		return Claims{}, errors.New("recovery grant verifier is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	publicKey := cfg.Key.Public().(ed25519.PublicKey)
	var parsed grantClaims
	_, err := jwt.ParseWithClaims(grant, &parsed, func(token *jwt.Token) (any, error) {
		return publicKey, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return Claims{}, apperrors.New(apperrors.CodeRecoveryGrantInvalid, "recovery grant issuer mismatch")
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return Claims{}, apperrors.New(apperrors.CodeRecoveryGrantInvalid, "recovery grant audience mismatch")
	}
	if parsed.ID == "" {
		return Claims{}, apperrors.New(apperrors.CodeRecoveryGrantInvalid, "recovery grant jti is required")
	}
	if strings.TrimSpace(parsed.AccountID) == "" {
		return Claims{}, apperrors.New(apperrors.CodeRecoveryGrantInvalid, "recovery grant account is required")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodeRecoveryGrantInvalid, "recovery grant exp is required")
	}

	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, apperrors.New(apperrors.CodeRecoveryGrantExpired, "recovery grant is expired")
	}

	return Claims{
		AccountID: parsed.AccountID,
		Email:     parsed.Email,
		JWTID:     parsed.ID,
		ExpiresAt: exp,
	}, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeRecoveryGrantInvalid, "recovery grant signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeRecoveryGrantInvalid, "recovery grant alg is invalid")
	}
	return apperrors.New(apperrors.CodeRecoveryGrantInvalid, "recovery grant is invalid")
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
