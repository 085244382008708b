package recovery

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	apperrors "github.com/louisbranch/accountgate/internal/platform/errors"
)

func testConfig(t *testing.T, now func() time.Time) Config {
	t.Helper()
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return Config{
		Issuer:   "accountgate-test",
		Audience: "accountgate-clients",
		Key:      key,
		TTL:      time.Hour,
		Now:      now,
	}
}

func TestIssueAndValidate(t *testing.T) {
	now := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)
	cfg := testConfig(t, func() time.Time { return now })

	grant, err := Issue("acc1", "acc1@example.com", cfg)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := Validate(grant, cfg)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.AccountID != "acc1" {
		t.Fatalf("account id = %q, want acc1", claims.AccountID)
	}
	if claims.Email != "acc1@example.com" {
		t.Fatalf("email = %q", claims.Email)
	}
	if claims.JWTID == "" {
		t.Fatal("grant id missing")
	}
	if !claims.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expires at = %v, want %v", claims.ExpiresAt, now.Add(time.Hour))
	}
}

func TestValidateExpiredGrant(t *testing.T) {
	now := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)
	cfg := testConfig(t, func() time.Time { return now })

	grant, err := Issue("acc1", "acc1@example.com", cfg)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cfg.Now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = Validate(grant, cfg)
	if !apperrors.IsCode(err, apperrors.CodeRecoveryGrantExpired) {
		t.Fatalf("error = %v, want recovery grant expired", err)
	}
}

func TestValidateWrongKey(t *testing.T) {
	now := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)
	cfg := testConfig(t, func() time.Time { return now })

	grant, err := Issue("acc1", "acc1@example.com", cfg)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := testConfig(t, func() time.Time { return now })
	_, err = Validate(grant, other)
	if !apperrors.IsCode(err, apperrors.CodeRecoveryGrantInvalid) {
		t.Fatalf("error = %v, want recovery grant invalid", err)
	}
}

func TestValidateIssuerMismatch(t *testing.T) {
	now := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)
	cfg := testConfig(t, func() time.Time { return now })

	grant, err := Issue("acc1", "acc1@example.com", cfg)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cfg.Issuer = "other-issuer"
	_, err = Validate(grant, cfg)
	if !apperrors.IsCode(err, apperrors.CodeRecoveryGrantInvalid) {
		t.Fatalf("error = %v, want recovery grant invalid", err)
	}
}

func TestValidateBlankGrant(t *testing.T) {
	cfg := testConfig(t, nil)
	_, err := Validate("  ", cfg)
	if !apperrors.IsCode(err, apperrors.CodeRecoveryGrantInvalid) {
		t.Fatalf("error = %v, want recovery grant invalid", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	t.Setenv("ACCOUNTGATE_RECOVERY_GRANT_ISSUER", "accountgate")
	t.Setenv("ACCOUNTGATE_RECOVERY_GRANT_AUDIENCE", "clients")
	t.Setenv("ACCOUNTGATE_RECOVERY_GRANT_PRIVATE_KEY", base64.StdEncoding.EncodeToString(key.Seed()))
	t.Setenv("ACCOUNTGATE_RECOVERY_GRANT_TTL_SECONDS", "3600")

	cfg, err := LoadConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.Issuer != "accountgate" || cfg.Audience != "clients" {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.TTL != time.Hour {
		t.Fatalf("ttl = %v, want 1h", cfg.TTL)
	}
	if !cfg.Key.Equal(key) {
		t.Fatal("derived key does not match seed")
	}
}

func TestLoadConfigFromEnvRequiresKey(t *testing.T) {
	t.Setenv("ACCOUNTGATE_RECOVERY_GRANT_ISSUER", "accountgate")
	t.Setenv("ACCOUNTGATE_RECOVERY_GRANT_AUDIENCE", "clients")
	t.Setenv("ACCOUNTGATE_RECOVERY_GRANT_PRIVATE_KEY", "")

	if _, err := LoadConfigFromEnv(nil); err == nil {
		t.Fatal("missing private key accepted")
	}
}
