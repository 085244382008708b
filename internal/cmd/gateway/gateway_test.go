package gateway

import (
	"context"
	"flag"
	"strings"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.LinkBase != "http://localhost:8080" {
		t.Fatalf("expected default link base, got %q", cfg.LinkBase)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("expected empty redis addr, got %q", cfg.RedisAddr)
	}
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("ACCOUNTGATE_ADDR", ":9090")
	t.Setenv("ACCOUNTGATE_ACTIVATION_WINDOW_SECONDS", "3600")
	t.Setenv("ACCOUNTGATE_DEFAULT_COUNTRY", "gb")

	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("expected env addr, got %q", cfg.Addr)
	}
	if cfg.ActivationWindow != 3600 {
		t.Fatalf("expected activation window 3600, got %d", cfg.ActivationWindow)
	}
	if cfg.DefaultCountry != "gb" {
		t.Fatalf("expected raw country value, got %q", cfg.DefaultCountry)
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("ACCOUNTGATE_ADDR", ":9090")

	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-addr", ":7070", "-redis-addr", "localhost:6379"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Fatalf("expected flag addr, got %q", cfg.Addr)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("expected redis addr flag, got %q", cfg.RedisAddr)
	}
}

func TestRunRequiresRecoveryKey(t *testing.T) {
	t.Setenv("ACCOUNTGATE_RECOVERY_GRANT_ISSUER", "accountgate")
	t.Setenv("ACCOUNTGATE_RECOVERY_GRANT_AUDIENCE", "gateway")
	t.Setenv("ACCOUNTGATE_RECOVERY_GRANT_PRIVATE_KEY", "")

	err := Run(context.Background(), Config{Addr: "127.0.0.1:0"})
	if err == nil {
		t.Fatal("expected missing recovery key to fail startup")
	}
	if !strings.Contains(err.Error(), "ACCOUNTGATE_RECOVERY_GRANT_PRIVATE_KEY") {
		t.Fatalf("expected private key error, got %v", err)
	}
}
