// Package gateway parses gateway command flags and starts the HTTP API.
package gateway

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/accountgate/internal/platform/cmd"
	server "github.com/louisbranch/accountgate/internal/services/gateway/app"
	"github.com/louisbranch/accountgate/internal/services/gateway/recovery"
)

// Config holds gateway command configuration.
type Config struct {
	Addr             string `env:"ACCOUNTGATE_ADDR" envDefault:":8080"`
	DBPath           string `env:"ACCOUNTGATE_DB_PATH"`
	RedisAddr        string `env:"ACCOUNTGATE_REDIS_ADDR"`
	LinkBase         string `env:"ACCOUNTGATE_LINK_BASE" envDefault:"http://localhost:8080"`
	ActivationWindow int    `env:"ACCOUNTGATE_ACTIVATION_WINDOW_SECONDS"`
	OverridesPath    string `env:"ACCOUNTGATE_VERSION_OVERRIDES_PATH"`
	DefaultCountry   string `env:"ACCOUNTGATE_DEFAULT_COUNTRY"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The gateway HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The gateway SQLite database path")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for session storage (empty keeps sessions in SQLite)")
	fs.StringVar(&cfg.OverridesPath, "version-overrides", cfg.OverridesPath, "Path to the version override table JSON")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the gateway HTTP API service.
func Run(ctx context.Context, cfg Config) error {
	recoveryCfg, err := recovery.LoadConfigFromEnv(nil)
	if err != nil {
		return err
	}

	var overrides []byte
	if strings.TrimSpace(cfg.OverridesPath) != "" {
		overrides, err = os.ReadFile(cfg.OverridesPath)
		if err != nil {
			return fmt.Errorf("read version overrides: %w", err)
		}
	}

	var country server.StaticCountry
	if cfg.DefaultCountry != "" {
		country = server.StaticCountry(strings.ToUpper(cfg.DefaultCountry))
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGateway, func(context.Context) error {
		return server.Run(ctx, server.Options{
			Addr:             cfg.Addr,
			DBPath:           cfg.DBPath,
			RedisAddr:        cfg.RedisAddr,
			LinkBase:         cfg.LinkBase,
			ActivationWindow: time.Duration(cfg.ActivationWindow) * time.Second,
			VersionOverrides: overrides,
			Recovery:         recoveryCfg,
			Country:          country,
		})
	})
}
