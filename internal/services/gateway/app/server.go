package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/louisbranch/accountgate/internal/platform/timeouts"
	"github.com/louisbranch/accountgate/internal/services/gateway/dispatch"
	"github.com/louisbranch/accountgate/internal/services/gateway/pipeline"
	"github.com/louisbranch/accountgate/internal/services/gateway/recovery"
	"github.com/louisbranch/accountgate/internal/services/gateway/session"
	"github.com/louisbranch/accountgate/internal/services/gateway/storage"
	gwredis "github.com/louisbranch/accountgate/internal/services/gateway/storage/redis"
	gwsqlite "github.com/louisbranch/accountgate/internal/services/gateway/storage/sqlite"
	"github.com/louisbranch/accountgate/internal/services/gateway/user"
	"github.com/louisbranch/accountgate/internal/services/gateway/version"
)

// defaultActivationWindow bounds how long a signup may remain unconfirmed.
const defaultActivationWindow = 14 * 24 * time.Hour

// Methods callable without a token, and methods that skip the activation
// expiry check.
var (
	tokenExemptMethods  = []string{"user.login", "user.signup", "user.resetpassword", "user.getemailby"}
	expiryExemptMethods = []string{"user.signup"}
)

// StaticCountry resolves every caller to a fixed country code. It stands in
// for a real geo lookup when none is configured.
type StaticCountry string

// CountryCode returns the configured code regardless of the caller address.
func (c StaticCountry) CountryCode(_ context.Context, _ string) (string, error) {
	return string(c), nil
}

var _ user.CountryResolver = StaticCountry("")

// Options configure a gateway server.
type Options struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string
	// DBPath locates the SQLite file. Empty picks data/gateway.db.
	DBPath string
	// RedisAddr, when set, stores sessions in Redis instead of SQLite.
	RedisAddr string
	// LinkBase is the absolute URL prefix for links in emails.
	LinkBase string
	// ActivationWindow overrides the default activation expiry.
	ActivationWindow time.Duration
	// VersionOverrides is the JSON threshold table.
	VersionOverrides []byte
	// Recovery signs password recovery grants.
	Recovery recovery.Config
	// Country resolves caller countries; nil disables the lookup.
	Country user.CountryResolver
}

// Server hosts the gateway HTTP API.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *gwsqlite.Store
	redis      *goredis.Client
	pipeline   *pipeline.Pipeline
	registry   *dispatch.Registry
}

// New creates a configured gateway server listening on the options' address.
func New(opts Options) (*Server, error) {
	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", opts.Addr, err)
	}

	store, err := openGatewayStore(opts.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	var redisClient *goredis.Client
	var sessionStore storage.SessionStore = store
	if strings.TrimSpace(opts.RedisAddr) != "" {
		redisClient = goredis.NewClient(&goredis.Options{Addr: opts.RedisAddr})
		sessionStore = gwredis.NewSessionStore(redisClient)
	}

	entries, err := version.ParseEntries(opts.VersionOverrides)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}
	resolver, err := version.NewResolver(entries)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	sessions := session.NewService(store, sessionStore)
	registry := dispatch.NewRegistry()
	userService := user.NewService(store, store, store, sessions, opts.Recovery, opts.Country, opts.LinkBase)
	userService.Register(registry)

	window := opts.ActivationWindow
	if window <= 0 {
		window = defaultActivationWindow
	}
	pipe, err := pipeline.New(pipeline.Config{
		TokenExempt:      tokenExemptMethods,
		ExpiryExempt:     expiryExemptMethods,
		ActivationWindow: window,
	}, sessions, store, resolver, registry)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	server := &Server{
		listener: listener,
		store:    store,
		redis:    redisClient,
		pipeline: pipe,
		registry: registry,
	}

	mux := http.NewServeMux()
	mux.Handle("/api", server.rpcHandler())
	mux.Handle("/api/{version}", server.rpcHandler())
	server.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return server, nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a gateway server until the context ends.
func Run(ctx context.Context, opts Options) error {
	server, err := New(opts)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStores()

	log.Printf("gateway server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}
}

func openGatewayStore(path string) (*gwsqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "gateway.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := gwsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gateway sqlite store: %w", err)
	}
	return store, nil
}

func (s *Server) closeStores() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close gateway store: %v", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("close redis client: %v", err)
		}
	}
}
