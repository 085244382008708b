// Package pipeline runs the ordered interceptor chain around one RPC call.
//
// Every request moves through the same fixed stages: token check, account
// activity check, version override check, then dispatch. Each stage either
// advances the call or fails it; a failed stage short-circuits the rest of
// the chain.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	apperrors "github.com/louisbranch/accountgate/internal/platform/errors"
	"github.com/louisbranch/accountgate/internal/platform/requestctx"
	"github.com/louisbranch/accountgate/internal/services/gateway/account"
	"github.com/louisbranch/accountgate/internal/services/gateway/dispatch"
	"github.com/louisbranch/accountgate/internal/services/gateway/rpc"
	"github.com/louisbranch/accountgate/internal/services/gateway/storage"
	"github.com/louisbranch/accountgate/internal/services/gateway/version"
)

// VisitorToken is the sentinel clients send for unauthenticated browsing.
// It passes the token check without binding an identity.
const VisitorToken = "visitor"

// State tracks a call's progress through the chain.
type State string

// Call states in chain order.
const (
	StateReceived        State = "RECEIVED"
	StateTokenChecked    State = "TOKEN_CHECKED"
	StateActivityChecked State = "ACTIVITY_CHECKED"
	StateVersionChecked  State = "VERSION_CHECKED"
	StateDispatched      State = "DISPATCHED"
	StateCompleted       State = "COMPLETED"
	StateFailed          State = "FAILED"
)

// SessionResolver resolves a bearer token to its account.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (account.Account, error)
}

// Call is the per-request context threaded through the stages.
type Call struct {
	Request *rpc.Request
	Params  rpc.Params
	// Version is the client-declared application version from the URL.
	Version string
	// Account is the identity bound by the token check, when any.
	Account *account.Account
	// Visitor is set when the sentinel token passed the check.
	Visitor bool
	State   State
	// Terminal marks failures that must close the connection after the
	// error envelope is written.
	Terminal bool
}

// Config carries the pipeline policy knobs.
type Config struct {
	// TokenExempt lists methods callable without any token.
	TokenExempt []string
	// ExpiryExempt lists methods that skip the activation expiry check.
	ExpiryExempt []string
	// ActivationWindow is how long a waiting-for-activation account may
	// keep calling before it expires.
	ActivationWindow time.Duration
}

// Pipeline executes the interceptor chain for one call at a time. It holds
// only read-only state after construction and is safe for concurrent use.
type Pipeline struct {
	sessions     SessionResolver
	accounts     storage.AccountStore
	resolver     *version.Resolver
	registry     *dispatch.Registry
	tokenExempt  map[string]bool
	expiryExempt map[string]bool
	window       time.Duration
	clock        func() time.Time
}

// New wires a pipeline and verifies the exempt lists against the registry,
// so a typo in policy configuration fails at startup instead of silently
// never matching.
func New(cfg Config, sessions SessionResolver, accounts storage.AccountStore, resolver *version.Resolver, registry *dispatch.Registry) (*Pipeline, error) {
	if sessions == nil {
		return nil, errors.New("pipeline: session resolver is required")
	}
	if accounts == nil {
		return nil, errors.New("pipeline: account store is required")
	}
	if resolver == nil {
		return nil, errors.New("pipeline: version resolver is required")
	}
	if registry == nil {
		return nil, errors.New("pipeline: dispatch registry is required")
	}

	p := &Pipeline{
		sessions:     sessions,
		accounts:     accounts,
		resolver:     resolver,
		registry:     registry,
		tokenExempt:  make(map[string]bool),
		expiryExempt: make(map[string]bool),
		window:       cfg.ActivationWindow,
		clock:        time.Now,
	}
	for _, method := range cfg.TokenExempt {
		if !registry.Has(method) {
			return nil, fmt.Errorf("pipeline: token-exempt method %q is not registered", method)
		}
		p.tokenExempt[method] = true
	}
	for _, method := range cfg.ExpiryExempt {
		if !registry.Has(method) {
			return nil, fmt.Errorf("pipeline: expiry-exempt method %q is not registered", method)
		}
		p.expiryExempt[method] = true
	}
	return p, nil
}

// Run takes a received call through every stage and returns the dispatch
// result. The call's State records how far it got.
func (p *Pipeline) Run(ctx context.Context, call *Call) (any, error) {
	call.State = StateReceived

	type stage struct {
		next State
		run  func(context.Context, *Call) (context.Context, error)
	}
	stages := []stage{
		{next: StateTokenChecked, run: p.checkToken},
		{next: StateActivityChecked, run: p.checkActivity},
		{next: StateVersionChecked, run: p.checkVersion},
	}
	for _, s := range stages {
		next, err := s.run(ctx, call)
		if err != nil {
			call.State = StateFailed
			return nil, err
		}
		ctx = next
		call.State = s.next
	}

	result, err := p.dispatchCall(ctx, call)
	if err != nil {
		call.State = StateFailed
		return nil, err
	}
	call.State = StateCompleted
	return result, nil
}

// checkToken authenticates the call or lets exempt and visitor traffic
// through.
func (p *Pipeline) checkToken(ctx context.Context, call *Call) (context.Context, error) {
	if p.tokenExempt[call.Request.Method] {
		return ctx, nil
	}
	token := call.Request.Token
	if token == "" {
		return ctx, apperrors.New(apperrors.CodeTokenMissing, "session token is required")
	}
	if token == VisitorToken {
		call.Visitor = true
		return ctx, nil
	}

	a, err := p.sessions.Resolve(ctx, token)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeTokenInvalid) {
			return ctx, err
		}
		return ctx, fmt.Errorf("resolve session: %w", err)
	}
	call.Account = &a

	// Best effort; a failed activity timestamp never fails the request.
	if err := p.accounts.TouchLastSeen(ctx, a.ID, p.clock().UTC()); err != nil {
		log.Printf("touch last seen for %s: %v", a.ID, err)
	}

	return requestctx.WithAccountID(ctx, a.ID), nil
}

// checkActivity rejects calls from accounts whose activation window has
// lapsed.
func (p *Pipeline) checkActivity(ctx context.Context, call *Call) (context.Context, error) {
	if p.expiryExempt[call.Request.Method] {
		return ctx, nil
	}

	a := call.Account
	if a == nil {
		probed, err := p.probeAccount(ctx, call.Params)
		if err != nil {
			return ctx, err
		}
		a = probed
	}

	if a.State != account.StateWaitingForActivation {
		return ctx, nil
	}
	if a.ActivationEmailSent == nil {
		return ctx, nil
	}

	validUntil := a.ActivationEmailSent.Add(p.window)
	if p.clock().UTC().After(validUntil) {
		call.Terminal = true
		return ctx, apperrors.WithMetadata(apperrors.CodeAccountExpired,
			"account activation period has expired",
			map[string]string{"email": a.Email})
	}
	return ctx, nil
}

// probeAccount resolves an identity from email-shaped request parameters
// when no session was bound. Old clients rely on this for the login and
// password reset flows.
func (p *Pipeline) probeAccount(ctx context.Context, params rpc.Params) (*account.Account, error) {
	for _, key := range []string{"email", "user"} {
		email, ok := params.String(key)
		if !ok || email == "" {
			continue
		}
		a, err := p.accounts.GetAccountByEmail(ctx, email)
		if err == nil {
			return &a, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("probe account by %s: %w", key, err)
		}
	}
	return nil, apperrors.New(apperrors.CodeIdentityNotFound, "no account identity for this call")
}

// checkVersion applies deprecation policy and method rerouting for the
// client's declared version.
func (p *Pipeline) checkVersion(ctx context.Context, call *Call) (context.Context, error) {
	decision, err := p.resolver.Resolve(call.Version)
	if err != nil {
		return ctx, err
	}
	if decision.Empty() {
		return ctx, nil
	}
	if decision.Deprecated(p.clock().UTC()) {
		return ctx, apperrors.WithMetadata(apperrors.CodeVersionDeprecated,
			"application version is deprecated",
			map[string]string{"version": call.Version})
	}

	model, method, ok := strings.Cut(call.Request.Method, ".")
	if !ok {
		return ctx, apperrors.New(apperrors.CodeParamsInvalid, "method must be model.method")
	}
	if rewritten, found := decision.Override(model, method); found {
		call.Request.Method = rewritten
	}
	return ctx, nil
}

// dispatchCall hands the call to its registered handler. Panics and
// non-domain errors are logged and flattened into a generic internal error
// so handler internals never leak to clients.
func (p *Pipeline) dispatchCall(ctx context.Context, call *Call) (result any, err error) {
	handler, err := p.registry.Resolve(call.Request.Method)
	if err != nil {
		return nil, err
	}
	call.State = StateDispatched

	defer func() {
		if recovered := recover(); recovered != nil {
			log.Printf("handler %s panicked: %v", call.Request.Method, recovered)
			result = nil
			err = apperrors.New(apperrors.CodeInternal, "internal error")
		}
	}()

	result, err = handler(ctx, call.Params)
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		log.Printf("handler %s failed: %v", call.Request.Method, err)
		return nil, apperrors.New(apperrors.CodeInternal, "internal error")
	}
	return result, nil
}
