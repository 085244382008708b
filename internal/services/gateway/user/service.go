// Package user implements the RPC methods mobile clients call under the
// "user" model.
package user

import (
	"context"
	"strings"
	"time"

	"github.com/louisbranch/accountgate/internal/platform/id"
	"github.com/louisbranch/accountgate/internal/services/gateway/dispatch"
	"github.com/louisbranch/accountgate/internal/services/gateway/recovery"
	"github.com/louisbranch/accountgate/internal/services/gateway/rpc"
	"github.com/louisbranch/accountgate/internal/services/gateway/session"
	"github.com/louisbranch/accountgate/internal/services/gateway/storage"
)

// CountryResolver maps a caller's network address to an ISO country code.
// Lookups are best effort; the gateway stores an empty code on failure.
type CountryResolver interface {
	CountryCode(ctx context.Context, remoteAddr string) (string, error)
}

// Service holds the collaborators the user model methods need.
type Service struct {
	accounts storage.AccountStore
	devices  storage.DeviceStore
	emails   storage.EmailStore
	sessions *session.Service
	recovery recovery.Config
	country  CountryResolver
	// linkBase is the absolute URL prefix for links embedded in emails
	// and profile payloads.
	linkBase string
	clock    func() time.Time
	newID    func() (string, error)
}

// NewService creates a user service with default clock and id generation.
func NewService(accounts storage.AccountStore, devices storage.DeviceStore, emails storage.EmailStore, sessions *session.Service, recoveryCfg recovery.Config, country CountryResolver, linkBase string) *Service {
	return &Service{
		accounts: accounts,
		devices:  devices,
		emails:   emails,
		sessions: sessions,
		recovery: recoveryCfg,
		country:  country,
		linkBase: strings.TrimRight(linkBase, "/"),
		clock:    time.Now,
		newID:    id.NewID,
	}
}

// Register binds every RPC method this service serves.
func (s *Service) Register(registry *dispatch.Registry) {
	registry.Register("user.login", s.Login)
	registry.Register("user.signup", s.Signup)
	registry.Register("user.logout", s.Logout)
	registry.Register("user.resetpassword", s.ResetPassword)
	registry.Register("user.getemailby", s.GetEmailBy)
	registry.Register("user.updateprofile", s.UpdateProfile)
	registry.Register("user.findprofile", s.FindProfile)
	registry.Register("user.updatedevice", s.UpdateDevice)
	registry.Register("user.setreferralcode", s.SetReferralCode)
	registry.Register("user.echo", s.Echo)
}

// Echo returns the parameters unchanged. Clients use it as a
// reachability probe.
func (s *Service) Echo(ctx context.Context, params rpc.Params) (any, error) {
	return params.Values(), nil
}
