// Package dispatch routes JSON-RPC method names to registered handlers.
//
// Method names are "model.method" pairs; the registry is assembled once at
// startup and read-only afterwards.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/louisbranch/accountgate/internal/platform/errors"
	"github.com/louisbranch/accountgate/internal/services/gateway/rpc"
)

// Handler executes one RPC method.
type Handler func(ctx context.Context, params rpc.Params) (any, error)

// Registry maps fully qualified method names to handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to a "model.method" name. Registering a
// malformed name or a duplicate is a programming error and panics during
// startup wiring.
func (r *Registry) Register(name string, handler Handler) {
	model, method, ok := strings.Cut(name, ".")
	if !ok || model == "" || method == "" {
		panic(fmt.Sprintf("dispatch: method name %q is not model.method", name))
	}
	if handler == nil {
		panic(fmt.Sprintf("dispatch: handler for %q is nil", name))
	}
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("dispatch: method %q registered twice", name))
	}
	r.handlers[name] = handler
}

// Resolve returns the handler for a method name.
func (r *Registry) Resolve(name string) (Handler, error) {
	handler, found := r.handlers[name]
	if !found {
		return nil, apperrors.WithMetadata(apperrors.CodeMethodNotFound,
			fmt.Sprintf("method %q does not exist", name),
			map[string]string{"method": name})
	}
	return handler, nil
}

// Has reports whether a method name is registered.
func (r *Registry) Has(name string) bool {
	_, found := r.handlers[name]
	return found
}

// Methods returns every registered method name in sorted order.
func (r *Registry) Methods() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
