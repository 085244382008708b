package requestctx

import "context"

// remoteAddrContextKey is the context key for the caller's network address.
type remoteAddrContextKey struct{}

// WithRemoteAddr stores the caller's remote address in context.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, remoteAddrContextKey{}, addr)
}

// RemoteAddrFromContext returns the remote address stored in context.
func RemoteAddrFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(remoteAddrContextKey{}).(string)
	return value
}
