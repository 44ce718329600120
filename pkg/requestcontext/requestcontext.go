// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services read them, tests inject
// them without running the HTTP chain.
package requestcontext

import (
	"context"
	"time"
)

// Actor identifies the authenticated principal performing a request, together
// with the permissions resolved from its role.
type Actor struct {
	ID          string
	Name        string
	Role        string
	Permissions []string
}

type (
	actorKey       struct{}
	requestIDKey   struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestTimeKey struct{}
)

// WithActor injects the authenticated actor into the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom retrieves the authenticated actor. The zero Actor means anonymous.
func ActorFrom(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Actor{}
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID retrieves the correlation ID, or "" when unset.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent, mirroring what the
// metadata middleware extracts from the request.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

// ClientIP retrieves the client IP address, or "" when unset.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the raw User-Agent header, or "" when unset.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// DeviceInfo is the parsed User-Agent triple recorded on audit entries.
type DeviceInfo struct {
	Device  string
	Browser string
	OS      string
}

type deviceInfoKey struct{}

// WithDeviceInfo injects the parsed User-Agent details into the context.
func WithDeviceInfo(ctx context.Context, info DeviceInfo) context.Context {
	return context.WithValue(ctx, deviceInfoKey{}, info)
}

// DeviceInfoFrom retrieves the parsed User-Agent details, zero when unset.
func DeviceInfoFrom(ctx context.Context) DeviceInfo {
	if info, ok := ctx.Value(deviceInfoKey{}).(DeviceInfo); ok {
		return info
	}
	return DeviceInfo{}
}

// WithTime pins the request time. Tests use it to make timestamps deterministic.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the pinned request time, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
