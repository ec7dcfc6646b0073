// Package requestcontext carries request-scoped values from HTTP middleware
// into services without services importing net/http.
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"
)

// Metadata describes the caller of the current request. Audit events copy it
// verbatim.
type Metadata struct {
	RequestID string
	ClientIP  string
	// UserAgent is the summarised browser/OS string, not the raw header.
	UserAgent string
}

type (
	metadataKey    struct{}
	requestTimeKey struct{}
)

// MetadataFrom returns the caller metadata, zero-valued outside a request.
func MetadataFrom(ctx context.Context) Metadata {
	if md, ok := ctx.Value(metadataKey{}).(Metadata); ok {
		return md
	}
	return Metadata{}
}

// WithMetadata replaces the caller metadata.
func WithMetadata(ctx context.Context, md Metadata) context.Context {
	return context.WithValue(ctx, metadataKey{}, md)
}

func RequestID(ctx context.Context) string { return MetadataFrom(ctx).RequestID }
func ClientIP(ctx context.Context) string  { return MetadataFrom(ctx).ClientIP }
func UserAgent(ctx context.Context) string { return MetadataFrom(ctx).UserAgent }

// WithRequestID sets the request id and keeps any client metadata already present.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	md := MetadataFrom(ctx)
	md.RequestID = requestID
	return WithMetadata(ctx, md)
}

// WithClientMetadata sets client IP and User-Agent and keeps the request id.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	md := MetadataFrom(ctx)
	md.ClientIP = clientIP
	md.UserAgent = userAgent
	return WithMetadata(ctx, md)
}

// Now returns the request-scoped clock. Every timestamp written during one
// request (profile createdAt, session expiry, audit events) comes from here.
// Falls back to time.Now() outside a request.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
