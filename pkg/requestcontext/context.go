// Package requestcontext carries per-call values through context: the pinned
// "now", the correlation id and the caller's client metadata.
//
// Services only read these. Whoever drives them sets them: a transport
// adapter per request, the scheduler per job run, a test per case.
package requestcontext

import (
	"context"
	"time"
)

type key int

const (
	clientIPKey key = iota
	userAgentKey
	requestIDKey
	timeKey
)

func stringValue(ctx context.Context, k key) string {
	s, _ := ctx.Value(k).(string)
	return s
}

// ClientIP is the caller's address, or "".
func ClientIP(ctx context.Context) string {
	return stringValue(ctx, clientIPKey)
}

// UserAgent is the caller's User-Agent header, or "".
func UserAgent(ctx context.Context) string {
	return stringValue(ctx, userAgentKey)
}

func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

// RequestID is the correlation id logged with process events, or "".
func RequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now is the pinned time of ctx, or the wall clock when none is pinned.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(timeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins now. Everything judged within one call or one job run uses
// the same cutoff.
func WithTime(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, timeKey, now)
}
