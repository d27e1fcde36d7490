package middleware

import (
	"context"

	"messease/internal/domain/auth"
)

type ctxKey string

const (
	ctxKeySession   ctxKey = "session"
	ctxKeyRequestID ctxKey = "request_id"
)

func WithSession(ctx context.Context, session auth.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, session)
}

func GetSession(ctx context.Context) (auth.Session, bool) {
	session, ok := ctx.Value(ctxKeySession).(auth.Session)
	return session, ok
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return value
	}
	return ""
}
