// Package net holds the request scoped values shared by the HTTP stack
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type callerKey struct{}

// WithRequestID stores id where chi's RequestID middleware would
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, id)
}

// RequestID returns the chi request id, or ""
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// WithCaller records who authenticated the request
func WithCaller(ctx context.Context, caller string) context.Context {
	if caller == "" {
		return ctx
	}
	return context.WithValue(ctx, callerKey{}, caller)
}

// Caller returns the authenticated caller, or "" on open routes
func Caller(ctx context.Context) string {
	s, _ := ctx.Value(callerKey{}).(string)
	return s
}
