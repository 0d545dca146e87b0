// Package auth defines the identity-resolution contract the engine's callers
// use. Verifying credentials is an external concern; the engine itself only
// ever sees an explicit principal id.
package auth

import (
	"context"
	"fmt"
)

// Principal represents an authenticated user or entity.
type Principal struct {
	ID string
}

// ErrorType represents the type of authentication error.
type ErrorType string

const (
	ErrUnauthorized ErrorType = "unauthorized"
	ErrForbidden    ErrorType = "forbidden"
)

// Error represents an authentication-related error.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Resolver returns the principal for the in-flight request, failing when
// none is established.
type Resolver interface {
	CurrentPrincipal(ctx context.Context) (*Principal, error)
}

// Static resolves every request to one fixed principal. Useful for CLIs and
// tests.
type Static struct {
	ID string
}

func (s Static) CurrentPrincipal(_ context.Context) (*Principal, error) {
	if s.ID == "" {
		return nil, &Error{Type: ErrUnauthorized, Message: "no principal established"}
	}
	return &Principal{ID: s.ID}, nil
}

type contextKey string

const principalContextKey contextKey = "principal"

// WithPrincipal stores the principal in the context for transport layers
// that carry identity that way.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// ContextResolver resolves the principal previously stored with
// WithPrincipal.
type ContextResolver struct{}

func (ContextResolver) CurrentPrincipal(ctx context.Context) (*Principal, error) {
	if p, ok := ctx.Value(principalContextKey).(*Principal); ok && p != nil {
		return p, nil
	}
	return nil, &Error{Type: ErrUnauthorized, Message: "no principal established"}
}
