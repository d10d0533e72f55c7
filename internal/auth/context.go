package auth

import (
	"context"
	"errors"
)

type ctxKey int

const ctxPrincipal ctxKey = iota

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipal, p)
}

// PrincipalFromContext returns the authenticated principal, or an error if
// the request never passed token verification.
func PrincipalFromContext(ctx context.Context) (Principal, error) {
	v := ctx.Value(ctxPrincipal)
	if p, ok := v.(Principal); ok && p.UserID != "" {
		return p, nil
	}
	return Principal{}, errors.New("principal not in context")
}

func FirmID(ctx context.Context) (string, error) {
	p, err := PrincipalFromContext(ctx)
	if err != nil || p.FirmID == "" {
		return "", errors.New("firm_id not in context")
	}
	return p.FirmID, nil
}

func UserID(ctx context.Context) (string, error) {
	p, err := PrincipalFromContext(ctx)
	if err != nil {
		return "", errors.New("user_id not in context")
	}
	return p.UserID, nil
}

type clientIPKey struct{}

// WithClientIP attaches the resolved client IP so audit writers deep in the
// decision path can record it without depending on the HTTP layer.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func ClientIPFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(clientIPKey{}).(string); ok {
		return s
	}
	return ""
}
