package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/chronos/internal/domain/user"
)

type ctxKey struct{}

// getUserID returns the user every tool call is scoped to.
func getUserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserResolver maps an API key to the user that owns it.
type UserResolver interface {
	ResolveUser(ctx context.Context, token string) (string, error)
}

// Session handshake traffic carries no user data and is let through.
var handshakeMethods = map[string]bool{
	"initialize": true,
	"ping":       true,
}

func isHandshake(method string) bool {
	return handshakeMethods[method] || strings.HasPrefix(method, "notifications/")
}

// apiKeyFrom reads the API key from the request's Authorization header.
func apiKeyFrom(req sdkmcp.Request) string {
	extra := req.GetExtra()
	if extra == nil || extra.Header == nil {
		return ""
	}
	scheme, key, ok := strings.Cut(strings.TrimSpace(extra.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(key)
}

// authMiddleware scopes each call to the user owning the presented API key.
func authMiddleware(resolver UserResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if isHandshake(method) {
				return next(ctx, method, req)
			}

			key := apiKeyFrom(req)
			if key == "" {
				return nil, fmt.Errorf("%w: no api key presented for %s", user.ErrUnauthorized, method)
			}
			userID, err := resolver.ResolveUser(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("%s rejected: %w", method, err)
			}
			if userID == "" {
				return nil, fmt.Errorf("%w: api key has no owner", user.ErrUnauthorized)
			}
			return next(withUserID(ctx, userID), method, req)
		}
	}
}

// noAuthMiddleware runs every call as localUser. Used over stdio and when
// auth is turned off.
func noAuthMiddleware(localUser string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(withUserID(ctx, localUser), method, req)
		}
	}
}
