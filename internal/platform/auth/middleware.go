package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRoleKey  contextKey = "user_role"
	SessionIDKey contextKey = "session_id"
)

// SessionChecker reports whether a server-side session is still active.
type SessionChecker interface {
	SessionActive(ctx context.Context, sessionID string) (bool, error)
}

// Authenticate resolves the bearer token, if any, into an identity on the
// request context. Requests without a token continue anonymously so public
// routes and the session bootstrap work; role gating is done by RequireRole.
// Expired or unverifiable tokens and tokens of revoked sessions are treated
// as anonymous, so gated routes answer with a redirect to the landing route.
func Authenticate(issuer *TokenIssuer, sessions SessionChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := issuer.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				return next(c)
			}

			ctx := c.Request().Context()
			if sessions != nil {
				active, err := sessions.SessionActive(ctx, claims.SessionID)
				if err != nil {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "session lookup failed").SetInternal(err)
				}
				if !active {
					return next(c)
				}
			}

			c.SetRequest(c.Request().WithContext(WithIdentity(ctx, claims.Subject, claims.Role, claims.SessionID)))
			return next(c)
		}
	}
}

// WithIdentity returns a copy of ctx carrying the authenticated user.
func WithIdentity(ctx context.Context, userID, role, sessionID string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	ctx = context.WithValue(ctx, SessionIDKey, sessionID)
	return ctx
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

func SessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(SessionIDKey).(string)
	return sid
}
