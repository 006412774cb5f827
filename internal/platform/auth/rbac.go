package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// LandingRoute is where clients without a session are sent.
const LandingRoute = "/"

var loginRoutes = map[string]string{
	"doctor":  "/doctor/login",
	"patient": "/patient/login",
}

// LoginRoute returns the login route for a role, or the landing route for
// unknown roles.
func LoginRoute(role string) string {
	if r, ok := loginRoutes[role]; ok {
		return r
	}
	return LandingRoute
}

// RedirectError is an HTTP error message that tells the client where to go.
type RedirectError struct {
	Message string `json:"error"`
	Route   string `json:"redirect"`
}

func (e *RedirectError) Error() string { return e.Message }

func (e *RedirectError) RedirectTo() string { return e.Route }

// RequireRole returns middleware that admits only sessions holding one of the
// given roles. Anonymous callers get 401 with the landing route; callers
// signed in under another role get 403 with the login route of the first
// required role.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if UserIDFromContext(ctx) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, &RedirectError{
					Message: "authentication required",
					Route:   LandingRoute,
				})
			}

			has := RoleFromContext(ctx)
			for _, required := range roles {
				if has == required {
					return next(c)
				}
			}

			route := LandingRoute
			if len(roles) > 0 {
				route = LoginRoute(roles[0])
			}
			return echo.NewHTTPError(http.StatusForbidden, &RedirectError{
				Message: fmt.Sprintf("required role: %s", strings.Join(roles, " or ")),
				Route:   route,
			})
		}
	}
}

// RequireSession admits any signed-in caller regardless of role.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserIDFromContext(c.Request().Context()) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, &RedirectError{
					Message: "authentication required",
					Route:   LandingRoute,
				})
			}
			return next(c)
		}
	}
}
