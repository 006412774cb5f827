package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Rehan0707/DocNear/internal/platform/auth"
)

// Audit logs every state-changing API call with the acting user and role.
// Reads are covered by the request logger.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isAuditable(req.Method, req.URL.Path) {
				return next(c)
			}

			err := next(c)

			status := responseStatus(c, err)
			rid, _ := c.Get("request_id").(string)
			ctx := req.Context()

			logger.Info().
				Str("type", "audit").
				Str("request_id", rid).
				Str("user_id", auth.UserIDFromContext(ctx)).
				Str("role", auth.RoleFromContext(ctx)).
				Str("action", auditAction(req.URL.Path)).
				Str("resource_id", c.Param("id")).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", status).
				Msg("audit")

			return err
		}
	}
}

func isAuditable(method, path string) bool {
	if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
		return false
	}
	return strings.HasPrefix(path, "/api/v1/")
}

// auditAction derives a short action name from the path: the last segment
// for doctor actions (confirm, toggle, ...), otherwise the resource name.
//
//	/api/v1/doctor/appointments/<id>/confirm -> confirm
//	/api/v1/patient/appointments             -> appointments
//	/api/v1/auth/signin                      -> signin
func auditAction(path string) string {
	segments := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api/v1/"), "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "unknown"
	}
	return segments[len(segments)-1]
}

// responseStatus is the status the client will see. Errors have not been
// rendered yet when middleware sees them; anything that is not an
// echo.HTTPError becomes a 500 in ErrorHandler.
func responseStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
