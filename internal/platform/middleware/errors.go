package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
}

type redirector interface {
	RedirectTo() string
}

// ErrorHandler renders errors as ErrorBody. Details of 5xx errors that did
// not come from an explicit echo.HTTPError are never sent to the client;
// they are logged and reported to Sentry instead.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		body := ErrorBody{Error: http.StatusText(code)}
		body.RequestID, _ = c.Get("request_id").(string)
		cause := err

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			switch m := he.Message.(type) {
			case string:
				body.Error = m
			case redirector:
				body.Redirect = m.RedirectTo()
				body.Error = fmt.Sprint(m)
			case error:
				body.Error = m.Error()
			default:
				body.Error = fmt.Sprint(m)
			}
			if he.Internal != nil {
				cause = he.Internal
			}
		} else {
			body.Error = "internal server error"
		}

		if code >= http.StatusInternalServerError {
			logger.Error().Err(cause).
				Str("request_id", body.RequestID).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", code).
				Msg("request failed")

			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetTag("request_id", body.RequestID)
			hub.Scope().SetRequest(c.Request())
			hub.CaptureException(cause)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
