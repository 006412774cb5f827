package identity

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Rehan0707/DocNear/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the auth and profile routes. credentialMW wraps the
// endpoints that accept credentials or refresh tokens (rate limiting).
func (h *Handler) RegisterRoutes(api *echo.Group, credentialMW ...echo.MiddlewareFunc) {
	authGroup := api.Group("/auth")
	authGroup.POST("/signup", h.SignUp, credentialMW...)
	authGroup.POST("/signin", h.SignIn, credentialMW...)
	authGroup.POST("/refresh", h.Refresh, credentialMW...)
	authGroup.GET("/session", h.Session)
	authGroup.POST("/signout", h.SignOut, auth.RequireSession())
	authGroup.GET("/me", h.Me, auth.RequireSession())

	api.PUT("/doctor/profile", h.CompleteDoctorProfile, auth.RequireRole(string(RoleDoctor)))
	api.PUT("/patient/profile", h.UpdatePatientProfile, auth.RequireRole(string(RolePatient)))
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// sessionResponse is the bootstrap payload. Without a session the identity
// is null and the client is sent to the landing route.
type sessionResponse struct {
	Identity *Identity `json:"identity"`
	Redirect string    `json:"redirect,omitempty"`
}

func anonymous() sessionResponse {
	return sessionResponse{Identity: nil, Redirect: auth.LandingRoute}
}

func (h *Handler) SignUp(c echo.Context) error {
	var in SignUpInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.SignUp(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return authError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return authError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return authError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) SignOut(c echo.Context) error {
	sid, err := uuid.Parse(auth.SessionIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	if err := h.svc.SignOut(c.Request().Context(), sid); err != nil {
		return internalError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Session is the bootstrap endpoint. It never fails for anonymous callers.
func (h *Handler) Session(c echo.Context) error {
	ctx := c.Request().Context()
	uid, uidErr := uuid.Parse(auth.UserIDFromContext(ctx))
	sid, sidErr := uuid.Parse(auth.SessionIDFromContext(ctx))
	if uidErr != nil || sidErr != nil {
		return c.JSON(http.StatusOK, anonymous())
	}

	ident, err := h.svc.Current(ctx, sid, uid)
	if err != nil {
		return internalError(err)
	}
	if ident == nil {
		return c.JSON(http.StatusOK, anonymous())
	}
	return c.JSON(http.StatusOK, sessionResponse{Identity: ident})
}

func (h *Handler) Me(c echo.Context) error {
	uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	ident, err := h.svc.RefreshUser(c.Request().Context(), uid)
	if err != nil {
		return internalError(err)
	}
	if ident == nil {
		return c.JSON(http.StatusOK, anonymous())
	}
	return c.JSON(http.StatusOK, sessionResponse{Identity: ident})
}

func (h *Handler) CompleteDoctorProfile(c echo.Context) error {
	uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	var in DoctorProfileInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ident, err := h.svc.CompleteDoctorProfile(c.Request().Context(), uid, in)
	if err != nil {
		return profileError(err)
	}
	return c.JSON(http.StatusOK, sessionResponse{Identity: ident})
}

func (h *Handler) UpdatePatientProfile(c echo.Context) error {
	uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	var in PatientProfileInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ident, err := h.svc.UpdatePatientProfile(c.Request().Context(), uid, in)
	if err != nil {
		return profileError(err)
	}
	return c.JSON(http.StatusOK, sessionResponse{Identity: ident})
}

func internalError(err error) error {
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

// authError surfaces credential and session errors verbatim.
func authError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrSessionExpired):
		return echo.NewHTTPError(http.StatusUnauthorized, &auth.RedirectError{
			Message: err.Error(),
			Route:   auth.LandingRoute,
		})
	case IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return internalError(err)
	}
}

func profileError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	case IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return internalError(err)
	}
}
