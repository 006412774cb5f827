package availability

import (
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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/doctor/availability", auth.RequireRole("doctor"))
	g.GET("", h.Get)
	g.POST("/toggle", h.Toggle)
}

type availabilityResponse struct {
	DoctorID    uuid.UUID `json:"doctor_id"`
	IsAvailable bool      `json:"is_available"`
}

func (h *Handler) Get(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	available, err := h.svc.Get(c.Request().Context(), doctorID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, availabilityResponse{DoctorID: doctorID, IsAvailable: available})
}

func (h *Handler) Toggle(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	available, err := h.svc.Toggle(c.Request().Context(), doctorID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, availabilityResponse{DoctorID: doctorID, IsAvailable: available})
}

func mapError(err error) error {
	if IsNotFound(err) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor profile not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}
