package discovery

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Rehan0707/DocNear/internal/platform/auth"
	"github.com/Rehan0707/DocNear/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/specializations", h.ListSpecializations)

	doctors := api.Group("/doctors", auth.RequireRole("patient"))
	doctors.GET("", h.SearchDoctors)
	doctors.GET("/:id", h.GetDoctor)
}

func (h *Handler) ListSpecializations(c echo.Context) error {
	specs, err := h.svc.ListSpecializations(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"specializations": specs})
}

// SearchDoctors accepts ?specialization=<id>&q=<text>&limit=&offset=.
func (h *Handler) SearchDoctors(c echo.Context) error {
	var q Query
	if v := c.QueryParam("specialization"); v != "" && v != "all" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid specialization id")
		}
		q.SpecializationID = &id
	}
	q.Text = c.QueryParam("q")

	page := pagination.FromContext(c)
	cards, total, err := h.svc.Search(c.Request().Context(), q, page)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(cards, total, page))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	card, err := h.svc.GetDoctor(c.Request().Context(), id)
	if errors.Is(err, ErrDoctorNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, card)
}
