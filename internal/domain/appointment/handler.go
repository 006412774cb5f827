package appointment

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	patient := api.Group("/patient/appointments", auth.RequireRole("patient"))
	patient.POST("", h.Book)
	patient.GET("", h.ListPatient)
	patient.GET("/:id", h.GetPatient)

	api.GET("/doctor/dashboard", h.DoctorBoard, auth.RequireRole("doctor"))
	doctor := api.Group("/doctor/appointments", auth.RequireRole("doctor"))
	doctor.POST("/:id/confirm", h.action(ActionConfirm))
	doctor.POST("/:id/reject", h.action(ActionReject))
	doctor.POST("/:id/complete", h.action(ActionComplete))
	doctor.POST("/:id/verify-otp", h.VerifyOTP)
}

type verifyOTPRequest struct {
	OTP string `json:"otp"`
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	return id, nil
}

func (h *Handler) Book(c echo.Context) error {
	patientID, err := callerID(c)
	if err != nil {
		return err
	}
	var req BookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Book(c.Request().Context(), patientID, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, patientView(a))
}

func (h *Handler) ListPatient(c echo.Context) error {
	patientID, err := callerID(c)
	if err != nil {
		return err
	}
	list, err := h.svc.PatientAppointments(c.Request().Context(), patientID)
	if err != nil {
		return mapError(err)
	}
	out := make([]*Listing, len(list))
	for i, l := range list {
		cp := *l
		cp.Appointment = *patientView(&l.Appointment)
		out[i] = &cp
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"appointments": out})
}

func (h *Handler) GetPatient(c echo.Context) error {
	patientID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	a, err := h.svc.Get(c.Request().Context(), patientID, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, patientView(a))
}

func (h *Handler) DoctorBoard(c echo.Context) error {
	doctorID, err := callerID(c)
	if err != nil {
		return err
	}
	board, err := h.svc.DoctorBoard(c.Request().Context(), doctorID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, doctorView(board))
}

func (h *Handler) action(action Action) echo.HandlerFunc {
	return func(c echo.Context) error {
		doctorID, err := callerID(c)
		if err != nil {
			return err
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
		}
		board, err := h.svc.Apply(c.Request().Context(), doctorID, id, action)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(http.StatusOK, doctorView(board))
	}
}

func (h *Handler) VerifyOTP(c echo.Context) error {
	doctorID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	board, err := h.svc.VerifyOTP(c.Request().Context(), doctorID, id, req.OTP)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, doctorView(board))
}

// patientView shows the OTP only once the appointment is confirmed.
func patientView(a *Appointment) *Appointment {
	cp := *a
	if cp.Status != StatusConfirmed {
		cp.OTP = nil
	}
	return &cp
}

// doctorView never carries OTPs; the doctor learns the code from the patient.
func doctorView(b *Board) *Board {
	out := &Board{DoctorID: b.DoctorID, Stats: b.Stats, Appointments: make([]*Listing, len(b.Appointments))}
	for i, l := range b.Appointments {
		cp := *l
		cp.OTP = nil
		out.Appointments[i] = &cp
	}
	return out
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrDoctorUnavailable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrOTPMismatch):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
