package appointment

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Rehan0707/DocNear/internal/domain/availability"
	"github.com/Rehan0707/DocNear/internal/platform/websocket"
)

const EventAppointmentChanged = "appointment_changed"

// Gate answers whether a doctor currently accepts bookings.
type Gate interface {
	IsBookable(ctx context.Context, doctorID uuid.UUID) (bool, error)
}

type Service struct {
	repo   Repository
	gate   Gate
	events websocket.EventPublisher
	logger zerolog.Logger
	otp    func() (string, error)
	now    func() time.Time
}

func NewService(repo Repository, gate Gate, events websocket.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		gate:   gate,
		events: events,
		logger: logger,
		otp:    GenerateOTP,
		now:    time.Now,
	}
}

// -- Booking --

func validateBooking(req *BookingRequest) error {
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Symptoms = strings.TrimSpace(req.Symptoms)
	if req.DoctorID == uuid.Nil {
		return invalid("doctor_id is required")
	}
	if req.Date == "" {
		return invalid("appointment_date is required")
	}
	if req.Time == "" {
		return invalid("appointment_time is required")
	}
	if req.Symptoms == "" {
		return invalid("symptoms are required")
	}
	return nil
}

// Book creates a pending appointment with a freshly drawn OTP. Date, time and
// symptoms are stored as given; no slot conflict check is made.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, req BookingRequest) (*Appointment, error) {
	if err := validateBooking(&req); err != nil {
		return nil, err
	}

	bookable, err := s.gate.IsBookable(ctx, req.DoctorID)
	if errors.Is(err, availability.ErrDoctorNotFound) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if !bookable {
		return nil, ErrDoctorUnavailable
	}

	code, err := s.otp()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	symptoms := req.Symptoms
	a := &Appointment{
		ID:        uuid.New(),
		PatientID: patientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
		Status:    StatusPending,
		OTP:       &code,
		Symptoms:  &symptoms,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor_id", a.DoctorID.String()).
		Str("patient_id", a.PatientID.String()).
		Msg("appointment booked")
	s.publish(ctx, a)
	return a, nil
}

// -- Doctor actions --

func (s *Service) Confirm(ctx context.Context, doctorID, appointmentID uuid.UUID) (*Board, error) {
	return s.transition(ctx, doctorID, appointmentID, ActionConfirm)
}

func (s *Service) Reject(ctx context.Context, doctorID, appointmentID uuid.UUID) (*Board, error) {
	return s.transition(ctx, doctorID, appointmentID, ActionReject)
}

func (s *Service) Complete(ctx context.Context, doctorID, appointmentID uuid.UUID) (*Board, error) {
	return s.transition(ctx, doctorID, appointmentID, ActionComplete)
}

// Apply runs action on the appointment and returns the refreshed board.
func (s *Service) Apply(ctx context.Context, doctorID, appointmentID uuid.UUID, action Action) (*Board, error) {
	if !action.Valid() {
		return nil, invalid("unknown action %q", action)
	}
	return s.transition(ctx, doctorID, appointmentID, action)
}

func (s *Service) transition(ctx context.Context, doctorID, appointmentID uuid.UUID, action Action) (*Board, error) {
	current, err := s.repo.GetForDoctor(ctx, appointmentID, doctorID)
	if err != nil {
		return nil, err
	}
	to, err := Next(current.Status, action)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateStatus(ctx, appointmentID, current.Status, to)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", appointmentID.String()).
		Str("from", string(current.Status)).
		Str("to", string(to)).
		Msg("appointment status changed")
	s.publish(ctx, updated)
	return s.DoctorBoard(ctx, doctorID)
}

// VerifyOTP checks the code a patient presents at the visit. Only confirmed
// appointments can be verified; verifying twice is a no-op. The status is
// left alone.
func (s *Service) VerifyOTP(ctx context.Context, doctorID, appointmentID uuid.UUID, code string) (*Board, error) {
	a, err := s.repo.GetForDoctor(ctx, appointmentID, doctorID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusConfirmed {
		return nil, &TransitionError{From: a.Status, Action: ActionVerifyOTP}
	}
	code = strings.TrimSpace(code)
	if !ValidOTP(code) {
		return nil, invalid("otp must be 6 digits")
	}
	if a.OTP == nil || subtle.ConstantTimeCompare([]byte(*a.OTP), []byte(code)) != 1 {
		return nil, ErrOTPMismatch
	}

	if !a.OTPVerified {
		updated, err := s.repo.MarkOTPVerified(ctx, appointmentID)
		if err != nil {
			return nil, err
		}
		s.logger.Info().Str("appointment_id", appointmentID.String()).Msg("otp verified")
		s.publish(ctx, updated)
	}
	return s.DoctorBoard(ctx, doctorID)
}

// -- Queries --

// DoctorBoard refetches every appointment of the doctor and recounts.
func (s *Service) DoctorBoard(ctx context.Context, doctorID uuid.UUID) (*Board, error) {
	list, err := s.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list doctor appointments: %w", err)
	}
	if list == nil {
		list = []*Listing{}
	}
	return &Board{DoctorID: doctorID, Appointments: list, Stats: ComputeStats(list)}, nil
}

func (s *Service) PatientAppointments(ctx context.Context, patientID uuid.UUID) ([]*Listing, error) {
	list, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	if list == nil {
		list = []*Listing{}
	}
	return list, nil
}

// Get returns the appointment when callerID is one of its parties.
func (s *Service) Get(ctx context.Context, callerID, appointmentID uuid.UUID) (*Appointment, error) {
	return s.repo.GetForParty(ctx, appointmentID, callerID)
}

// publish tells both parties that the appointment changed. The OTP is never
// part of the event.
func (s *Service) publish(ctx context.Context, a *Appointment) {
	if s.events == nil {
		return
	}
	payload := *a
	payload.OTP = nil
	for _, uid := range []uuid.UUID{a.PatientID, a.DoctorID} {
		ev, err := websocket.NewEvent(EventAppointmentChanged, websocket.UserTopic(uid.String()), a.ID.String(), payload)
		if err == nil {
			err = s.events.Publish(ctx, ev)
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).Msg("publish appointment change")
		}
	}
}
