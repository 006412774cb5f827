package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts a new appointment. The storage layer rejects pending
	// bookings for unavailable doctors with ErrDoctorUnavailable.
	Create(ctx context.Context, a *Appointment) error
	// CreateDemo inserts a sample appointment. Demo rows are exempt from the
	// availability check so a freshly registered doctor still gets them.
	CreateDemo(ctx context.Context, a *Appointment) error
	// GetForParty returns the appointment only if partyID is its patient or
	// its doctor.
	GetForParty(ctx context.Context, id, partyID uuid.UUID) (*Appointment, error)
	GetForDoctor(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error)
	// UpdateStatus writes to only while the stored status is still from.
	// A row that has moved on yields ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	// MarkOTPVerified sets otp_verified on a confirmed appointment.
	MarkOTPVerified(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Listing, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Listing, error)
	// FirstPatients returns up to limit patient ids in signup order.
	FirstPatients(ctx context.Context, limit int) ([]uuid.UUID, error)
}
