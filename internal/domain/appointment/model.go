package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
)

// Appointment maps to the appointments table. Date and time are free-form
// strings stored exactly as submitted. Only Status, OTP and OTPVerified
// change after creation.
type Appointment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date        string    `db:"appointment_date" json:"appointment_date"`
	Time        string    `db:"appointment_time" json:"appointment_time"`
	Status      Status    `db:"status" json:"status"`
	OTP         *string   `db:"otp" json:"otp,omitempty"`
	OTPVerified bool      `db:"otp_verified" json:"otp_verified"`
	Symptoms    *string   `db:"symptoms" json:"symptoms,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Listing is an appointment joined with the names of the other party.
type Listing struct {
	Appointment
	PatientName    string  `json:"patient_name,omitempty"`
	PatientPhone   *string `json:"patient_phone,omitempty"`
	DoctorName     string  `json:"doctor_name,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
}

type BookingRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"appointment_date"`
	Time     string    `json:"appointment_time"`
	Symptoms string    `json:"symptoms"`
}

// Stats are recomputed from the full list on every fetch.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Rejected  int `json:"rejected"`
}

func ComputeStats(list []*Listing) Stats {
	st := Stats{Total: len(list)}
	for _, l := range list {
		switch l.Status {
		case StatusPending:
			st.Pending++
		case StatusConfirmed:
			st.Confirmed++
		case StatusCompleted:
			st.Completed++
		case StatusRejected:
			st.Rejected++
		}
	}
	return st
}

// Board is the doctor dashboard: the doctor's appointments ordered by date
// then time, plus their counts.
type Board struct {
	DoctorID     uuid.UUID  `json:"doctor_id"`
	Appointments []*Listing `json:"appointments"`
	Stats        Stats      `json:"stats"`
}
