package discovery

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Rehan0707/DocNear/internal/domain/identity"
)

// DoctorCard is a roster entry: the doctor row joined with its profile and
// specialization. Bookable mirrors IsAvailable; clients disable booking for
// cards that are not bookable.
type DoctorCard struct {
	ID              uuid.UUID                `json:"id"`
	FullName        string                   `json:"full_name"`
	Email           string                   `json:"email"`
	Phone           *string                  `json:"phone,omitempty"`
	Specialization  *identity.Specialization `json:"specialization,omitempty"`
	ExperienceYears int                      `json:"experience_years"`
	ConsultationFee float64                  `json:"consultation_fee"`
	Address         *string                  `json:"address,omitempty"`
	Latitude        *float64                 `json:"latitude,omitempty"`
	Longitude       *float64                 `json:"longitude,omitempty"`
	IsAvailable     bool                     `json:"is_available"`
	Bookable        bool                     `json:"bookable"`
	CreatedAt       time.Time                `json:"created_at"`
}

// Matches reports whether query occurs, ignoring case, in the doctor's name,
// specialization name or address. An empty query matches every card.
func (d *DoctorCard) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(d.FullName), q) {
		return true
	}
	if d.Specialization != nil && strings.Contains(strings.ToLower(d.Specialization.Name), q) {
		return true
	}
	return d.Address != nil && strings.Contains(strings.ToLower(*d.Address), q)
}

// Filter keeps the cards matching query, preserving their order.
func Filter(cards []*DoctorCard, query string) []*DoctorCard {
	out := make([]*DoctorCard, 0, len(cards))
	for _, c := range cards {
		if c.Matches(query) {
			out = append(out, c)
		}
	}
	return out
}

type Query struct {
	SpecializationID *uuid.UUID
	Text             string
}
