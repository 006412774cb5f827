package availability

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrDoctorNotFound = errors.New("doctor not found")

// Repository reads and flips the is_available flag of a doctor row.
type Repository interface {
	Get(ctx context.Context, doctorID uuid.UUID) (bool, error)
	// Toggle writes the negation of the stored value and returns the new one.
	Toggle(ctx context.Context, doctorID uuid.UUID) (bool, error)
}
