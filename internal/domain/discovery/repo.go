package discovery

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Rehan0707/DocNear/internal/domain/identity"
)

var ErrDoctorNotFound = errors.New("doctor not found")

type Repository interface {
	// ListDoctors returns the roster newest first, optionally restricted to
	// one specialization.
	ListDoctors(ctx context.Context, specializationID *uuid.UUID) ([]*DoctorCard, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*DoctorCard, error)
	ListSpecializations(ctx context.Context) ([]*identity.Specialization, error)
}
