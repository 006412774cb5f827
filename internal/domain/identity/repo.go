package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CredentialRepository interface {
	// Create returns ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, c *Credential) error
	GetByEmail(ctx context.Context, email string) (*Credential, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	GetByRefreshHash(ctx context.Context, hash string) (*Session, error)
	// Rotate replaces the refresh hash only if it still equals oldHash and
	// the session is not revoked; otherwise it returns ErrSessionExpired.
	Rotate(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
	Revoke(ctx context.Context, id uuid.UUID) error
}

// ProfileRepository covers profiles and the role-extension rows. The Create*
// methods are idempotent.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
	CreateDoctor(ctx context.Context, id uuid.UUID) error
	CreatePatient(ctx context.Context, id uuid.UUID) error
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	UpdateDoctorProfile(ctx context.Context, id uuid.UUID, in DoctorProfileInput) error
	UpdatePatientProfile(ctx context.Context, id uuid.UUID, dob *time.Time, gender, address *string) error
	SpecializationExists(ctx context.Context, id uuid.UUID) (bool, error)
}
