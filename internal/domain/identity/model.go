package identity

import (
	"time"

	"github.com/google/uuid"
)

// Role is the single, immutable role of an identity.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// Credential maps to auth_users.
type Credential struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Session maps to auth_sessions. The raw refresh token is never stored.
type Session struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	UserID           uuid.UUID  `db:"user_id" json:"user_id"`
	RefreshTokenHash string     `db:"refresh_token_hash" json:"-"`
	ExpiresAt        time.Time  `db:"expires_at" json:"expires_at"`
	RevokedAt        *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

type Profile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	UserType  Role      `db:"user_type" json:"user_type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Specialization struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Doctor struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	SpecializationID *uuid.UUID      `db:"specialization_id" json:"specialization_id,omitempty"`
	ExperienceYears  int             `db:"experience_years" json:"experience_years"`
	IsAvailable      bool            `db:"is_available" json:"is_available"`
	Latitude         *float64        `db:"latitude" json:"latitude,omitempty"`
	Longitude        *float64        `db:"longitude" json:"longitude,omitempty"`
	Address          *string         `db:"address" json:"address,omitempty"`
	ConsultationFee  float64         `db:"consultation_fee" json:"consultation_fee"`
	Specialization   *Specialization `json:"specialization,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      *string    `db:"gender" json:"gender,omitempty"`
	Address     *string    `db:"address" json:"address,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Identity is the resolved view of a signed-in user: the profile plus the
// role-extension row. A missing extension row leaves Doctor and Patient nil.
type Identity struct {
	ID      uuid.UUID `json:"id"`
	Email   string    `json:"email"`
	Role    Role      `json:"role"`
	Profile *Profile  `json:"profile"`
	Doctor  *Doctor   `json:"doctor,omitempty"`
	Patient *Patient  `json:"patient,omitempty"`
}

type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResult is returned by every operation that opens or renews a session.
type AuthResult struct {
	SessionID uuid.UUID `json:"session_id"`
	Identity  *Identity `json:"identity"`
	Tokens    Tokens    `json:"tokens"`
}

type SignUpInput struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone,omitempty"`
	Role     Role    `json:"role"`
}

// DoctorProfileInput completes a doctor's listing. Availability is not part
// of it; that is toggled separately.
type DoctorProfileInput struct {
	SpecializationID *uuid.UUID `json:"specialization_id"`
	ExperienceYears  int        `json:"experience_years"`
	Address          string     `json:"address"`
	ConsultationFee  float64    `json:"consultation_fee"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
}

type PatientProfileInput struct {
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	Address     string `json:"address"`
}
