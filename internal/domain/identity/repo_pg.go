package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rehan0707/DocNear/internal/platform/db"
)

// =========== Credential Repository ===========

type credentialRepoPG struct{ pool *pgxpool.Pool }

func NewCredentialRepoPG(pool *pgxpool.Pool) CredentialRepository {
	return &credentialRepoPG{pool: pool}
}

func (r *credentialRepoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *credentialRepoPG) Create(ctx context.Context, c *Credential) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO auth_users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		c.ID, c.Email, c.PasswordHash).Scan(&c.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *credentialRepoPG) GetByEmail(ctx context.Context, email string) (*Credential, error) {
	var c Credential
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM auth_users WHERE LOWER(email) = LOWER($1)`, email).
		Scan(&c.ID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// =========== Session Repository ===========

type sessionRepoPG struct{ pool *pgxpool.Pool }

func NewSessionRepoPG(pool *pgxpool.Pool) SessionRepository { return &sessionRepoPG{pool: pool} }

func (r *sessionRepoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const sessionCols = `id, user_id, refresh_token_hash, expires_at, revoked_at, created_at`

func (r *sessionRepoPG) scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepoPG) Create(ctx context.Context, s *Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO auth_sessions (id, user_id, refresh_token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		s.ID, s.UserID, s.RefreshTokenHash, s.ExpiresAt).Scan(&s.CreatedAt)
}

func (r *sessionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	return r.scanSession(r.conn(ctx).QueryRow(ctx, `SELECT `+sessionCols+` FROM auth_sessions WHERE id = $1`, id))
}

func (r *sessionRepoPG) GetByRefreshHash(ctx context.Context, hash string) (*Session, error) {
	return r.scanSession(r.conn(ctx).QueryRow(ctx,
		`SELECT `+sessionCols+` FROM auth_sessions WHERE refresh_token_hash = $1`, hash))
}

func (r *sessionRepoPG) Rotate(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE auth_sessions SET refresh_token_hash = $3, expires_at = $4
		WHERE id = $1 AND refresh_token_hash = $2 AND revoked_at IS NULL AND expires_at > NOW()`,
		id, oldHash, newHash, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionExpired
	}
	return nil
}

func (r *sessionRepoPG) Revoke(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE auth_sessions SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`, id)
	return err
}

// =========== Profile Repository ===========

type profileRepoPG struct{ pool *pgxpool.Pool }

func NewProfileRepoPG(pool *pgxpool.Pool) ProfileRepository { return &profileRepoPG{pool: pool} }

func (r *profileRepoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *profileRepoPG) CreateProfile(ctx context.Context, p *Profile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO profiles (id, email, full_name, phone, user_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Email, p.FullName, p.Phone, string(p.UserType))
	return err
}

func (r *profileRepoPG) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var p Profile
	var role string
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, email, full_name, phone, user_type, created_at, updated_at
		FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.Email, &p.FullName, &p.Phone, &role, &p.CreatedAt, &p.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.UserType = Role(role)
	return &p, nil
}

func (r *profileRepoPG) CreateDoctor(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `INSERT INTO doctors (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
	return err
}

func (r *profileRepoPG) CreatePatient(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `INSERT INTO patients (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
	return err
}

func (r *profileRepoPG) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	var d Doctor
	var specID *uuid.UUID
	var specName *string
	var specCreated *time.Time
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT d.id, d.specialization_id, d.experience_years, d.is_available,
			d.latitude, d.longitude, d.address, d.consultation_fee, d.created_at, d.updated_at,
			s.id, s.name, s.created_at
		FROM doctors d
		LEFT JOIN specializations s ON s.id = d.specialization_id
		WHERE d.id = $1`, id).
		Scan(&d.ID, &d.SpecializationID, &d.ExperienceYears, &d.IsAvailable,
			&d.Latitude, &d.Longitude, &d.Address, &d.ConsultationFee, &d.CreatedAt, &d.UpdatedAt,
			&specID, &specName, &specCreated)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if specID != nil && specName != nil {
		d.Specialization = &Specialization{ID: *specID, Name: *specName}
		if specCreated != nil {
			d.Specialization.CreatedAt = *specCreated
		}
	}
	return &d, nil
}

func (r *profileRepoPG) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, date_of_birth, gender, address, created_at, updated_at
		FROM patients WHERE id = $1`, id).
		Scan(&p.ID, &p.DateOfBirth, &p.Gender, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepoPG) UpdateDoctorProfile(ctx context.Context, id uuid.UUID, in DoctorProfileInput) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET specialization_id = $2, experience_years = $3, address = $4,
			consultation_fee = $5, latitude = $6, longitude = $7
		WHERE id = $1`,
		id, in.SpecializationID, in.ExperienceYears, in.Address, in.ConsultationFee, in.Latitude, in.Longitude)
	if err != nil {
		return fmt.Errorf("update doctor %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *profileRepoPG) UpdatePatientProfile(ctx context.Context, id uuid.UUID, dob *time.Time, gender, address *string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET date_of_birth = $2, gender = $3, address = $4
		WHERE id = $1`, id, dob, gender, address)
	if err != nil {
		return fmt.Errorf("update patient %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *profileRepoPG) SpecializationExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM specializations WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
