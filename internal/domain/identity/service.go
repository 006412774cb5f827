package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Rehan0707/DocNear/internal/platform/auth"
	"github.com/Rehan0707/DocNear/internal/platform/db"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validGenders = map[string]bool{
	"male": true, "female": true, "other": true,
}

const (
	minPasswordLen = 6
	minNameLen     = 2
	minAddressLen  = 5
	maxExperience  = 100
)

type Service struct {
	tx         db.Transactor
	creds      CredentialRepository
	sessions   SessionRepository
	profiles   ProfileRepository
	tokens     *auth.TokenIssuer
	refreshTTL time.Duration
	observers  *Observers
	logger     zerolog.Logger
	now        func() time.Time
}

func NewService(tx db.Transactor, creds CredentialRepository, sessions SessionRepository, profiles ProfileRepository,
	tokens *auth.TokenIssuer, refreshTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		tx:         tx,
		creds:      creds,
		sessions:   sessions,
		profiles:   profiles,
		tokens:     tokens,
		refreshTTL: refreshTTL,
		observers:  NewObservers(),
		logger:     logger,
		now:        time.Now,
	}
}

// Subscribe registers fn for every session change and returns a function
// that removes it.
func (s *Service) Subscribe(fn func(SessionEvent)) (unsubscribe func()) {
	return s.observers.Subscribe(fn)
}

func (s *Service) notify(typ SessionEventType, userID, sessionID uuid.UUID, ident *Identity) {
	s.observers.Notify(SessionEvent{
		Type:      typ,
		UserID:    userID,
		SessionID: sessionID,
		Identity:  ident,
		At:        s.now().UTC(),
	})
}

// -- Credentials --

func validateSignUp(in SignUpInput) error {
	if !emailPattern.MatchString(in.Email) {
		return invalid("please enter a valid email address")
	}
	if len(in.Password) < minPasswordLen {
		return invalid("password must be at least %d characters", minPasswordLen)
	}
	if len([]rune(in.FullName)) < minNameLen {
		return invalid("full name must be at least %d characters", minNameLen)
	}
	if !in.Role.Valid() {
		return invalid("role must be %q or %q", RolePatient, RoleDoctor)
	}
	return nil
}

// SignUp provisions credential, profile and exactly one role-extension row in
// a single transaction, then opens a session.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validateSignUp(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	cred := &Credential{ID: uuid.New(), Email: in.Email, PasswordHash: hash}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.creds.Create(ctx, cred); err != nil {
			return err
		}
		profile := &Profile{
			ID:       cred.ID,
			Email:    in.Email,
			FullName: in.FullName,
			Phone:    in.Phone,
			UserType: in.Role,
		}
		if err := s.profiles.CreateProfile(ctx, profile); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return s.ensureExtension(ctx, cred.ID, in.Role)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", cred.ID.String()).Str("role", string(in.Role)).Msg("account created")
	return s.openSession(ctx, cred.ID)
}

func (s *Service) ensureExtension(ctx context.Context, userID uuid.UUID, role Role) error {
	switch role {
	case RoleDoctor:
		if err := s.profiles.CreateDoctor(ctx, userID); err != nil {
			return fmt.Errorf("create doctor row: %w", err)
		}
	case RolePatient:
		if err := s.profiles.CreatePatient(ctx, userID); err != nil {
			return fmt.Errorf("create patient row: %w", err)
		}
	default:
		return invalid("unknown role %q", role)
	}
	return nil
}

// SignIn verifies the password and opens a session. Identities left without
// their extension row by an older, non-transactional signup are repaired here.
func (s *Service) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	cred, err := s.creds.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up credential: %w", err)
	}
	if !auth.CheckPassword(cred.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if err := s.repairExtension(ctx, cred.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", cred.ID.String()).Msg("extension row repair failed")
	}
	return s.openSession(ctx, cred.ID)
}

func (s *Service) repairExtension(ctx context.Context, userID uuid.UUID) error {
	ident, err := s.Resolve(ctx, userID)
	if err != nil || ident == nil {
		return err
	}
	if (ident.Role == RoleDoctor && ident.Doctor == nil) || (ident.Role == RolePatient && ident.Patient == nil) {
		s.logger.Info().Str("user_id", userID.String()).Str("role", string(ident.Role)).Msg("repairing missing extension row")
		return s.ensureExtension(ctx, userID, ident.Role)
	}
	return nil
}

func (s *Service) openSession(ctx context.Context, userID uuid.UUID) (*AuthResult, error) {
	raw, hash, err := auth.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	sess := &Session{
		ID:               uuid.New(),
		UserID:           userID,
		RefreshTokenHash: hash,
		ExpiresAt:        s.now().Add(s.refreshTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	result, err := s.issue(ctx, sess, raw)
	if err != nil {
		return nil, err
	}
	s.notify(EventSignedIn, userID, sess.ID, result.Identity)
	return result, nil
}

func (s *Service) issue(ctx context.Context, sess *Session, refreshToken string) (*AuthResult, error) {
	ident, err := s.Resolve(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	var role string
	if ident != nil {
		role = string(ident.Role)
	}

	access, exp, err := s.tokens.Issue(sess.UserID.String(), role, sess.ID.String())
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		SessionID: sess.ID,
		Identity:  ident,
		Tokens: Tokens{
			AccessToken:  access,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresAt:    exp,
		},
	}, nil
}

// SignOut revokes the session. Signing out twice is not an error.
func (s *Service) SignOut(ctx context.Context, sessionID uuid.UUID) error {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up session: %w", err)
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.notify(EventSignedOut, sess.UserID, sessionID, nil)
	return nil
}

// Refresh rotates the refresh token of an active session and issues a new
// access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrSessionExpired
	}
	oldHash := auth.HashRefreshToken(refreshToken)
	sess, err := s.sessions.GetByRefreshHash(ctx, oldHash)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("look up session: %w", err)
	}
	if !sess.Active(s.now()) {
		return nil, ErrSessionExpired
	}

	raw, newHash, err := auth.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	expiresAt := s.now().Add(s.refreshTTL)
	if err := s.sessions.Rotate(ctx, sess.ID, oldHash, newHash, expiresAt); err != nil {
		return nil, err
	}
	sess.RefreshTokenHash = newHash
	sess.ExpiresAt = expiresAt

	result, err := s.issue(ctx, sess, raw)
	if err != nil {
		return nil, err
	}
	s.notify(EventTokenRefreshed, sess.UserID, sess.ID, result.Identity)
	return result, nil
}

// SessionActive reports whether the session exists, is not revoked and has
// not expired.
func (s *Service) SessionActive(ctx context.Context, sessionID string) (bool, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return false, nil
	}
	sess, err := s.sessions.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sess.Active(s.now()), nil
}

// -- Profile resolution --

// Current is the bootstrap lookup: no session, or a revoked or expired one,
// resolves to a nil identity.
func (s *Service) Current(ctx context.Context, sessionID, userID uuid.UUID) (*Identity, error) {
	if sessionID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("look up session: %w", err)
	}
	if !sess.Active(s.now()) || sess.UserID != userID {
		return nil, nil
	}
	return s.Resolve(ctx, userID)
}

// Resolve fetches the profile and branches on its role to load the doctor
// (with specialization) or patient row. A missing profile yields nil; a
// missing extension row leaves the base identity intact.
func (s *Service) Resolve(ctx context.Context, userID uuid.UUID) (*Identity, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	ident := &Identity{
		ID:      profile.ID,
		Email:   profile.Email,
		Role:    profile.UserType,
		Profile: profile,
	}

	switch profile.UserType {
	case RoleDoctor:
		doc, err := s.profiles.GetDoctor(ctx, userID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("fetch doctor: %w", err)
		default:
			ident.Doctor = doc
		}
	case RolePatient:
		pat, err := s.profiles.GetPatient(ctx, userID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("fetch patient: %w", err)
		default:
			ident.Patient = pat
		}
	}
	return ident, nil
}

// RefreshUser re-runs profile resolution and publishes the new identity.
func (s *Service) RefreshUser(ctx context.Context, userID uuid.UUID) (*Identity, error) {
	ident, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ident != nil {
		s.notify(EventIdentityUpdated, userID, uuid.Nil, ident)
	}
	return ident, nil
}

// -- Profile completion --

func validateDoctorProfile(in *DoctorProfileInput) error {
	in.Address = strings.TrimSpace(in.Address)
	if in.ExperienceYears < 0 || in.ExperienceYears > maxExperience {
		return invalid("experience must be between 0 and %d years", maxExperience)
	}
	if in.ConsultationFee < 0 {
		return invalid("consultation fee cannot be negative")
	}
	if len([]rune(in.Address)) < minAddressLen {
		return invalid("address must be at least %d characters", minAddressLen)
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return invalid("latitude must be between -90 and 90")
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return invalid("longitude must be between -180 and 180")
	}
	return nil
}

func (s *Service) CompleteDoctorProfile(ctx context.Context, doctorID uuid.UUID, in DoctorProfileInput) (*Identity, error) {
	if err := validateDoctorProfile(&in); err != nil {
		return nil, err
	}
	if in.SpecializationID != nil {
		ok, err := s.profiles.SpecializationExists(ctx, *in.SpecializationID)
		if err != nil {
			return nil, fmt.Errorf("check specialization: %w", err)
		}
		if !ok {
			return nil, invalid("unknown specialization %s", *in.SpecializationID)
		}
	}
	if err := s.profiles.UpdateDoctorProfile(ctx, doctorID, in); err != nil {
		return nil, err
	}
	return s.RefreshUser(ctx, doctorID)
}

func (s *Service) UpdatePatientProfile(ctx context.Context, patientID uuid.UUID, in PatientProfileInput) (*Identity, error) {
	var dob *time.Time
	if v := strings.TrimSpace(in.DateOfBirth); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, invalid("date_of_birth must be YYYY-MM-DD")
		}
		if t.After(s.now()) {
			return nil, invalid("date_of_birth cannot be in the future")
		}
		dob = &t
	}

	var gender *string
	if g := strings.ToLower(strings.TrimSpace(in.Gender)); g != "" {
		if !validGenders[g] {
			return nil, invalid("invalid gender: %s", in.Gender)
		}
		gender = &g
	}

	var address *string
	if a := strings.TrimSpace(in.Address); a != "" {
		address = &a
	}

	if err := s.profiles.UpdatePatientProfile(ctx, patientID, dob, gender, address); err != nil {
		return nil, err
	}
	return s.RefreshUser(ctx, patientID)
}
