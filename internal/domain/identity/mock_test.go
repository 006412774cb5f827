package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Rehan0707/DocNear/internal/platform/auth"
)

// memStore backs all three mock repositories so fakeTx can roll them back
// together.
type memStore struct {
	mu       sync.Mutex
	creds    map[string]*Credential // lower(email) -> credential
	sessions map[uuid.UUID]*Session
	profiles map[uuid.UUID]*Profile
	doctors  map[uuid.UUID]*Doctor
	patients map[uuid.UUID]*Patient
	specs    map[uuid.UUID]*Specialization

	failCreateDoctor error
}

func newMemStore() *memStore {
	return &memStore{
		creds:    make(map[string]*Credential),
		sessions: make(map[uuid.UUID]*Session),
		profiles: make(map[uuid.UUID]*Profile),
		doctors:  make(map[uuid.UUID]*Doctor),
		patients: make(map[uuid.UUID]*Patient),
		specs:    make(map[uuid.UUID]*Specialization),
	}
}

type snapshot struct {
	creds    map[string]*Credential
	profiles map[uuid.UUID]*Profile
	doctors  map[uuid.UUID]*Doctor
	patients map[uuid.UUID]*Patient
}

func (m *memStore) snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := snapshot{
		creds:    make(map[string]*Credential),
		profiles: make(map[uuid.UUID]*Profile),
		doctors:  make(map[uuid.UUID]*Doctor),
		patients: make(map[uuid.UUID]*Patient),
	}
	for k, v := range m.creds {
		s.creds[k] = v
	}
	for k, v := range m.profiles {
		s.profiles[k] = v
	}
	for k, v := range m.doctors {
		s.doctors[k] = v
	}
	for k, v := range m.patients {
		s.patients[k] = v
	}
	return s
}

func (m *memStore) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds, m.profiles, m.doctors, m.patients = s.creds, s.profiles, s.doctors, s.patients
}

type fakeTx struct {
	store *memStore
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	snap := f.store.snapshot()
	if err := fn(ctx); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

// -- credentials --

type mockCredRepo struct{ s *memStore }

func (r *mockCredRepo) Create(_ context.Context, c *Credential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := strings.ToLower(c.Email)
	if _, ok := r.s.creds[key]; ok {
		return ErrEmailTaken
	}
	c.CreatedAt = time.Now()
	r.s.creds[key] = c
	return nil
}

func (r *mockCredRepo) GetByEmail(_ context.Context, email string) (*Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.creds[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// -- sessions --

type mockSessionRepo struct{ s *memStore }

func (r *mockSessionRepo) Create(_ context.Context, sess *Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess.CreatedAt = time.Now()
	cp := *sess
	r.s.sessions[sess.ID] = &cp
	return nil
}

func (r *mockSessionRepo) GetByID(_ context.Context, id uuid.UUID) (*Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (r *mockSessionRepo) GetByRefreshHash(_ context.Context, hash string) (*Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sess := range r.s.sessions {
		if sess.RefreshTokenHash == hash {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *mockSessionRepo) Rotate(_ context.Context, id uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok || sess.RefreshTokenHash != oldHash || sess.RevokedAt != nil {
		return ErrSessionExpired
	}
	sess.RefreshTokenHash = newHash
	sess.ExpiresAt = expiresAt
	return nil
}

func (r *mockSessionRepo) Revoke(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sess, ok := r.s.sessions[id]; ok && sess.RevokedAt == nil {
		now := time.Now()
		sess.RevokedAt = &now
	}
	return nil
}

// -- profiles --

type mockProfileRepo struct{ s *memStore }

func (r *mockProfileRepo) CreateProfile(_ context.Context, p *Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.profiles[p.ID]; !ok {
		r.s.profiles[p.ID] = p
	}
	return nil
}

func (r *mockProfileRepo) GetProfile(_ context.Context, id uuid.UUID) (*Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (r *mockProfileRepo) CreateDoctor(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCreateDoctor != nil {
		return r.s.failCreateDoctor
	}
	if _, ok := r.s.doctors[id]; !ok {
		r.s.doctors[id] = &Doctor{ID: id}
	}
	return nil
}

func (r *mockProfileRepo) CreatePatient(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.patients[id]; !ok {
		r.s.patients[id] = &Patient{ID: id}
	}
	return nil
}

func (r *mockProfileRepo) GetDoctor(_ context.Context, id uuid.UUID) (*Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doctors[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	if d.SpecializationID != nil {
		cp.Specialization = r.s.specs[*d.SpecializationID]
	}
	return &cp, nil
}

func (r *mockProfileRepo) GetPatient(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *mockProfileRepo) UpdateDoctorProfile(_ context.Context, id uuid.UUID, in DoctorProfileInput) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doctors[id]
	if !ok {
		return ErrNotFound
	}
	d.SpecializationID = in.SpecializationID
	d.ExperienceYears = in.ExperienceYears
	addr := in.Address
	d.Address = &addr
	d.ConsultationFee = in.ConsultationFee
	d.Latitude, d.Longitude = in.Latitude, in.Longitude
	return nil
}

func (r *mockProfileRepo) UpdatePatientProfile(_ context.Context, id uuid.UUID, dob *time.Time, gender, address *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.patients[id]
	if !ok {
		return ErrNotFound
	}
	p.DateOfBirth, p.Gender, p.Address = dob, gender, address
	return nil
}

func (r *mockProfileRepo) SpecializationExists(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.specs[id]
	return ok, nil
}

type testEnv struct {
	svc    *Service
	store  *memStore
	tx     *fakeTx
	issuer *auth.TokenIssuer
}

func newTestEnv() *testEnv {
	store := newMemStore()
	tx := &fakeTx{store: store}
	issuer := auth.NewTokenIssuer(auth.JWTConfig{Issuer: "docnear-test", SigningKey: []byte("identity-test-key"), AccessTTL: time.Minute})
	svc := NewService(tx, &mockCredRepo{store}, &mockSessionRepo{store}, &mockProfileRepo{store}, issuer, time.Hour, zerolog.Nop())
	return &testEnv{svc: svc, store: store, tx: tx, issuer: issuer}
}

func newTestService() *Service {
	return newTestEnv().svc
}
