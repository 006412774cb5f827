package appointment

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Rehan0707/DocNear/internal/domain/availability"
	"github.com/Rehan0707/DocNear/internal/platform/websocket"
)

// mockRepo keeps appointments in memory and mimics the insert trigger that
// refuses pending bookings for unavailable doctors.
type mockRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*Appointment
	doctors      map[uuid.UUID]bool // id -> is_available
	names        map[uuid.UUID]string
	patients     []uuid.UUID
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		appointments: make(map[uuid.UUID]*Appointment),
		doctors:      make(map[uuid.UUID]bool),
		names:        make(map[uuid.UUID]string),
	}
}

func (m *mockRepo) addDoctor(name string, available bool) uuid.UUID {
	id := uuid.New()
	m.doctors[id] = available
	m.names[id] = name
	return id
}

func (m *mockRepo) addPatient(name string) uuid.UUID {
	id := uuid.New()
	m.patients = append(m.patients, id)
	m.names[id] = name
	return id
}

func (m *mockRepo) IsBookable(_ context.Context, doctorID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.doctors[doctorID]
	if !ok {
		return false, availability.ErrDoctorNotFound
	}
	return v, nil
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	available, ok := m.doctors[a.DoctorID]
	if !ok {
		return ErrDoctorNotFound
	}
	if a.Status == StatusPending && !available {
		return ErrDoctorUnavailable
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockRepo) CreateDemo(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.doctors[a.DoctorID]; !ok {
		return ErrDoctorNotFound
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockRepo) get(id uuid.UUID, match func(*Appointment) bool) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok || !match(a) {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) GetForParty(_ context.Context, id, partyID uuid.UUID) (*Appointment, error) {
	return m.get(id, func(a *Appointment) bool { return a.PatientID == partyID || a.DoctorID == partyID })
}

func (m *mockRepo) GetForDoctor(_ context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	return m.get(id, func(a *Appointment) bool { return a.DoctorID == doctorID })
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrInvalidTransition
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *mockRepo) MarkOTPVerified(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok || a.Status != StatusConfirmed {
		return nil, ErrInvalidTransition
	}
	a.OTPVerified = true
	cp := *a
	return &cp, nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Listing
	for _, a := range m.appointments {
		if a.DoctorID == doctorID {
			out = append(out, &Listing{Appointment: *a, PatientName: m.names[a.PatientID]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Listing
	for _, a := range m.appointments {
		if a.PatientID == patientID {
			out = append(out, &Listing{Appointment: *a, DoctorName: m.names[a.DoctorID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (m *mockRepo) FirstPatients(_ context.Context, limit int) ([]uuid.UUID, error) {
	if len(m.patients) < limit {
		limit = len(m.patients)
	}
	return append([]uuid.UUID(nil), m.patients[:limit]...), nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (p *mockPublisher) Publish(_ context.Context, ev websocket.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *mockPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Topic
	}
	return out
}

func newTestService() (*Service, *mockRepo, *mockPublisher) {
	repo := newMockRepo()
	pub := &mockPublisher{}
	return NewService(repo, repo, pub, zerolog.Nop()), repo, pub
}

type openGate struct{}

func (openGate) IsBookable(context.Context, uuid.UUID) (bool, error) { return true, nil }

func newTestLogger() zerolog.Logger { return zerolog.Nop() }

func containsOTP(data []byte) bool {
	return bytes.Contains(data, []byte(`"otp"`))
}
