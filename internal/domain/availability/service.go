package availability

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Rehan0707/DocNear/internal/domain/identity"
	"github.com/Rehan0707/DocNear/internal/platform/websocket"
)

const EventAvailabilityChanged = "availability_changed"

// IdentityRefresher re-resolves a user after their doctor row changed.
type IdentityRefresher interface {
	RefreshUser(ctx context.Context, userID uuid.UUID) (*identity.Identity, error)
}

type Change struct {
	DoctorID    uuid.UUID `json:"doctor_id"`
	IsAvailable bool      `json:"is_available"`
}

type Service struct {
	repo       Repository
	identities IdentityRefresher
	events     websocket.EventPublisher
	logger     zerolog.Logger
}

func NewService(repo Repository, identities IdentityRefresher, events websocket.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, identities: identities, events: events, logger: logger}
}

func (s *Service) Get(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	return s.repo.Get(ctx, doctorID)
}

// IsBookable is the admission check used before a booking is written.
// Unknown doctors are reported as ErrDoctorNotFound, not as unbookable.
func (s *Service) IsBookable(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	return s.repo.Get(ctx, doctorID)
}

// Toggle flips the doctor's availability and returns the new value. Discovery
// views and the doctor's own sessions are told about the change.
func (s *Service) Toggle(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	available, err := s.repo.Toggle(ctx, doctorID)
	if err != nil {
		return false, err
	}
	s.logger.Info().Str("doctor_id", doctorID.String()).Bool("is_available", available).Msg("availability toggled")

	s.publish(ctx, Change{DoctorID: doctorID, IsAvailable: available})
	if s.identities != nil {
		if _, err := s.identities.RefreshUser(ctx, doctorID); err != nil {
			s.logger.Warn().Err(err).Str("doctor_id", doctorID.String()).Msg("refresh doctor identity")
		}
	}
	return available, nil
}

func (s *Service) publish(ctx context.Context, change Change) {
	if s.events == nil {
		return
	}
	ev, err := websocket.NewEvent(EventAvailabilityChanged, websocket.TopicDoctors, change.DoctorID.String(), change)
	if err == nil {
		err = s.events.Publish(ctx, ev)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("doctor_id", change.DoctorID.String()).Msg("publish availability change")
	}
}

func IsNotFound(err error) bool { return errors.Is(err, ErrDoctorNotFound) }
