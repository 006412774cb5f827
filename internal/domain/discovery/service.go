package discovery

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Rehan0707/DocNear/internal/domain/identity"
	"github.com/Rehan0707/DocNear/pkg/pagination"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Search fetches the roster (narrowed by specialization in storage), applies
// the text filter, then pages the result. The total counts filtered cards.
func (s *Service) Search(ctx context.Context, q Query, page pagination.Params) ([]*DoctorCard, int, error) {
	cards, err := s.repo.ListDoctors(ctx, q.SpecializationID)
	if err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}
	filtered := Filter(cards, q.Text)
	return pagination.Apply(filtered, page), len(filtered), nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*DoctorCard, error) {
	return s.repo.GetDoctor(ctx, id)
}

func (s *Service) ListSpecializations(ctx context.Context) ([]*identity.Specialization, error) {
	specs, err := s.repo.ListSpecializations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list specializations: %w", err)
	}
	if specs == nil {
		specs = []*identity.Specialization{}
	}
	return specs, nil
}
