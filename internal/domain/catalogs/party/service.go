package party

import (
	"context"

	"gstbooks/internal/core/id"
	"gstbooks/internal/domain"
	"gstbooks/pkg/logger"
)

// Service provides catalog operations for parties.
type Service struct {
	repo Repository
}

// NewService creates a new party service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new party.
func (s *Service) Create(ctx context.Context, p *Party) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	logger.Info(ctx, "party created", "id", p.ID, "name", p.Name, "kind", p.Kind)
	return nil
}

// GetByID retrieves a party.
func (s *Service) GetByID(ctx context.Context, partyID id.ID) (*Party, error) {
	return s.repo.GetByID(ctx, partyID)
}

// Update validates and stores party changes.
func (s *Service) Update(ctx context.Context, p *Party) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

// Delete soft-deletes a party.
func (s *Service) Delete(ctx context.Context, partyID id.ID) error {
	return s.repo.Delete(ctx, partyID)
}

// List retrieves parties with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Party], error) {
	return s.repo.List(ctx, filter)
}
