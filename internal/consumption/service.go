package consumption

import (
	"context"
	"fmt"

	"github.com/thedilution/dilution-backend/pkg/db/models"
)

// Service exposes read access to the consumption audit trail. Writes happen
// only inside the jobcard approval transaction.
type Service interface {
	List(ctx context.Context, filter Filter) ([]models.Consumption, error)
}

type service struct {
	repo Repository
}

// NewService wires the consumption service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("consumption repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]models.Consumption, error) {
	return s.repo.List(ctx, filter)
}
