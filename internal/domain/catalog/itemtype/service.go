package itemtype

import (
	"context"
	"fmt"
	"time"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
	"estampa/internal/core/tx"
	"estampa/pkg/logger"
)

// Service provides item type catalog operations. Lifecycle cascades onto
// variants live in the lifecycle package, not here.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates an item type service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// CreateSpec describes a new item type.
type CreateSpec struct {
	Name           string
	Category       Category
	HasSizes       bool
	ImageURL       *string
	StampingPrices []StampingPrice
}

// Create persists a new item type with its stamping price tiers.
func (s *Service) Create(ctx context.Context, spec CreateSpec) (*ItemType, error) {
	t := New(spec.Name, spec.Category, spec.HasSizes)
	t.ImageURL = spec.ImageURL
	t.StampingPrices = spec.StampingPrices
	for i := range t.StampingPrices {
		t.StampingPrices[i].ItemTypeID = t.ID
	}

	if err := t.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsByName(ctx, t.Name)
		if err != nil {
			return fmt.Errorf("check name: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("item type", "name", t.Name)
		}
		if err := s.repo.Create(ctx, t); err != nil {
			return fmt.Errorf("create item type: %w", err)
		}
		if len(t.StampingPrices) > 0 {
			if err := s.repo.SaveStampingPrices(ctx, t.ID, t.StampingPrices); err != nil {
				return fmt.Errorf("save stamping prices: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "item type created", "item_type_id", t.ID, "name", t.Name)
	return t, nil
}

// UpdatePrices replaces the stamping price tiers of a type.
func (s *Service) UpdatePrices(ctx context.Context, typeID id.ID, prices []StampingPrice) (*ItemType, error) {
	t, err := s.repo.GetByID(ctx, typeID)
	if err != nil {
		return nil, err
	}
	for i := range prices {
		prices[i].ItemTypeID = t.ID
	}
	t.StampingPrices = prices
	if err := t.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		t.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update item type: %w", err)
		}
		return s.repo.SaveStampingPrices(ctx, t.ID, prices)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByID retrieves a type with its stamping prices.
func (s *Service) GetByID(ctx context.Context, typeID id.ID) (*ItemType, error) {
	return s.repo.GetWithPrices(ctx, typeID)
}

// List retrieves item types.
func (s *Service) List(ctx context.Context, filter Filter) ([]ItemType, error) {
	return s.repo.List(ctx, filter)
}
