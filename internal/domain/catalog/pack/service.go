package pack

import (
	"context"
	"fmt"
	"sort"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
	"estampa/internal/core/tx"
	"estampa/internal/domain/catalog/variant"
	"estampa/pkg/logger"
)

// Requirement is one expanded stock requirement of a pack order line.
type Requirement struct {
	VariantID id.ID
	Quantity  int
}

// Service expands packs into stock requirements and manages the pack
// catalog.
type Service struct {
	repo     Repository
	variants variant.Repository
	txm      tx.Manager
}

// NewService creates a pack service.
func NewService(repo Repository, variants variant.Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, variants: variants, txm: txm}
}

// Expand resolves a pack order line into per-variant requirements:
// each component's per-pack quantity times the requested pack count.
// Inactive packs and packs with inactive components are rejected; no
// side effects beyond the reads.
func (s *Service) Expand(ctx context.Context, packID id.ID, requestedQty int) (*Pack, []Requirement, error) {
	if requestedQty <= 0 {
		return nil, nil, apperror.NewValidation("requested quantity must be positive").
			WithDetail("field", "quantity")
	}

	p, err := s.repo.GetWithItems(ctx, packID)
	if err != nil {
		return nil, nil, err
	}
	if !p.Active {
		return nil, nil, apperror.NewConflict("pack is inactive").
			WithDetail("pack_id", p.ID.String())
	}

	reqs := make([]Requirement, 0, len(p.Items))
	for _, item := range p.Items {
		v, err := s.variants.GetByID(ctx, item.VariantID)
		if err != nil {
			return nil, nil, err
		}
		if !v.Active {
			return nil, nil, apperror.NewConflict("pack contains an inactive variant").
				WithDetail("pack_id", p.ID.String()).
				WithDetail("variant_id", v.ID.String())
		}
		reqs = append(reqs, Requirement{
			VariantID: item.VariantID,
			Quantity:  item.Quantity * requestedQty,
		})
	}

	// Deterministic order keeps downstream lock acquisition stable.
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].VariantID.String() < reqs[j].VariantID.String()
	})

	return p, reqs, nil
}

// Create persists a pack after checking every component variant exists
// and is active.
func (s *Service) Create(ctx context.Context, p *Pack) (*Pack, error) {
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, item := range p.Items {
			v, err := s.variants.GetByID(ctx, item.VariantID)
			if err != nil {
				return err
			}
			if !v.Active {
				return apperror.NewConflict("pack component is inactive").
					WithDetail("variant_id", v.ID.String())
			}
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create pack: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "pack created", "pack_id", p.ID, "name", p.Name, "items", len(p.Items))
	return p, nil
}

// Deactivate retires a pack from sale. Component variants are untouched.
func (s *Service) Deactivate(ctx context.Context, packID id.ID) error {
	p, err := s.repo.GetByID(ctx, packID)
	if err != nil {
		return err
	}
	if !p.Active {
		return apperror.NewConflict("pack is already inactive").
			WithDetail("pack_id", p.ID.String())
	}
	return s.repo.SetActive(ctx, packID, false)
}

// GetByID retrieves a pack with its items.
func (s *Service) GetByID(ctx context.Context, packID id.ID) (*Pack, error) {
	return s.repo.GetWithItems(ctx, packID)
}

// List retrieves packs.
func (s *Service) List(ctx context.Context, onlyActive bool) ([]Pack, error) {
	return s.repo.List(ctx, onlyActive)
}
