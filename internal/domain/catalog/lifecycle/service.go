// Package lifecycle cascades deactivation and restore between a product
// type and its variants. The parent_deactivated flag keeps the two
// deactivation causes apart: restoring a type brings back only the
// variants it took down, never ones an admin deactivated on purpose.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"estampa/internal/core/apperror"
	appctx "estampa/internal/core/context"
	"estampa/internal/core/id"
	"estampa/internal/core/tx"
	"estampa/internal/domain/catalog/itemtype"
	"estampa/internal/domain/catalog/variant"
	"estampa/internal/domain/movement"
	"estampa/pkg/logger"
)

const (
	cascadeDeactivateReason = "Desactivación en cascada por tipo de producto"
	cascadeRestoreReason    = "Restauración en cascada por tipo de producto"
)

// Service applies type-level lifecycle changes atomically.
type Service struct {
	types    itemtype.Repository
	variants variant.Repository
	recorder *movement.Recorder
	txm      tx.Manager
}

// NewService creates a lifecycle service.
func NewService(
	types itemtype.Repository,
	variants variant.Repository,
	recorder *movement.Recorder,
	txm tx.Manager,
) *Service {
	return &Service{
		types:    types,
		variants: variants,
		recorder: recorder,
		txm:      txm,
	}
}

// DeactivateType deactivates a product type and all its currently active
// variants, flagging those as parent-deactivated. One transaction: either
// the whole family goes down or nothing does.
func (s *Service) DeactivateType(ctx context.Context, typeID id.ID) error {
	var cascaded int
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.types.GetForUpdate(ctx, typeID)
		if err != nil {
			return err
		}
		if !t.Active {
			return apperror.NewConflict("item type is already inactive").
				WithDetail("item_type_id", t.ID.String())
		}

		children, err := s.variants.ListByType(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("list variants: %w", err)
		}

		now := time.Now().UTC()
		for _, v := range children {
			if !v.Active {
				// Manually deactivated earlier; keeps no parent flag.
				continue
			}
			d, err := s.variants.GetDetailForUpdate(ctx, v.ID)
			if err != nil {
				return err
			}
			if !d.Active {
				// Deactivated manually between the scan and the row
				// lock. Not this cascade's to flag or restore later.
				continue
			}
			if err := s.variants.Deactivate(ctx, d.ID, true, now); err != nil {
				return fmt.Errorf("deactivate variant %s: %w", d.ID, err)
			}
			if err := s.recorder.HideVariantHistory(ctx, d.ID, now); err != nil {
				return err
			}
			vid := d.ID
			if _, err := s.recorder.Append(ctx, movement.AppendSpec{
				Operation: movement.OpDeactivate,
				Quantity:  0,
				Reason:    cascadeDeactivateReason,
				Snapshot:  d.Snapshot(),
				VariantID: &vid,
				UserID:    appctx.UserID(ctx),
			}); err != nil {
				return err
			}
			cascaded++
		}

		if err := s.types.SetActive(ctx, t.ID, false, now); err != nil {
			return fmt.Errorf("deactivate item type: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "item type deactivated",
		"item_type_id", typeID,
		"variants_cascaded", cascaded,
	)
	return nil
}

// RestoreType reactivates a product type and exactly the variants it
// deactivated (parent_deactivated flag), clearing the flag. Variants
// deactivated independently stay inactive.
func (s *Service) RestoreType(ctx context.Context, typeID id.ID) error {
	var restored int
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.types.GetForUpdate(ctx, typeID)
		if err != nil {
			return err
		}
		if t.Active {
			return apperror.NewConflict("item type is already active").
				WithDetail("item_type_id", t.ID.String())
		}

		now := time.Now().UTC()
		if err := s.types.SetActive(ctx, t.ID, true, now); err != nil {
			return fmt.Errorf("restore item type: %w", err)
		}

		children, err := s.variants.ListByType(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("list variants: %w", err)
		}

		for _, v := range children {
			if v.Active || !v.ParentDeactivated {
				continue
			}
			d, err := s.variants.GetDetailForUpdate(ctx, v.ID)
			if err != nil {
				return err
			}
			if d.Active || !d.ParentDeactivated {
				// The scan snapshot was stale; the locked row says this
				// variant is not a cascade casualty anymore.
				continue
			}
			if err := s.variants.Restore(ctx, d.ID); err != nil {
				return fmt.Errorf("restore variant %s: %w", d.ID, err)
			}
			if err := s.recorder.RestoreVariantHistory(ctx, d.ID); err != nil {
				return err
			}
			vid := d.ID
			if _, err := s.recorder.Append(ctx, movement.AppendSpec{
				Operation: movement.OpRestore,
				Quantity:  0,
				Reason:    cascadeRestoreReason,
				Snapshot:  d.Snapshot(),
				VariantID: &vid,
				UserID:    appctx.UserID(ctx),
			}); err != nil {
				return err
			}
			restored++
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "item type restored",
		"item_type_id", typeID,
		"variants_restored", restored,
	)
	return nil
}
