package variant

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"estampa/internal/core/apperror"
	appctx "estampa/internal/core/context"
	"estampa/internal/core/id"
	"estampa/internal/core/tx"
	"estampa/internal/domain/catalog/color"
	"estampa/internal/domain/catalog/itemtype"
	"estampa/internal/domain/movement"
	"estampa/pkg/logger"
)

// Service is the stock ledger. Every quantity change goes through it,
// inside one transaction that also appends the matching audit movement.
type Service struct {
	repo     Repository
	types    itemtype.Repository
	colors   color.Repository
	packs    PackRefCounter
	recorder *movement.Recorder
	txm      tx.Manager
}

// NewService creates the stock ledger service.
func NewService(
	repo Repository,
	types itemtype.Repository,
	colors color.Repository,
	packs PackRefCounter,
	recorder *movement.Recorder,
	txm tx.Manager,
) *Service {
	return &Service{
		repo:     repo,
		types:    types,
		colors:   colors,
		packs:    packs,
		recorder: recorder,
		txm:      txm,
	}
}

// AdjustSpec describes one stock adjustment.
type AdjustSpec struct {
	VariantID id.ID

	// Delta is the signed quantity change; zero is rejected.
	Delta int

	// Operation is the cause slug; empty defaults to a manual adjustment.
	Operation movement.Operation

	// Reason overrides the operation's default reason when non-empty.
	Reason string

	// OrderID links sale adjustments to their order.
	OrderID *id.ID
}

// Adjust applies a signed quantity change to a variant.
//
// The variant row is read with a row-level lock inside the transaction,
// so two concurrent adjustments to the same variant serialize and the
// non-negative invariant holds at commit. Exactly one movement is
// appended, magnitude |delta|, direction from the delta's sign.
func (s *Service) Adjust(ctx context.Context, spec AdjustSpec) (*Variant, error) {
	if spec.Delta == 0 {
		return nil, apperror.NewValidation("delta must not be zero").
			WithDetail("field", "delta")
	}
	op := spec.Operation
	if op == "" {
		op = movement.OpManualAdjust
	}

	var out *Variant
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetDetailForUpdate(ctx, spec.VariantID)
		if err != nil {
			return err
		}
		if !d.Active {
			return apperror.NewConflict("variant is inactive").
				WithDetail("variant_id", d.ID.String())
		}

		newQty := d.Quantity + spec.Delta
		if newQty < 0 {
			return apperror.NewInsufficientStock(d.ID.String(), -spec.Delta, d.Quantity)
		}

		if err := s.repo.UpdateQuantity(ctx, d.ID, newQty); err != nil {
			return fmt.Errorf("update quantity: %w", err)
		}

		movType := movement.TypeIn
		qty := spec.Delta
		if spec.Delta < 0 {
			movType = movement.TypeOut
			qty = -spec.Delta
		}

		variantID := d.ID
		if _, err := s.recorder.Append(ctx, movement.AppendSpec{
			Operation: op,
			Type:      movType,
			Quantity:  qty,
			Reason:    spec.Reason,
			Snapshot:  d.Snapshot(),
			VariantID: &variantID,
			UserID:    appctx.UserID(ctx),
			OrderID:   spec.OrderID,
		}); err != nil {
			return err
		}

		d.Quantity = newQty
		v := d.Variant
		out = &v
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock adjusted",
		"variant_id", out.ID,
		"delta", spec.Delta,
		"quantity", out.Quantity,
		"operation", string(op),
	)
	if out.BelowMinStock() {
		logger.Warn(ctx, "variant below minimum stock",
			"variant_id", out.ID,
			"quantity", out.Quantity,
			"min_stock", out.MinStock,
		)
	}

	return out, nil
}

// CreateSpec describes a new variant.
type CreateSpec struct {
	ItemTypeID      id.ID
	ColorID         id.ID
	Size            *string
	InitialQuantity int
	MinStock        *int
	Price           decimal.Decimal
}

// Create validates the (type, color, size) key, applies the category
// default min stock and records the initial load movement.
func (s *Service) Create(ctx context.Context, spec CreateSpec) (*Variant, error) {
	t, err := s.types.GetByID(ctx, spec.ItemTypeID)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, apperror.NewConflict("item type is inactive").
			WithDetail("item_type_id", t.ID.String())
	}
	if t.HasSizes && spec.Size == nil {
		return nil, apperror.NewValidation("size is required for this item type").
			WithDetail("field", "size")
	}
	if !t.HasSizes && spec.Size != nil {
		return nil, apperror.NewValidation("item type does not take sizes").
			WithDetail("field", "size")
	}

	c, err := s.colors.GetByID(ctx, spec.ColorID)
	if err != nil {
		return nil, err
	}

	minStock := t.Category.DefaultMinStock()
	if spec.MinStock != nil {
		minStock = *spec.MinStock
	}

	now := time.Now().UTC()
	v := &Variant{
		ID:         id.New(),
		ItemTypeID: spec.ItemTypeID,
		ColorID:    spec.ColorID,
		Size:       spec.Size,
		Quantity:   spec.InitialQuantity,
		MinStock:   minStock,
		Price:      spec.Price,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := v.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsByKey(ctx, spec.ItemTypeID, spec.ColorID, spec.Size)
		if err != nil {
			return fmt.Errorf("check variant key: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("variant", "type/color/size", t.Name)
		}

		if err := s.repo.Create(ctx, v); err != nil {
			return fmt.Errorf("create variant: %w", err)
		}

		variantID := v.ID
		_, err = s.recorder.Append(ctx, movement.AppendSpec{
			Operation: movement.OpInitialLoad,
			Quantity:  spec.InitialQuantity,
			Snapshot: movement.Snapshot{
				ItemName: t.Name,
				Color:    c.Name,
				Size:     v.Size,
				Price:    v.Price,
			},
			VariantID: &variantID,
			UserID:    appctx.UserID(ctx),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "variant created",
		"variant_id", v.ID,
		"item_type_id", v.ItemTypeID,
		"initial_quantity", v.Quantity,
	)
	return v, nil
}

// UpdateSpec carries metadata edits; nil fields are left untouched.
type UpdateSpec struct {
	VariantID id.ID
	Price     *decimal.Decimal
	MinStock  *int
	Reason    string
}

// Update edits price and min stock, recording a zero-quantity movement
// per changed field with the old/new pair in the changes map.
func (s *Service) Update(ctx context.Context, spec UpdateSpec) (*Variant, error) {
	if spec.Price == nil && spec.MinStock == nil {
		return nil, apperror.NewValidation("nothing to update")
	}
	if spec.Price != nil && spec.Price.IsNegative() {
		return nil, apperror.NewValidation("price cannot be negative").WithDetail("field", "price")
	}
	if spec.MinStock != nil && *spec.MinStock < 0 {
		return nil, apperror.NewValidation("min stock cannot be negative").WithDetail("field", "minStock")
	}

	var out *Variant
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetDetailForUpdate(ctx, spec.VariantID)
		if err != nil {
			return err
		}
		if !d.Active {
			return apperror.NewConflict("variant is inactive").
				WithDetail("variant_id", d.ID.String())
		}

		type pendingMovement struct {
			op      movement.Operation
			changes movement.Changes
		}
		var pending []pendingMovement

		if spec.Price != nil && !spec.Price.Equal(d.Price) {
			pending = append(pending, pendingMovement{
				op: movement.OpPriceChange,
				changes: movement.Changes{
					"price": {Old: d.Price.String(), New: spec.Price.String()},
				},
			})
			d.Price = *spec.Price
		}
		if spec.MinStock != nil && *spec.MinStock != d.MinStock {
			pending = append(pending, pendingMovement{
				op: movement.OpMinStockChange,
				changes: movement.Changes{
					"min_stock": {Old: d.MinStock, New: *spec.MinStock},
				},
			})
			d.MinStock = *spec.MinStock
		}

		if len(pending) == 0 {
			v := d.Variant
			out = &v
			return nil
		}

		d.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, &d.Variant); err != nil {
			return fmt.Errorf("update variant: %w", err)
		}

		// Snapshot reflects the state after the edit (the old value
		// lives in the changes map).
		variantID := d.ID
		for _, p := range pending {
			if _, err := s.recorder.Append(ctx, movement.AppendSpec{
				Operation: p.op,
				Quantity:  0,
				Reason:    spec.Reason,
				Snapshot:  d.Snapshot(),
				Changes:   p.changes,
				VariantID: &variantID,
				UserID:    appctx.UserID(ctx),
			}); err != nil {
				return err
			}
		}

		v := d.Variant
		out = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Deactivate soft-deletes a variant after checking no active pack still
// sells it. Its movement history is hidden alongside; the deactivation
// movement itself stays visible.
func (s *Service) Deactivate(ctx context.Context, variantID id.ID) (*Variant, error) {
	var out *Variant
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetDetailForUpdate(ctx, variantID)
		if err != nil {
			return err
		}
		if !d.Active {
			return apperror.NewConflict("variant is already inactive").
				WithDetail("variant_id", d.ID.String())
		}

		refs, err := s.packs.CountPacksReferencing(ctx, d.ID, true)
		if err != nil {
			return fmt.Errorf("count pack references: %w", err)
		}
		if refs > 0 {
			return apperror.NewConflict("variant is part of an active pack").
				WithDetail("variant_id", d.ID.String()).
				WithDetail("packs", refs)
		}

		now := time.Now().UTC()
		if err := s.repo.Deactivate(ctx, d.ID, false, now); err != nil {
			return fmt.Errorf("deactivate variant: %w", err)
		}
		if err := s.recorder.HideVariantHistory(ctx, d.ID, now); err != nil {
			return err
		}

		vid := d.ID
		if _, err := s.recorder.Append(ctx, movement.AppendSpec{
			Operation: movement.OpDeactivate,
			Quantity:  0,
			Snapshot:  d.Snapshot(),
			VariantID: &vid,
			UserID:    appctx.UserID(ctx),
		}); err != nil {
			return err
		}

		d.Active = false
		d.DeletedAt = &now
		v := d.Variant
		out = &v
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "variant deactivated", "variant_id", out.ID)
	return out, nil
}

// Restore reactivates a manually deactivated variant. A variant whose
// parent type is inactive cannot be restored on its own; restoring the
// type is the only way back for those.
func (s *Service) Restore(ctx context.Context, variantID id.ID) (*Variant, error) {
	var out *Variant
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetDetailForUpdate(ctx, variantID)
		if err != nil {
			return err
		}
		if d.Active {
			return apperror.NewConflict("variant is already active").
				WithDetail("variant_id", d.ID.String())
		}

		// The joined type row in the detail is read unlocked. Take the
		// type row lock before deciding, so a concurrent type-level
		// deactivation cannot slip in between the check and the restore.
		t, err := s.types.GetForUpdate(ctx, d.ItemTypeID)
		if err != nil {
			return err
		}
		if !t.Active {
			return apperror.NewConflict("cannot restore a variant of an inactive item type").
				WithDetail("variant_id", d.ID.String()).
				WithDetail("item_type_id", d.ItemTypeID.String())
		}

		if err := s.repo.Restore(ctx, d.ID); err != nil {
			return fmt.Errorf("restore variant: %w", err)
		}
		if err := s.recorder.RestoreVariantHistory(ctx, d.ID); err != nil {
			return err
		}

		vid := d.ID
		if _, err := s.recorder.Append(ctx, movement.AppendSpec{
			Operation: movement.OpRestore,
			Quantity:  0,
			Snapshot:  d.Snapshot(),
			VariantID: &vid,
			UserID:    appctx.UserID(ctx),
		}); err != nil {
			return err
		}

		d.Active = true
		d.DeletedAt = nil
		d.ParentDeactivated = false
		v := d.Variant
		out = &v
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "variant restored", "variant_id", out.ID)
	return out, nil
}

// Purge hard-deletes a variant. The purge movement is recorded with a
// null variant reference and prior movements are detached, so the audit
// snapshots outlive the row.
func (s *Service) Purge(ctx context.Context, variantID id.ID) error {
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetDetailForUpdate(ctx, variantID)
		if err != nil {
			return err
		}

		refs, err := s.packs.CountPacksReferencing(ctx, d.ID, false)
		if err != nil {
			return fmt.Errorf("count pack references: %w", err)
		}
		if refs > 0 {
			return apperror.NewConflict("variant is referenced by a pack").
				WithDetail("variant_id", d.ID.String()).
				WithDetail("packs", refs)
		}

		if _, err := s.recorder.Append(ctx, movement.AppendSpec{
			Operation: movement.OpPurge,
			Quantity:  0,
			Snapshot:  d.Snapshot(),
			VariantID: nil,
			UserID:    appctx.UserID(ctx),
		}); err != nil {
			return err
		}
		if err := s.recorder.DetachVariantHistory(ctx, d.ID); err != nil {
			return err
		}

		if err := s.repo.HardDelete(ctx, d.ID); err != nil {
			return fmt.Errorf("hard delete variant: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "variant purged", "variant_id", variantID)
	return nil
}

// GetByID retrieves a variant.
func (s *Service) GetByID(ctx context.Context, variantID id.ID) (*Variant, error) {
	return s.repo.GetByID(ctx, variantID)
}

// GetDetail retrieves a variant with type and color resolved.
func (s *Service) GetDetail(ctx context.Context, variantID id.ID) (*Detail, error) {
	return s.repo.GetDetail(ctx, variantID)
}

// List retrieves variants matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Detail, error) {
	return s.repo.List(ctx, filter)
}
