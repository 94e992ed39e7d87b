package movement

import (
	"context"
	"fmt"
	"time"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
	"estampa/pkg/logger"
)

// Recorder appends audit entries. It is deliberately dumb: it resolves
// the operation triple, freezes the snapshot it is handed, and inserts.
// All business decisions (whether a movement is due, its direction, its
// magnitude) belong to the calling service.
type Recorder struct {
	repo Repository
}

// NewRecorder creates a movement recorder.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// AppendSpec describes one audit entry to record.
type AppendSpec struct {
	// Operation is the cause slug. Unknown slugs fall back to the
	// generic adjustment triple.
	Operation Operation

	// Type overrides the catalog's default direction when set. Stock
	// adjustments derive it from the delta's sign.
	Type Type

	// Quantity is the magnitude of the change, >= 0. Metadata-only
	// entries pass 0.
	Quantity int

	// Reason overrides the catalog's default reason when non-empty.
	Reason string

	// Snapshot of the affected variant, already loaded by the caller.
	// Zero-valued for order-level entries (status transitions).
	Snapshot Snapshot

	// Changes holds old/new pairs for metadata edits.
	Changes Changes

	VariantID *id.ID
	UserID    *id.ID
	OrderID   *id.ID
}

// Append records one movement. Pure append; prior rows are never touched.
func (r *Recorder) Append(ctx context.Context, spec AppendSpec) (*Movement, error) {
	if spec.Quantity < 0 {
		return nil, apperror.NewValidation("movement quantity must not be negative").
			WithDetail("quantity", spec.Quantity)
	}

	op, info := Resolve(ctx, spec.Operation)

	movType := spec.Type
	if movType == "" {
		movType = info.Type
	}
	reason := spec.Reason
	if reason == "" {
		reason = info.Reason
	}

	m := &Movement{
		ID:        id.New(),
		Type:      movType,
		Quantity:  spec.Quantity,
		Operation: op,
		Reason:    reason,
		Changes:   spec.Changes,
		ItemName:  spec.Snapshot.ItemName,
		Color:     spec.Snapshot.Color,
		Size:      spec.Snapshot.Size,
		Price:     spec.Snapshot.Price,
		VariantID: spec.VariantID,
		UserID:    spec.UserID,
		OrderID:   spec.OrderID,
		CreatedAt: time.Now().UTC(),
	}

	if err := r.repo.Append(ctx, m); err != nil {
		return nil, fmt.Errorf("append movement: %w", err)
	}

	logger.Debug(ctx, "movement recorded",
		"movement_id", m.ID,
		"operation", string(m.Operation),
		"type", string(m.Type),
		"quantity", m.Quantity,
	)

	return m, nil
}

// ListResult is a movement listing with its aggregate totals.
type ListResult struct {
	Items  []Movement `json:"items"`
	Totals Totals     `json:"totals"`
}

// List retrieves movements for the filter together with quantity totals
// grouped by type and by operation (loss/shrinkage reporting).
func (r *Recorder) List(ctx context.Context, filter Filter) (ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(*filter.FromDate) {
		return ListResult{}, apperror.NewValidation("date range is inverted").
			WithDetail("from", filter.FromDate).
			WithDetail("to", filter.ToDate)
	}

	items, err := r.repo.List(ctx, filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("list movements: %w", err)
	}

	totals, err := r.repo.Totals(ctx, filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("movement totals: %w", err)
	}

	return ListResult{Items: items, Totals: totals}, nil
}

// GetByID retrieves a single movement.
func (r *Recorder) GetByID(ctx context.Context, movementID id.ID) (*Movement, error) {
	return r.repo.GetByID(ctx, movementID)
}

// HideVariantHistory soft-deletes the variant's movements while it is
// deactivated. The audit rows themselves are untouched otherwise.
func (r *Recorder) HideVariantHistory(ctx context.Context, variantID id.ID, at time.Time) error {
	if err := r.repo.SoftDeleteByVariant(ctx, variantID, at); err != nil {
		return fmt.Errorf("hide variant history: %w", err)
	}
	return nil
}

// RestoreVariantHistory clears the soft-delete set by HideVariantHistory.
func (r *Recorder) RestoreVariantHistory(ctx context.Context, variantID id.ID) error {
	if err := r.repo.RestoreByVariant(ctx, variantID); err != nil {
		return fmt.Errorf("restore variant history: %w", err)
	}
	return nil
}

// DetachVariantHistory nulls the variant reference on its movements so
// the row can be hard-deleted while the snapshots survive.
func (r *Recorder) DetachVariantHistory(ctx context.Context, variantID id.ID) error {
	if err := r.repo.DetachVariant(ctx, variantID); err != nil {
		return fmt.Errorf("detach variant history: %w", err)
	}
	return nil
}
