package order

import (
	"context"
	"fmt"
	"time"

	"estampa/internal/core/apperror"
	appctx "estampa/internal/core/context"
	"estampa/internal/core/id"
	"estampa/internal/domain/movement"
	"estampa/pkg/logger"
)

// transitions lists the allowed next states. No state is ever skipped;
// callers request each hop explicitly. Cancelled is reachable from any
// non-terminal state.
var transitions = map[Status][]Status{
	StatusPendingPayment: {StatusProcessing, StatusCancelled},
	StatusProcessing:     {StatusShipped, StatusCancelled},
	StatusShipped:        {StatusCompleted, StatusCancelled},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateStatus validates and applies an order status transition.
//
// Requesting the current status is a no-op: the unchanged order is
// returned and no movement is written. A real transition appends one
// zero-quantity audit movement carrying the old/new pair and the order
// reference.
func (s *Service) UpdateStatus(ctx context.Context, orderID id.ID, newStatus Status) (*Order, error) {
	if !newStatus.Known() {
		return nil, apperror.NewValidation("unknown order status").
			WithDetail("status", string(newStatus))
	}

	var out *Order
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if o.Status == newStatus {
			out = o
			return nil
		}

		if o.Status.IsTerminal() {
			return apperror.NewConflict("order is in a terminal state").
				WithDetail("order_id", o.ID.String()).
				WithDetail("status", string(o.Status))
		}
		if !CanTransition(o.Status, newStatus) {
			return apperror.NewConflict("invalid status transition").
				WithDetail("order_id", o.ID.String()).
				WithDetail("from", string(o.Status)).
				WithDetail("to", string(newStatus))
		}

		now := time.Now().UTC()
		if err := s.repo.UpdateStatus(ctx, o.ID, newStatus, now); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		oid := o.ID
		if _, err := s.recorder.Append(ctx, movement.AppendSpec{
			Operation: movement.OpInfoChange,
			Quantity:  0,
			Reason:    "Cambio de estado del pedido",
			Changes: movement.Changes{
				"status": {Old: string(o.Status), New: string(newStatus)},
			},
			OrderID: &oid,
			UserID:  appctx.UserID(ctx),
		}); err != nil {
			return err
		}

		o.Status = newStatus
		o.UpdatedAt = now
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order status updated",
		"order_id", out.ID,
		"status", string(out.Status),
	)
	return out, nil
}
