package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
	"estampa/internal/domain/movement"
)

func (f *fixture) placeOrder(t *testing.T) *Order {
	t.Helper()
	v := f.addVariant("S", 10, 9500)
	o, err := f.svc.Create(context.Background(), guestInput(LineInput{VariantID: &v.ID, Quantity: 1}))
	require.NoError(t, err)
	return o
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPendingPayment, StatusProcessing, true},
		{StatusPendingPayment, StatusCancelled, true},
		{StatusPendingPayment, StatusShipped, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCompleted, false},
		{StatusShipped, StatusCompleted, true},
		{StatusShipped, StatusCancelled, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPendingPayment, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestUpdateStatus_ValidTransition(t *testing.T) {
	f := newFixture()
	o := f.placeOrder(t)
	movementsBefore := len(f.movements.movements)

	got, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status)
	assert.Equal(t, StatusProcessing, f.orders.orders[o.ID].Status)

	require.Len(t, f.movements.movements, movementsBefore+1)
	m := f.movements.movements[len(f.movements.movements)-1]
	assert.Equal(t, movement.OpInfoChange, m.Operation)
	assert.Equal(t, 0, m.Quantity)
	require.NotNil(t, m.OrderID)
	assert.Equal(t, o.ID, *m.OrderID)
	require.Contains(t, m.Changes, "status")
	assert.Equal(t, string(StatusPendingPayment), m.Changes["status"].Old)
	assert.Equal(t, string(StatusProcessing), m.Changes["status"].New)
}

func TestUpdateStatus_SameStatusIsNoOp(t *testing.T) {
	f := newFixture()
	o := f.placeOrder(t)
	movementsBefore := len(f.movements.movements)
	updatedBefore := f.orders.orders[o.ID].UpdatedAt

	got, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusPendingPayment)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingPayment, got.Status)
	assert.Len(t, f.movements.movements, movementsBefore, "no movement for a no-op")
	assert.Equal(t, updatedBefore, f.orders.orders[o.ID].UpdatedAt)
}

func TestUpdateStatus_SkippingStateRejected(t *testing.T) {
	f := newFixture()
	o := f.placeOrder(t)

	_, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusShipped)
	assertCode(t, err, apperror.CodeConflict)
	assert.Equal(t, StatusPendingPayment, f.orders.orders[o.ID].Status)
}

func TestUpdateStatus_TerminalStateRejected(t *testing.T) {
	f := newFixture()
	o := f.placeOrder(t)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, o.ID, StatusCancelled)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, o.ID, StatusProcessing)
	assertCode(t, err, apperror.CodeConflict)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newFixture()
	o := f.placeOrder(t)

	_, err := f.svc.UpdateStatus(context.Background(), o.ID, Status("en_camino"))
	assertCode(t, err, apperror.CodeValidation)
}

func TestUpdateStatus_FullLifecycle(t *testing.T) {
	f := newFixture()
	o := f.placeOrder(t)
	ctx := context.Background()

	for _, next := range []Status{StatusProcessing, StatusShipped, StatusCompleted} {
		got, err := f.svc.UpdateStatus(ctx, o.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
	}

	assert.True(t, StatusCompleted.IsTerminal())
}

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.UpdateStatus(context.Background(), id.New(), StatusProcessing)
	assertCode(t, err, apperror.CodeNotFound)
}

func TestItemSubtotal(t *testing.T) {
	i := &Item{Quantity: 3, UnitPrice: decimal.NewFromInt(4500)}
	assert.True(t, i.Subtotal().Equal(decimal.NewFromInt(13500)))
}
