package movement

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
)

// fakeRepo is an in-memory movement store.
type fakeRepo struct {
	movements  []Movement
	lastFilter Filter
}

func (f *fakeRepo) Append(ctx context.Context, m *Movement) error {
	f.movements = append(f.movements, *m)
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, movementID id.ID) (*Movement, error) {
	for i := range f.movements {
		if f.movements[i].ID == movementID {
			return &f.movements[i], nil
		}
	}
	return nil, apperror.NewNotFound("movement", movementID)
}

func (f *fakeRepo) List(ctx context.Context, filter Filter) ([]Movement, error) {
	f.lastFilter = filter
	return f.movements, nil
}

func (f *fakeRepo) Totals(ctx context.Context, filter Filter) (Totals, error) {
	t := Totals{
		ByType:      make(map[Type]int),
		ByOperation: make(map[Operation]int),
	}
	for _, m := range f.movements {
		t.ByType[m.Type] += m.Quantity
		t.ByOperation[m.Operation] += m.Quantity
		t.Count++
	}
	return t, nil
}

func (f *fakeRepo) SoftDeleteByVariant(ctx context.Context, variantID id.ID, at time.Time) error {
	for i := range f.movements {
		if f.movements[i].VariantID != nil && *f.movements[i].VariantID == variantID && f.movements[i].DeletedAt == nil {
			at := at
			f.movements[i].DeletedAt = &at
		}
	}
	return nil
}

func (f *fakeRepo) RestoreByVariant(ctx context.Context, variantID id.ID) error {
	for i := range f.movements {
		if f.movements[i].VariantID != nil && *f.movements[i].VariantID == variantID {
			f.movements[i].DeletedAt = nil
		}
	}
	return nil
}

func (f *fakeRepo) DetachVariant(ctx context.Context, variantID id.ID) error {
	for i := range f.movements {
		if f.movements[i].VariantID != nil && *f.movements[i].VariantID == variantID {
			f.movements[i].VariantID = nil
		}
	}
	return nil
}

func TestAppend_CatalogDefaults(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		spec       AppendSpec
		wantOp     Operation
		wantType   Type
		wantReason string
	}{
		{
			name:       "sale defaults to outgoing",
			spec:       AppendSpec{Operation: OpSale, Quantity: 3},
			wantOp:     OpSale,
			wantType:   TypeOut,
			wantReason: "Venta",
		},
		{
			name:       "purchase defaults to incoming",
			spec:       AppendSpec{Operation: OpPurchase, Quantity: 10},
			wantOp:     OpPurchase,
			wantType:   TypeIn,
			wantReason: "Compra de mercadería",
		},
		{
			name:       "explicit type overrides catalog default",
			spec:       AppendSpec{Operation: OpManualAdjust, Type: TypeIn, Quantity: 2},
			wantOp:     OpManualAdjust,
			wantType:   TypeIn,
			wantReason: "Ajuste manual de inventario",
		},
		{
			name:       "explicit reason overrides catalog default",
			spec:       AppendSpec{Operation: OpWaste, Quantity: 1, Reason: "Rotura en depósito"},
			wantOp:     OpWaste,
			wantType:   TypeOut,
			wantReason: "Rotura en depósito",
		},
		{
			name:       "unknown slug falls back to generic adjustment",
			spec:       AppendSpec{Operation: Operation("limpieza"), Quantity: 0},
			wantOp:     OpUnspecified,
			wantType:   TypeAdjust,
			wantReason: "Sin especificar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			r := NewRecorder(repo)

			m, err := r.Append(ctx, tt.spec)
			require.NoError(t, err)

			assert.Equal(t, tt.wantOp, m.Operation)
			assert.Equal(t, tt.wantType, m.Type)
			assert.Equal(t, tt.wantReason, m.Reason)
			require.Len(t, repo.movements, 1)
		})
	}
}

func TestAppend_NegativeQuantityRejected(t *testing.T) {
	r := NewRecorder(&fakeRepo{})

	_, err := r.Append(context.Background(), AppendSpec{Operation: OpSale, Quantity: -1})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestAppend_FreezesSnapshot(t *testing.T) {
	repo := &fakeRepo{}
	r := NewRecorder(repo)

	size := "M"
	vid := id.New()
	uid := id.New()
	m, err := r.Append(context.Background(), AppendSpec{
		Operation: OpInitialLoad,
		Quantity:  15,
		Snapshot: Snapshot{
			ItemName: "Camiseta clásica",
			Color:    "Negro",
			Size:     &size,
			Price:    decimal.NewFromInt(9500),
		},
		VariantID: &vid,
		UserID:    &uid,
	})
	require.NoError(t, err)

	assert.Equal(t, "Camiseta clásica", m.ItemName)
	assert.Equal(t, "Negro", m.Color)
	require.NotNil(t, m.Size)
	assert.Equal(t, "M", *m.Size)
	assert.True(t, m.Price.Equal(decimal.NewFromInt(9500)))
	assert.Equal(t, vid, *m.VariantID)
	assert.Equal(t, uid, *m.UserID)
	assert.False(t, id.IsNil(m.ID))
}

func TestList_AppliesDefaultLimit(t *testing.T) {
	repo := &fakeRepo{}
	r := NewRecorder(repo)

	_, err := r.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, 100, repo.lastFilter.Limit)
}

func TestList_InvertedDateRange(t *testing.T) {
	r := NewRecorder(&fakeRepo{})

	from := time.Now()
	to := from.Add(-time.Hour)
	_, err := r.List(context.Background(), Filter{FromDate: &from, ToDate: &to})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestList_ReturnsTotals(t *testing.T) {
	repo := &fakeRepo{}
	r := NewRecorder(repo)
	ctx := context.Background()

	_, err := r.Append(ctx, AppendSpec{Operation: OpPurchase, Quantity: 10})
	require.NoError(t, err)
	_, err = r.Append(ctx, AppendSpec{Operation: OpSale, Quantity: 3})
	require.NoError(t, err)
	_, err = r.Append(ctx, AppendSpec{Operation: OpWaste, Quantity: 2})
	require.NoError(t, err)

	result, err := r.List(ctx, Filter{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Totals.Count)
	assert.Equal(t, 10, result.Totals.ByType[TypeIn])
	assert.Equal(t, 5, result.Totals.ByType[TypeOut])
	assert.Equal(t, 3, result.Totals.ByOperation[OpSale])
	assert.Equal(t, 2, result.Totals.ByOperation[OpWaste])
}

func TestHistoryLifecycle(t *testing.T) {
	repo := &fakeRepo{}
	r := NewRecorder(repo)
	ctx := context.Background()
	vid := id.New()

	_, err := r.Append(ctx, AppendSpec{Operation: OpInitialLoad, Quantity: 5, VariantID: &vid})
	require.NoError(t, err)

	require.NoError(t, r.HideVariantHistory(ctx, vid, time.Now()))
	assert.NotNil(t, repo.movements[0].DeletedAt)

	require.NoError(t, r.RestoreVariantHistory(ctx, vid))
	assert.Nil(t, repo.movements[0].DeletedAt)

	require.NoError(t, r.DetachVariantHistory(ctx, vid))
	assert.Nil(t, repo.movements[0].VariantID)
}

func TestResolve_Known(t *testing.T) {
	assert.True(t, Known(OpSale))
	assert.True(t, Known(OpPackAssembly))
	assert.False(t, Known(Operation("inventario_magico")))
}
