package itemtype

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

type passthroughTxm struct{}

func (passthroughTxm) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	types  map[id.ID]*ItemType
	prices map[id.ID][]StampingPrice
}

func newMemRepo() *memRepo {
	return &memRepo{
		types:  make(map[id.ID]*ItemType),
		prices: make(map[id.ID][]StampingPrice),
	}
}

func (r *memRepo) Create(ctx context.Context, t *ItemType) error {
	cp := *t
	r.types[t.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, typeID id.ID) (*ItemType, error) {
	t, ok := r.types[typeID]
	if !ok {
		return nil, apperror.NewNotFound("item type", typeID)
	}
	cp := *t
	return &cp, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, typeID id.ID) (*ItemType, error) {
	return r.GetByID(ctx, typeID)
}

func (r *memRepo) GetWithPrices(ctx context.Context, typeID id.ID) (*ItemType, error) {
	t, err := r.GetByID(ctx, typeID)
	if err != nil {
		return nil, err
	}
	t.StampingPrices = r.prices[typeID]
	return t, nil
}

func (r *memRepo) Update(ctx context.Context, t *ItemType) error {
	cp := *t
	r.types[t.ID] = &cp
	return nil
}

func (r *memRepo) SaveStampingPrices(ctx context.Context, typeID id.ID, prices []StampingPrice) error {
	r.prices[typeID] = prices
	return nil
}

func (r *memRepo) SetActive(ctx context.Context, typeID id.ID, active bool, at time.Time) error {
	r.types[typeID].Active = active
	return nil
}

func (r *memRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	for _, t := range r.types {
		if t.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) List(ctx context.Context, filter Filter) ([]ItemType, error) {
	var out []ItemType
	for _, t := range r.types {
		if filter.OnlyActive && !t.Active {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func TestCreate_WithStampingPrices(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passthroughTxm{})

	got, err := svc.Create(context.Background(), CreateSpec{
		Name:     "Camiseta clásica",
		Category: CategoryShirt,
		HasSizes: true,
		StampingPrices: []StampingPrice{
			{Slug: "pecho", Price: decimal.NewFromInt(1500)},
			{Slug: "espalda", Price: decimal.NewFromInt(2000)},
		},
	})
	require.NoError(t, err)
	assert.True(t, got.Active)

	saved := repo.prices[got.ID]
	require.Len(t, saved, 2)
	for _, sp := range saved {
		assert.Equal(t, got.ID, sp.ItemTypeID, "tiers carry the owning type id")
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passthroughTxm{})
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateSpec{Name: "Taza", Category: CategoryMug})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateSpec{Name: "Taza", Category: CategoryMug})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestCreate_InvalidCategory(t *testing.T) {
	svc := NewService(newMemRepo(), passthroughTxm{})

	_, err := svc.Create(context.Background(), CreateSpec{
		Name:     "Llaveros",
		Category: Category("llavero"),
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreate_NegativeStampingPrice(t *testing.T) {
	svc := NewService(newMemRepo(), passthroughTxm{})

	_, err := svc.Create(context.Background(), CreateSpec{
		Name:     "Camiseta",
		Category: CategoryShirt,
		StampingPrices: []StampingPrice{
			{Slug: "pecho", Price: decimal.NewFromInt(-1)},
		},
	})
	require.Error(t, err)
}

func TestUpdatePrices_ReplacesTiers(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passthroughTxm{})
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateSpec{
		Name:     "Buzo",
		Category: CategoryHoodie,
		StampingPrices: []StampingPrice{
			{Slug: "pecho", Price: decimal.NewFromInt(1500)},
		},
	})
	require.NoError(t, err)

	_, err = svc.UpdatePrices(ctx, created.ID, []StampingPrice{
		{Slug: "espalda", Price: decimal.NewFromInt(2500)},
		{Slug: "bordado", Price: decimal.NewFromInt(4000)},
	})
	require.NoError(t, err)

	saved := repo.prices[created.ID]
	require.Len(t, saved, 2)
	assert.Equal(t, "espalda", saved[0].Slug)
}

func TestDefaultMinStock(t *testing.T) {
	tests := []struct {
		category Category
		want     int
	}{
		{CategoryShirt, 5},
		{CategoryHoodie, 5},
		{CategoryCap, 10},
		{CategoryMug, 6},
		{CategoryOther, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.category.DefaultMinStock(), string(tt.category))
	}
}

func TestPriceMap(t *testing.T) {
	it := &ItemType{
		StampingPrices: []StampingPrice{
			{Slug: "pecho", Price: decimal.NewFromInt(1500)},
			{Slug: "espalda", Price: decimal.NewFromInt(2000)},
		},
	}
	m := it.PriceMap()
	require.Len(t, m, 2)
	assert.True(t, m["pecho"].Equal(decimal.NewFromInt(1500)))
}
