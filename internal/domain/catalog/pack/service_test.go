package pack

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
	"estampa/internal/domain/catalog/variant"
)

type passthroughTxm struct{}

func (passthroughTxm) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memPackRepo struct {
	packs map[id.ID]*Pack
}

func newMemPackRepo() *memPackRepo {
	return &memPackRepo{packs: make(map[id.ID]*Pack)}
}

func (r *memPackRepo) Create(ctx context.Context, p *Pack) error {
	cp := *p
	r.packs[p.ID] = &cp
	return nil
}

func (r *memPackRepo) GetByID(ctx context.Context, packID id.ID) (*Pack, error) {
	p, ok := r.packs[packID]
	if !ok {
		return nil, apperror.NewNotFound("pack", packID)
	}
	cp := *p
	cp.Items = nil
	return &cp, nil
}

func (r *memPackRepo) GetWithItems(ctx context.Context, packID id.ID) (*Pack, error) {
	p, ok := r.packs[packID]
	if !ok {
		return nil, apperror.NewNotFound("pack", packID)
	}
	cp := *p
	return &cp, nil
}

func (r *memPackRepo) SetActive(ctx context.Context, packID id.ID, active bool) error {
	r.packs[packID].Active = active
	return nil
}

func (r *memPackRepo) List(ctx context.Context, onlyActive bool) ([]Pack, error) {
	var out []Pack
	for _, p := range r.packs {
		if onlyActive && !p.Active {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *memPackRepo) CountPacksReferencing(ctx context.Context, variantID id.ID, onlyActive bool) (int, error) {
	n := 0
	for _, p := range r.packs {
		if onlyActive && !p.Active {
			continue
		}
		for _, item := range p.Items {
			if item.VariantID == variantID {
				n++
				break
			}
		}
	}
	return n, nil
}

// stubVariantRepo serves GetByID only; Expand never touches the rest.
type stubVariantRepo struct {
	variants map[id.ID]*variant.Variant
}

func (r *stubVariantRepo) GetByID(ctx context.Context, variantID id.ID) (*variant.Variant, error) {
	v, ok := r.variants[variantID]
	if !ok {
		return nil, apperror.NewNotFound("variant", variantID)
	}
	return v, nil
}

func (r *stubVariantRepo) Create(ctx context.Context, v *variant.Variant) error { return nil }
func (r *stubVariantRepo) GetDetail(ctx context.Context, variantID id.ID) (*variant.Detail, error) {
	return nil, apperror.NewNotFound("variant", variantID)
}
func (r *stubVariantRepo) GetDetailForUpdate(ctx context.Context, variantID id.ID) (*variant.Detail, error) {
	return nil, apperror.NewNotFound("variant", variantID)
}
func (r *stubVariantRepo) UpdateQuantity(ctx context.Context, variantID id.ID, quantity int) error {
	return nil
}
func (r *stubVariantRepo) Update(ctx context.Context, v *variant.Variant) error { return nil }
func (r *stubVariantRepo) Deactivate(ctx context.Context, variantID id.ID, byParent bool, at time.Time) error {
	return nil
}
func (r *stubVariantRepo) Restore(ctx context.Context, variantID id.ID) error    { return nil }
func (r *stubVariantRepo) HardDelete(ctx context.Context, variantID id.ID) error { return nil }
func (r *stubVariantRepo) ExistsByKey(ctx context.Context, typeID, colorID id.ID, size *string) (bool, error) {
	return false, nil
}
func (r *stubVariantRepo) ListByType(ctx context.Context, typeID id.ID) ([]variant.Variant, error) {
	return nil, nil
}
func (r *stubVariantRepo) List(ctx context.Context, filter variant.Filter) ([]variant.Detail, error) {
	return nil, nil
}

func activeVariant() *variant.Variant {
	return &variant.Variant{ID: id.New(), Quantity: 100, Active: true}
}

func newFixture() (*Service, *memPackRepo, *stubVariantRepo) {
	packRepo := newMemPackRepo()
	variantRepo := &stubVariantRepo{variants: make(map[id.ID]*variant.Variant)}
	return NewService(packRepo, variantRepo, passthroughTxm{}), packRepo, variantRepo
}

func TestExpand_MultipliesComponentQuantities(t *testing.T) {
	svc, packRepo, variantRepo := newFixture()

	v1 := activeVariant()
	v2 := activeVariant()
	variantRepo.variants[v1.ID] = v1
	variantRepo.variants[v2.ID] = v2

	p := &Pack{
		ID:     id.New(),
		Name:   "Combo",
		Price:  decimal.NewFromInt(20000),
		Active: true,
		Items: []Item{
			{VariantID: v1.ID, Quantity: 2},
			{VariantID: v2.ID, Quantity: 1},
		},
	}
	packRepo.packs[p.ID] = p

	got, reqs, err := svc.Expand(context.Background(), p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	require.Len(t, reqs, 2)

	byVariant := make(map[id.ID]int)
	for _, req := range reqs {
		byVariant[req.VariantID] = req.Quantity
	}
	assert.Equal(t, 6, byVariant[v1.ID])
	assert.Equal(t, 3, byVariant[v2.ID])

	assert.True(t, sort.SliceIsSorted(reqs, func(i, j int) bool {
		return reqs[i].VariantID.String() < reqs[j].VariantID.String()
	}), "requirements come out in stable variant order")
}

func TestExpand_RejectsNonPositiveQuantity(t *testing.T) {
	svc, _, _ := newFixture()

	_, _, err := svc.Expand(context.Background(), id.New(), 0)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestExpand_InactivePack(t *testing.T) {
	svc, packRepo, variantRepo := newFixture()

	v := activeVariant()
	variantRepo.variants[v.ID] = v
	p := &Pack{
		ID:     id.New(),
		Name:   "Retirado",
		Price:  decimal.NewFromInt(10000),
		Active: false,
		Items:  []Item{{VariantID: v.ID, Quantity: 1}},
	}
	packRepo.packs[p.ID] = p

	_, _, err := svc.Expand(context.Background(), p.ID, 1)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestExpand_InactiveComponent(t *testing.T) {
	svc, packRepo, variantRepo := newFixture()

	v := activeVariant()
	v.Active = false
	variantRepo.variants[v.ID] = v
	p := &Pack{
		ID:     id.New(),
		Name:   "Combo",
		Price:  decimal.NewFromInt(10000),
		Active: true,
		Items:  []Item{{VariantID: v.ID, Quantity: 1}},
	}
	packRepo.packs[p.ID] = p

	_, _, err := svc.Expand(context.Background(), p.ID, 1)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestCreate_RejectsInactiveComponent(t *testing.T) {
	svc, _, variantRepo := newFixture()

	v := activeVariant()
	v.Active = false
	variantRepo.variants[v.ID] = v

	_, err := svc.Create(context.Background(), &Pack{
		ID:    id.New(),
		Name:  "Combo",
		Price: decimal.NewFromInt(10000),
		Items: []Item{{VariantID: v.ID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestDeactivate_AlreadyInactive(t *testing.T) {
	svc, packRepo, _ := newFixture()

	p := &Pack{ID: id.New(), Name: "Combo", Active: false}
	packRepo.packs[p.ID] = p

	err := svc.Deactivate(context.Background(), p.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestUnitPrice(t *testing.T) {
	p := &Pack{
		Price:    decimal.NewFromInt(14000),
		Discount: decimal.NewFromInt(1500),
	}
	assert.True(t, p.UnitPrice().Equal(decimal.NewFromInt(12500)))
}

func TestValidate(t *testing.T) {
	vid := id.New()
	base := func() *Pack {
		return &Pack{
			ID:    id.New(),
			Name:  "Combo",
			Price: decimal.NewFromInt(10000),
			Items: []Item{{VariantID: vid, Quantity: 1}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(p *Pack)
		wantErr bool
	}{
		{name: "valid", mutate: func(p *Pack) {}},
		{name: "empty name", mutate: func(p *Pack) { p.Name = "" }, wantErr: true},
		{name: "no items", mutate: func(p *Pack) { p.Items = nil }, wantErr: true},
		{name: "zero quantity", mutate: func(p *Pack) { p.Items[0].Quantity = 0 }, wantErr: true},
		{
			name:    "discount exceeds price",
			mutate:  func(p *Pack) { p.Discount = decimal.NewFromInt(10001) },
			wantErr: true,
		},
		{
			name: "duplicate component",
			mutate: func(p *Pack) {
				p.Items = append(p.Items, Item{VariantID: vid, Quantity: 2})
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(p)
			err := p.Validate(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
