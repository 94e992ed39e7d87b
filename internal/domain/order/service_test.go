package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estampa/internal/core/apperror"
	appctx "estampa/internal/core/context"
	"estampa/internal/core/id"
	"estampa/internal/domain/catalog/color"
	"estampa/internal/domain/catalog/itemtype"
	"estampa/internal/domain/catalog/pack"
	"estampa/internal/domain/catalog/variant"
	"estampa/internal/domain/movement"
)

type passthroughTxm struct{}

func (passthroughTxm) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memVariantRepo struct {
	variants map[id.ID]*variant.Variant
	types    map[id.ID]*itemtype.ItemType
	colors   map[id.ID]*color.Color
}

func (r *memVariantRepo) Create(ctx context.Context, v *variant.Variant) error { return nil }

func (r *memVariantRepo) GetByID(ctx context.Context, variantID id.ID) (*variant.Variant, error) {
	v, ok := r.variants[variantID]
	if !ok {
		return nil, apperror.NewNotFound("variant", variantID)
	}
	cp := *v
	return &cp, nil
}

func (r *memVariantRepo) GetDetail(ctx context.Context, variantID id.ID) (*variant.Detail, error) {
	v, ok := r.variants[variantID]
	if !ok {
		return nil, apperror.NewNotFound("variant", variantID)
	}
	d := variant.Detail{Variant: *v}
	if t, ok := r.types[v.ItemTypeID]; ok {
		d.TypeName = t.Name
		d.TypeActive = t.Active
	}
	if c, ok := r.colors[v.ColorID]; ok {
		d.ColorName = c.Name
	}
	return &d, nil
}

func (r *memVariantRepo) GetDetailForUpdate(ctx context.Context, variantID id.ID) (*variant.Detail, error) {
	return r.GetDetail(ctx, variantID)
}

func (r *memVariantRepo) UpdateQuantity(ctx context.Context, variantID id.ID, quantity int) error {
	r.variants[variantID].Quantity = quantity
	return nil
}

func (r *memVariantRepo) Update(ctx context.Context, v *variant.Variant) error { return nil }

func (r *memVariantRepo) Deactivate(ctx context.Context, variantID id.ID, byParent bool, at time.Time) error {
	return nil
}

func (r *memVariantRepo) Restore(ctx context.Context, variantID id.ID) error    { return nil }
func (r *memVariantRepo) HardDelete(ctx context.Context, variantID id.ID) error { return nil }

func (r *memVariantRepo) ExistsByKey(ctx context.Context, typeID, colorID id.ID, size *string) (bool, error) {
	return false, nil
}

func (r *memVariantRepo) ListByType(ctx context.Context, typeID id.ID) ([]variant.Variant, error) {
	return nil, nil
}

func (r *memVariantRepo) List(ctx context.Context, filter variant.Filter) ([]variant.Detail, error) {
	return nil, nil
}

type memTypeRepo struct {
	types map[id.ID]*itemtype.ItemType
}

func (r *memTypeRepo) Create(ctx context.Context, t *itemtype.ItemType) error { return nil }

func (r *memTypeRepo) GetByID(ctx context.Context, typeID id.ID) (*itemtype.ItemType, error) {
	t, ok := r.types[typeID]
	if !ok {
		return nil, apperror.NewNotFound("item type", typeID)
	}
	cp := *t
	return &cp, nil
}

func (r *memTypeRepo) GetForUpdate(ctx context.Context, typeID id.ID) (*itemtype.ItemType, error) {
	return r.GetByID(ctx, typeID)
}

func (r *memTypeRepo) GetWithPrices(ctx context.Context, typeID id.ID) (*itemtype.ItemType, error) {
	return r.GetByID(ctx, typeID)
}

func (r *memTypeRepo) Update(ctx context.Context, t *itemtype.ItemType) error { return nil }

func (r *memTypeRepo) SaveStampingPrices(ctx context.Context, typeID id.ID, prices []itemtype.StampingPrice) error {
	return nil
}

func (r *memTypeRepo) SetActive(ctx context.Context, typeID id.ID, active bool, at time.Time) error {
	return nil
}

func (r *memTypeRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	return false, nil
}

func (r *memTypeRepo) List(ctx context.Context, filter itemtype.Filter) ([]itemtype.ItemType, error) {
	return nil, nil
}

type memColorRepo struct{}

func (memColorRepo) Create(ctx context.Context, c *color.Color) error { return nil }
func (memColorRepo) GetByID(ctx context.Context, colorID id.ID) (*color.Color, error) {
	return nil, apperror.NewNotFound("color", colorID)
}
func (memColorRepo) GetByName(ctx context.Context, name string) (*color.Color, error) {
	return nil, apperror.NewNotFound("color", name)
}
func (memColorRepo) List(ctx context.Context) ([]color.Color, error) { return nil, nil }

type memPackRepo struct {
	packs map[id.ID]*pack.Pack
}

func (r *memPackRepo) Create(ctx context.Context, p *pack.Pack) error { return nil }

func (r *memPackRepo) GetByID(ctx context.Context, packID id.ID) (*pack.Pack, error) {
	return r.GetWithItems(ctx, packID)
}

func (r *memPackRepo) GetWithItems(ctx context.Context, packID id.ID) (*pack.Pack, error) {
	p, ok := r.packs[packID]
	if !ok {
		return nil, apperror.NewNotFound("pack", packID)
	}
	cp := *p
	return &cp, nil
}

func (r *memPackRepo) SetActive(ctx context.Context, packID id.ID, active bool) error { return nil }

func (r *memPackRepo) List(ctx context.Context, onlyActive bool) ([]pack.Pack, error) {
	return nil, nil
}

func (r *memPackRepo) CountPacksReferencing(ctx context.Context, variantID id.ID, onlyActive bool) (int, error) {
	return 0, nil
}

type memMovementRepo struct {
	movements []movement.Movement
}

func (r *memMovementRepo) Append(ctx context.Context, m *movement.Movement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *memMovementRepo) GetByID(ctx context.Context, movementID id.ID) (*movement.Movement, error) {
	return nil, apperror.NewNotFound("movement", movementID)
}

func (r *memMovementRepo) List(ctx context.Context, filter movement.Filter) ([]movement.Movement, error) {
	return r.movements, nil
}

func (r *memMovementRepo) Totals(ctx context.Context, filter movement.Filter) (movement.Totals, error) {
	return movement.Totals{}, nil
}

func (r *memMovementRepo) SoftDeleteByVariant(ctx context.Context, variantID id.ID, at time.Time) error {
	return nil
}

func (r *memMovementRepo) RestoreByVariant(ctx context.Context, variantID id.ID) error { return nil }
func (r *memMovementRepo) DetachVariant(ctx context.Context, variantID id.ID) error    { return nil }

type memOrderRepo struct {
	orders map[id.ID]*Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[id.ID]*Order)}
}

func (r *memOrderRepo) Create(ctx context.Context, o *Order) error {
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *memOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *memOrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, status Status, at time.Time) error {
	o := r.orders[orderID]
	o.Status = status
	o.UpdatedAt = at
	return nil
}

func (r *memOrderRepo) List(ctx context.Context, filter Filter) ([]Order, error) {
	var out []Order
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, nil
}

type fixture struct {
	svc       *Service
	orders    *memOrderRepo
	variants  *memVariantRepo
	packs     *memPackRepo
	movements *memMovementRepo

	shirtType *itemtype.ItemType
	black     *color.Color
}

func newFixture() *fixture {
	shirt := itemtype.New("Camiseta clásica", itemtype.CategoryShirt, true)
	shirt.StampingPrices = []itemtype.StampingPrice{
		{ItemTypeID: shirt.ID, Slug: "pecho", Price: decimal.NewFromInt(1500)},
		{ItemTypeID: shirt.ID, Slug: "espalda", Price: decimal.NewFromInt(2000)},
	}
	black := color.New("Negro", nil)

	variantRepo := &memVariantRepo{
		variants: make(map[id.ID]*variant.Variant),
		types:    map[id.ID]*itemtype.ItemType{shirt.ID: shirt},
		colors:   map[id.ID]*color.Color{black.ID: black},
	}
	typeRepo := &memTypeRepo{types: variantRepo.types}
	packRepo := &memPackRepo{packs: make(map[id.ID]*pack.Pack)}
	movementRepo := &memMovementRepo{}
	orderRepo := newMemOrderRepo()

	txm := passthroughTxm{}
	recorder := movement.NewRecorder(movementRepo)
	ledger := variant.NewService(variantRepo, typeRepo, memColorRepo{}, variant.NoPackRefs(), recorder, txm)
	packService := pack.NewService(packRepo, variantRepo, txm)

	svc := NewService(orderRepo, ledger, variantRepo, packService, typeRepo, recorder, txm)
	return &fixture{
		svc:       svc,
		orders:    orderRepo,
		variants:  variantRepo,
		packs:     packRepo,
		movements: movementRepo,
		shirtType: shirt,
		black:     black,
	}
}

func (f *fixture) addVariant(size string, qty int, price int64) *variant.Variant {
	s := size
	v := &variant.Variant{
		ID:         id.New(),
		ItemTypeID: f.shirtType.ID,
		ColorID:    f.black.ID,
		Size:       &s,
		Quantity:   qty,
		MinStock:   5,
		Price:      decimal.NewFromInt(price),
		Active:     true,
	}
	f.variants.variants[v.ID] = v
	return v
}

func (f *fixture) addPack(price, discount int64, items ...pack.Item) *pack.Pack {
	p := &pack.Pack{
		ID:       id.New(),
		Name:     "Combo",
		Price:    decimal.NewFromInt(price),
		Discount: decimal.NewFromInt(discount),
		Active:   true,
		Items:    items,
	}
	f.packs.packs[p.ID] = p
	return p
}

func guestInput(items ...LineInput) CreateInput {
	return CreateInput{
		Items:      items,
		GuestName:  "Ana García",
		GuestEmail: "ana@example.com",
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestCreate_VariantLine(t *testing.T) {
	f := newFixture()
	v := f.addVariant("M", 10, 9500)

	input := guestInput(LineInput{VariantID: &v.ID, Quantity: 2})
	input.ShippingCost = decimal.NewFromInt(2500)

	o, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, StatusPendingPayment, o.Status)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Camiseta clásica Negro (M)", o.Items[0].Name)
	assert.True(t, o.Items[0].UnitPrice.Equal(decimal.NewFromInt(9500)))
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(19000)))
	assert.True(t, o.Total.Equal(decimal.NewFromInt(21500)))

	assert.Equal(t, 8, f.variants.variants[v.ID].Quantity)

	require.Len(t, f.movements.movements, 1)
	m := f.movements.movements[0]
	assert.Equal(t, movement.OpSale, m.Operation)
	assert.Equal(t, movement.TypeOut, m.Type)
	assert.Equal(t, 2, m.Quantity)
	require.NotNil(t, m.OrderID)
	assert.Equal(t, o.ID, *m.OrderID)
}

func TestCreate_AddOnPricing(t *testing.T) {
	f := newFixture()
	v := f.addVariant("M", 10, 9500)

	o, err := f.svc.Create(context.Background(), guestInput(LineInput{
		VariantID: &v.ID,
		Quantity:  1,
		AddOns:    []string{"pecho", "espalda"},
	}))
	require.NoError(t, err)

	// 9500 + 1500 + 2000
	assert.True(t, o.Items[0].UnitPrice.Equal(decimal.NewFromInt(13000)))
	assert.Equal(t, []string{"pecho", "espalda"}, o.Items[0].AddOns)
}

func TestCreate_UnknownAddOn(t *testing.T) {
	f := newFixture()
	v := f.addVariant("M", 10, 9500)

	_, err := f.svc.Create(context.Background(), guestInput(LineInput{
		VariantID: &v.ID,
		Quantity:  1,
		AddOns:    []string{"manga"},
	}))
	assertCode(t, err, apperror.CodeValidation)
	assert.Empty(t, f.orders.orders, "no order persisted")
	assert.Equal(t, 10, f.variants.variants[v.ID].Quantity)
}

func TestCreate_PackLine(t *testing.T) {
	f := newFixture()
	v1 := f.addVariant("M", 10, 9500)
	v2 := f.addVariant("L", 10, 9500)
	p := f.addPack(20000, 2000,
		pack.Item{VariantID: v1.ID, Quantity: 2},
		pack.Item{VariantID: v2.ID, Quantity: 1},
	)

	o, err := f.svc.Create(context.Background(), guestInput(LineInput{PackID: &p.ID, Quantity: 2}))
	require.NoError(t, err)

	require.Len(t, o.Items, 1)
	assert.Equal(t, "Combo", o.Items[0].Name)
	assert.True(t, o.Items[0].UnitPrice.Equal(decimal.NewFromInt(18000)), "pack price minus discount")
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(36000)))

	assert.Equal(t, 6, f.variants.variants[v1.ID].Quantity)
	assert.Equal(t, 8, f.variants.variants[v2.ID].Quantity)
}

func TestCreate_AggregatesDirectAndPackDemand(t *testing.T) {
	f := newFixture()
	v := f.addVariant("M", 10, 9500)
	p := f.addPack(25000, 0, pack.Item{VariantID: v.ID, Quantity: 3})

	o, err := f.svc.Create(context.Background(), guestInput(
		LineInput{VariantID: &v.ID, Quantity: 2},
		LineInput{PackID: &p.ID, Quantity: 1},
	))
	require.NoError(t, err)
	require.Len(t, o.Items, 2)

	// 2 direct + 3 via the pack, decremented once by the sum.
	assert.Equal(t, 5, f.variants.variants[v.ID].Quantity)
	require.Len(t, f.movements.movements, 1)
	assert.Equal(t, 5, f.movements.movements[0].Quantity)
}

func TestCreate_InsufficientStockAbortsWholeOrder(t *testing.T) {
	f := newFixture()
	plenty := f.addVariant("M", 100, 9500)
	short := f.addVariant("L", 1, 9500)

	_, err := f.svc.Create(context.Background(), guestInput(
		LineInput{VariantID: &plenty.ID, Quantity: 2},
		LineInput{VariantID: &short.ID, Quantity: 2},
	))
	assertCode(t, err, apperror.CodeInsufficientStock)

	assert.Empty(t, f.orders.orders)
	assert.Equal(t, 100, f.variants.variants[plenty.ID].Quantity, "no partial decrement")
	assert.Empty(t, f.movements.movements)
}

func TestCreate_AggregatedDemandExceedsStock(t *testing.T) {
	f := newFixture()
	// Each line alone is coverable; the sum is not.
	v := f.addVariant("M", 4, 9500)
	p := f.addPack(25000, 0, pack.Item{VariantID: v.ID, Quantity: 3})

	_, err := f.svc.Create(context.Background(), guestInput(
		LineInput{VariantID: &v.ID, Quantity: 2},
		LineInput{PackID: &p.ID, Quantity: 1},
	))
	assertCode(t, err, apperror.CodeInsufficientStock)
	assert.Empty(t, f.orders.orders)
}

func TestCreate_InactiveVariant(t *testing.T) {
	f := newFixture()
	v := f.addVariant("M", 10, 9500)
	v.Active = false

	_, err := f.svc.Create(context.Background(), guestInput(LineInput{VariantID: &v.ID, Quantity: 1}))
	assertCode(t, err, apperror.CodeConflict)
}

func TestCreate_InactiveType(t *testing.T) {
	f := newFixture()
	v := f.addVariant("M", 10, 9500)
	f.shirtType.Active = false

	_, err := f.svc.Create(context.Background(), guestInput(LineInput{VariantID: &v.ID, Quantity: 1}))
	assertCode(t, err, apperror.CodeConflict)
}

func TestCreate_LineValidation(t *testing.T) {
	f := newFixture()
	v := f.addVariant("M", 10, 9500)
	p := f.addPack(20000, 0, pack.Item{VariantID: v.ID, Quantity: 1})

	tests := []struct {
		name  string
		input CreateInput
	}{
		{name: "no items", input: guestInput()},
		{
			name:  "neither variant nor pack",
			input: guestInput(LineInput{Quantity: 1}),
		},
		{
			name:  "both variant and pack",
			input: guestInput(LineInput{VariantID: &v.ID, PackID: &p.ID, Quantity: 1}),
		},
		{
			name:  "zero quantity",
			input: guestInput(LineInput{VariantID: &v.ID, Quantity: 0}),
		},
		{
			name:  "pack with add-ons",
			input: guestInput(LineInput{PackID: &p.ID, Quantity: 1, AddOns: []string{"pecho"}}),
		},
		{
			name: "negative shipping",
			input: CreateInput{
				Items:        []LineInput{{VariantID: &v.ID, Quantity: 1}},
				GuestEmail:   "ana@example.com",
				ShippingCost: decimal.NewFromInt(-1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.input)
			assertCode(t, err, apperror.CodeValidation)
		})
	}
}

func TestCreate_GuestEmailRequired(t *testing.T) {
	f := newFixture()
	v := f.addVariant("M", 10, 9500)

	_, err := f.svc.Create(context.Background(), CreateInput{
		Items: []LineInput{{VariantID: &v.ID, Quantity: 1}},
	})
	assertCode(t, err, apperror.CodeValidation)

	_, err = f.svc.Create(context.Background(), CreateInput{
		Items:      []LineInput{{VariantID: &v.ID, Quantity: 1}},
		GuestEmail: "not-an-email",
	})
	assertCode(t, err, apperror.CodeValidation)
}

func TestCreate_AuthenticatedUserSkipsGuestChecks(t *testing.T) {
	f := newFixture()
	v := f.addVariant("M", 10, 9500)

	uid := id.New()
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: uid,
		Email:  "ana@example.com",
		Role:   "customer",
	})

	o, err := f.svc.Create(ctx, CreateInput{
		Items: []LineInput{{VariantID: &v.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, o.UserID)
	assert.Equal(t, uid, *o.UserID)

	require.Len(t, f.movements.movements, 1)
	require.NotNil(t, f.movements.movements[0].UserID)
	assert.Equal(t, uid, *f.movements.movements[0].UserID)
}
