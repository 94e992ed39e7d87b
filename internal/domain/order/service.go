package order

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"estampa/internal/core/apperror"
	appctx "estampa/internal/core/context"
	"estampa/internal/core/id"
	"estampa/internal/core/tx"
	"estampa/internal/domain/catalog/itemtype"
	"estampa/internal/domain/catalog/pack"
	"estampa/internal/domain/catalog/variant"
	"estampa/internal/domain/movement"
	"estampa/pkg/logger"
)

// Service fulfills orders against the stock ledger.
type Service struct {
	repo     Repository
	ledger   *variant.Service
	variants variant.Repository
	packs    *pack.Service
	types    itemtype.Repository
	recorder *movement.Recorder
	txm      tx.Manager
}

// NewService creates an order fulfillment service.
func NewService(
	repo Repository,
	ledger *variant.Service,
	variants variant.Repository,
	packs *pack.Service,
	types itemtype.Repository,
	recorder *movement.Recorder,
	txm tx.Manager,
) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledger,
		variants: variants,
		packs:    packs,
		types:    types,
		recorder: recorder,
		txm:      txm,
	}
}

// LineInput is one requested order line. Exactly one of VariantID or
// PackID must be set.
type LineInput struct {
	VariantID *id.ID
	PackID    *id.ID
	Quantity  int

	// AddOns selects stamping price tiers by slug (variant lines only).
	AddOns []string

	StampImageURL     *string
	StampInstructions *string
}

// CreateInput is a validated order payload.
type CreateInput struct {
	Items []LineInput

	GuestName  string
	GuestEmail string

	ShippingAddress string
	ShippingCity    string
	ShippingZip     string
	ShippingCost    decimal.Decimal
}

// Create validates, prices and persists an order, decrementing stock for
// every line in one transaction.
//
// Decrements are aggregated per variant first (a variant ordered directly
// and again inside a pack is decremented once, by the sum) and applied in
// ascending variant-id order so two orders sharing pack components cannot
// deadlock. Any failure (unknown add-on, inactive pack, insufficient
// stock on any component) rolls back the order, its items and every
// movement of the attempt.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Order, error) {
	if len(input.Items) == 0 {
		return nil, apperror.NewValidation("order needs at least one item").
			WithDetail("field", "items")
	}
	if input.ShippingCost.IsNegative() {
		return nil, apperror.NewValidation("shipping cost cannot be negative").
			WithDetail("field", "shippingCost")
	}
	for i, line := range input.Items {
		if (line.VariantID == nil) == (line.PackID == nil) {
			return nil, apperror.NewValidation("each item references exactly one of variant or pack").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
		if line.Quantity <= 0 {
			return nil, apperror.NewValidation("item quantity must be positive").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
		if line.PackID != nil && len(line.AddOns) > 0 {
			return nil, apperror.NewValidation("packs do not take add-ons").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
	}

	now := time.Now().UTC()
	o := &Order{
		ID:              id.New(),
		UserID:          appctx.UserID(ctx),
		GuestName:       input.GuestName,
		GuestEmail:      input.GuestEmail,
		ShippingAddress: input.ShippingAddress,
		ShippingCity:    input.ShippingCity,
		ShippingZip:     input.ShippingZip,
		ShippingCost:    input.ShippingCost,
		Status:          StatusPendingPayment,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := o.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		required, err := s.priceLines(ctx, o, input.Items)
		if err != nil {
			return err
		}

		// All components must be coverable before any write: a single
		// short variant aborts the whole order.
		if err := s.checkStock(ctx, required); err != nil {
			return err
		}

		o.Subtotal = decimal.Zero
		for _, item := range o.Items {
			o.Subtotal = o.Subtotal.Add(item.Subtotal())
		}
		o.Total = o.Subtotal.Add(o.ShippingCost)

		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		// Locked reads and decrements, in stable variant-id order. The
		// ledger re-checks sufficiency under the row lock; the earlier
		// check only fails fast.
		orderID := o.ID
		for _, req := range sortRequirements(required) {
			if _, err := s.ledger.Adjust(ctx, variant.AdjustSpec{
				VariantID: req.VariantID,
				Delta:     -req.Quantity,
				Operation: movement.OpSale,
				OrderID:   &orderID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order created",
		"order_id", o.ID,
		"items", len(o.Items),
		"total", o.Total.String(),
		"guest", o.UserID == nil,
	)
	return o, nil
}

// priceLines resolves every input line into a priced order item and
// accumulates the per-variant stock requirements.
func (s *Service) priceLines(ctx context.Context, o *Order, lines []LineInput) (map[id.ID]int, error) {
	required := make(map[id.ID]int)
	priceMaps := make(map[id.ID]map[string]decimal.Decimal)

	for _, line := range lines {
		item := Item{
			ID:                id.New(),
			OrderID:           o.ID,
			Quantity:          line.Quantity,
			AddOns:            line.AddOns,
			StampImageURL:     line.StampImageURL,
			StampInstructions: line.StampInstructions,
		}

		switch {
		case line.VariantID != nil:
			d, err := s.variants.GetDetail(ctx, *line.VariantID)
			if err != nil {
				return nil, err
			}
			if !d.Active || !d.TypeActive {
				return nil, apperror.NewConflict("variant is not available").
					WithDetail("variant_id", d.ID.String())
			}

			unit := d.Price
			if len(line.AddOns) > 0 {
				prices, ok := priceMaps[d.ItemTypeID]
				if !ok {
					t, err := s.types.GetWithPrices(ctx, d.ItemTypeID)
					if err != nil {
						return nil, err
					}
					prices = t.PriceMap()
					priceMaps[d.ItemTypeID] = prices
				}
				for _, slug := range line.AddOns {
					cost, ok := prices[slug]
					if !ok {
						return nil, apperror.NewValidation("add-on has no defined cost for this item type").
							WithDetail("add_on", slug).
							WithDetail("item_type_id", d.ItemTypeID.String())
					}
					unit = unit.Add(cost)
				}
			}

			vid := d.ID
			item.VariantID = &vid
			item.UnitPrice = unit
			item.Name = variantDisplayName(d)
			required[d.ID] += line.Quantity

		case line.PackID != nil:
			p, reqs, err := s.packs.Expand(ctx, *line.PackID, line.Quantity)
			if err != nil {
				return nil, err
			}
			pid := p.ID
			item.PackID = &pid
			item.UnitPrice = p.UnitPrice()
			item.Name = p.Name
			for _, req := range reqs {
				required[req.VariantID] += req.Quantity
			}
		}

		o.Items = append(o.Items, item)
	}

	return required, nil
}

// checkStock verifies every aggregated requirement against current stock.
func (s *Service) checkStock(ctx context.Context, required map[id.ID]int) error {
	for _, req := range sortRequirements(required) {
		v, err := s.variants.GetByID(ctx, req.VariantID)
		if err != nil {
			return err
		}
		if !v.Active {
			return apperror.NewConflict("variant is not available").
				WithDetail("variant_id", v.ID.String())
		}
		if v.Quantity < req.Quantity {
			return apperror.NewInsufficientStock(v.ID.String(), req.Quantity, v.Quantity)
		}
	}
	return nil
}

type requirement struct {
	VariantID id.ID
	Quantity  int
}

// sortRequirements flattens the aggregate map in ascending variant-id
// order, the lock acquisition order for decrements.
func sortRequirements(required map[id.ID]int) []requirement {
	out := make([]requirement, 0, len(required))
	for vid, qty := range required {
		out = append(out, requirement{VariantID: vid, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].VariantID, out[j].VariantID
		return bytes.Compare(a[:], b[:]) < 0
	})
	return out
}

func variantDisplayName(d *variant.Detail) string {
	name := d.TypeName + " " + d.ColorName
	if d.Size != nil {
		name += " (" + *d.Size + ")"
	}
	return name
}

// GetByID retrieves an order with its items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List retrieves orders matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Order, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}
