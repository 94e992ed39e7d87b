// Package order_repo provides the PostgreSQL implementation of the order
// repository.
package order_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
	"estampa/internal/domain/order"
	"estampa/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "orders"
	orderItemsTable = "order_items"
)

var orderCols = []string{
	"id", "subtotal", "shipping_cost", "total",
	"user_id", "guest_name", "guest_email",
	"shipping_address", "shipping_city", "shipping_zip",
	"status", "created_at", "updated_at",
}

var orderItemCols = []string{
	"id", "order_id", "variant_id", "pack_id",
	"quantity", "unit_price", "name", "add_ons",
	"stamp_image_url", "stamp_instructions",
}

// OrderRepo implements order.Repository.
type OrderRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewOrderRepo creates an order repository.
func NewOrderRepo(txm *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	querier := r.txm.GetQuerier(ctx)

	q := r.builder.Insert(ordersTable).
		Columns(orderCols...).
		Values(o.ID, o.Subtotal, o.ShippingCost, o.Total,
			o.UserID, o.GuestName, o.GuestEmail,
			o.ShippingAddress, o.ShippingCity, o.ShippingZip,
			o.Status, o.CreatedAt, o.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if len(o.Items) == 0 {
		return nil
	}

	itemsQ := r.builder.Insert(orderItemsTable).Columns(orderItemCols...)
	for _, item := range o.Items {
		itemsQ = itemsQ.Values(
			item.ID, o.ID, item.VariantID, item.PackID,
			item.Quantity, item.UnitPrice, item.Name, item.AddOns,
			item.StampImageURL, item.StampInstructions)
	}

	itemsSQL, itemsArgs, err := itemsQ.ToSql()
	if err != nil {
		return fmt.Errorf("build items insert: %w", err)
	}

	if _, err := querier.Exec(ctx, itemsSQL, itemsArgs...); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewConflict("order references a missing variant or pack").WithCause(err)
		}
		return fmt.Errorf("insert order items: %w", err)
	}

	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*order.Order, error) {
	q := r.builder.Select(orderCols...).
		From(ordersTable).
		Where(squirrel.Eq{"id": orderID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o order.Order
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	itemsQ := r.builder.Select(orderItemCols...).
		From(orderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("id ASC")

	itemsSQL, itemsArgs, err := itemsQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &o.Items, itemsSQL, itemsArgs...); err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}

	return &o, nil
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*order.Order, error) {
	q := r.builder.Select(orderCols...).
		From(ordersTable).
		Where(squirrel.Eq{"id": orderID}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o order.Order
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, fmt.Errorf("get order for update: %w", err)
	}

	return &o, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, status order.Status, at time.Time) error {
	q := r.builder.Update(ordersTable).
		Set("status", status).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("order", orderID.String())
	}

	return nil
}

func (r *OrderRepo) List(ctx context.Context, filter order.Filter) ([]order.Order, error) {
	q := r.builder.Select(orderCols...).
		From(ordersTable)

	if filter.UserID != nil {
		q = q.Where(squirrel.Eq{"user_id": *filter.UserID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	q = q.OrderBy("created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var orders []order.Order
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &orders, sql, args...); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return orders, nil
}

var _ order.Repository = (*OrderRepo)(nil)
