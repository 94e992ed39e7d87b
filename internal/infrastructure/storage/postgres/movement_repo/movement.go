// Package movement_repo provides the PostgreSQL implementation of the
// audit trail repository.
package movement_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
	"estampa/internal/domain/movement"
	"estampa/internal/infrastructure/storage/postgres"
)

const movementsTable = "movements"

var movementCols = []string{
	"id", "type", "quantity", "operation", "reason", "changes",
	"item_name", "color", "size", "price",
	"variant_id", "user_id", "order_id",
	"created_at", "deleted_at",
}

// MovementRepo implements movement.Repository.
type MovementRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewMovementRepo creates a movement repository.
func NewMovementRepo(txm *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *MovementRepo) Append(ctx context.Context, m *movement.Movement) error {
	q := r.builder.Insert(movementsTable).
		Columns(movementCols...).
		Values(m.ID, m.Type, m.Quantity, m.Operation, m.Reason, m.Changes,
			m.ItemName, m.Color, m.Size, m.Price,
			m.VariantID, m.UserID, m.OrderID,
			m.CreatedAt, m.DeletedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewConflict("movement references a missing entity").WithCause(err)
		}
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

func (r *MovementRepo) GetByID(ctx context.Context, movementID id.ID) (*movement.Movement, error) {
	q := r.builder.Select(movementCols...).
		From(movementsTable).
		Where(squirrel.Eq{"id": movementID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m movement.Movement
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("movement", movementID.String())
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}

	return &m, nil
}

// applyFilter adds the shared WHERE clauses used by List and Totals.
func (r *MovementRepo) applyFilter(q squirrel.SelectBuilder, filter movement.Filter) squirrel.SelectBuilder {
	if filter.VariantID != nil {
		q = q.Where(squirrel.Eq{"variant_id": *filter.VariantID})
	}
	if filter.UserID != nil {
		q = q.Where(squirrel.Eq{"user_id": *filter.UserID})
	}
	if filter.OrderID != nil {
		q = q.Where(squirrel.Eq{"order_id": *filter.OrderID})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.Operation != nil {
		q = q.Where(squirrel.Eq{"operation": *filter.Operation})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}
	if !filter.IncludeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	return q
}

func (r *MovementRepo) List(ctx context.Context, filter movement.Filter) ([]movement.Movement, error) {
	q := r.applyFilter(r.builder.Select(movementCols...).From(movementsTable), filter).
		OrderBy("created_at DESC", "id DESC")

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

	var movements []movement.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}

	return movements, nil
}

func (r *MovementRepo) Totals(ctx context.Context, filter movement.Filter) (movement.Totals, error) {
	totals := movement.Totals{
		ByType:      make(map[movement.Type]int),
		ByOperation: make(map[movement.Operation]int),
	}
	querier := r.txm.GetQuerier(ctx)

	typeQ := r.applyFilter(
		r.builder.Select("type", "COALESCE(SUM(quantity), 0) AS total", "COUNT(*) AS cnt").
			From(movementsTable), filter).
		GroupBy("type")

	sql, args, err := typeQ.ToSql()
	if err != nil {
		return totals, fmt.Errorf("build totals query: %w", err)
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return totals, fmt.Errorf("totals by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t movement.Type
		var total, count int
		if err := rows.Scan(&t, &total, &count); err != nil {
			return totals, fmt.Errorf("scan type total: %w", err)
		}
		totals.ByType[t] = total
		totals.Count += count
	}
	if err := rows.Err(); err != nil {
		return totals, fmt.Errorf("totals by type: %w", err)
	}

	opQ := r.applyFilter(
		r.builder.Select("operation", "COALESCE(SUM(quantity), 0) AS total").
			From(movementsTable), filter).
		GroupBy("operation")

	sql, args, err = opQ.ToSql()
	if err != nil {
		return totals, fmt.Errorf("build totals query: %w", err)
	}

	opRows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return totals, fmt.Errorf("totals by operation: %w", err)
	}
	defer opRows.Close()
	for opRows.Next() {
		var op movement.Operation
		var total int
		if err := opRows.Scan(&op, &total); err != nil {
			return totals, fmt.Errorf("scan operation total: %w", err)
		}
		totals.ByOperation[op] = total
	}
	if err := opRows.Err(); err != nil {
		return totals, fmt.Errorf("totals by operation: %w", err)
	}

	return totals, nil
}

// SoftDeleteByVariant hides only rows that are currently visible, so a
// later restore cannot resurrect movements hidden before this call.
func (r *MovementRepo) SoftDeleteByVariant(ctx context.Context, variantID id.ID, at time.Time) error {
	q := r.builder.Update(movementsTable).
		Set("deleted_at", at).
		Where(squirrel.Eq{"variant_id": variantID}).
		Where("deleted_at IS NULL")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("soft delete movements: %w", err)
	}

	return nil
}

func (r *MovementRepo) RestoreByVariant(ctx context.Context, variantID id.ID) error {
	q := r.builder.Update(movementsTable).
		Set("deleted_at", nil).
		Where(squirrel.Eq{"variant_id": variantID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("restore movements: %w", err)
	}

	return nil
}

func (r *MovementRepo) DetachVariant(ctx context.Context, variantID id.ID) error {
	q := r.builder.Update(movementsTable).
		Set("variant_id", nil).
		Where(squirrel.Eq{"variant_id": variantID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("detach movements: %w", err)
	}

	return nil
}

var _ movement.Repository = (*MovementRepo)(nil)
