package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
	"estampa/internal/domain/catalog/variant"
	"estampa/internal/infrastructure/storage/postgres"
)

const variantsTable = "variants"

var variantCols = []string{
	"id", "item_type_id", "color_id", "size",
	"quantity", "min_stock", "price",
	"active", "parent_deactivated",
	"created_at", "updated_at", "deleted_at",
}

// detailCols prefixes variant columns and joins in the type and color
// names the movement snapshots need.
var detailCols = []string{
	"v.id", "v.item_type_id", "v.color_id", "v.size",
	"v.quantity", "v.min_stock", "v.price",
	"v.active", "v.parent_deactivated",
	"v.created_at", "v.updated_at", "v.deleted_at",
	"t.name AS type_name", "t.active AS type_active",
	"c.name AS color_name",
}

// VariantRepo implements variant.Repository.
type VariantRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewVariantRepo creates a variant repository.
func NewVariantRepo(txm *postgres.TxManager) *VariantRepo {
	return &VariantRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *VariantRepo) Create(ctx context.Context, v *variant.Variant) error {
	q := r.builder.Insert(variantsTable).
		Columns(variantCols...).
		Values(v.ID, v.ItemTypeID, v.ColorID, v.Size,
			v.Quantity, v.MinStock, v.Price,
			v.Active, v.ParentDeactivated,
			v.CreatedAt, v.UpdatedAt, v.DeletedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("variant", "type/color/size", v.ID.String()).WithCause(err)
		}
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewConflict("variant references a missing type or color").WithCause(err)
		}
		return fmt.Errorf("insert variant: %w", err)
	}

	return nil
}

func (r *VariantRepo) GetByID(ctx context.Context, variantID id.ID) (*variant.Variant, error) {
	q := r.builder.Select(variantCols...).
		From(variantsTable).
		Where(squirrel.Eq{"id": variantID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var v variant.Variant
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &v, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("variant", variantID.String())
		}
		return nil, fmt.Errorf("get variant: %w", err)
	}

	return &v, nil
}

func (r *VariantRepo) detailSelect() squirrel.SelectBuilder {
	return r.builder.Select(detailCols...).
		From(variantsTable + " v").
		Join(itemTypesTable + " t ON t.id = v.item_type_id").
		Join(colorsTable + " c ON c.id = v.color_id")
}

func (r *VariantRepo) GetDetail(ctx context.Context, variantID id.ID) (*variant.Detail, error) {
	q := r.detailSelect().
		Where(squirrel.Eq{"v.id": variantID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var d variant.Detail
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &d, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("variant", variantID.String())
		}
		return nil, fmt.Errorf("get variant detail: %w", err)
	}

	return &d, nil
}

// GetDetailForUpdate locks the variant row only; the joined type and
// color rows stay unlocked so catalog edits do not serialize on stock
// adjustments.
func (r *VariantRepo) GetDetailForUpdate(ctx context.Context, variantID id.ID) (*variant.Detail, error) {
	q := r.detailSelect().
		Where(squirrel.Eq{"v.id": variantID}).
		Suffix("FOR UPDATE OF v")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var d variant.Detail
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &d, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("variant", variantID.String())
		}
		return nil, fmt.Errorf("get variant for update: %w", err)
	}

	return &d, nil
}

func (r *VariantRepo) UpdateQuantity(ctx context.Context, variantID id.ID, quantity int) error {
	q := r.builder.Update(variantsTable).
		Set("quantity", quantity).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": variantID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("variant", variantID.String())
	}

	return nil
}

func (r *VariantRepo) Update(ctx context.Context, v *variant.Variant) error {
	q := r.builder.Update(variantsTable).
		Set("price", v.Price).
		Set("min_stock", v.MinStock).
		Set("updated_at", v.UpdatedAt).
		Where(squirrel.Eq{"id": v.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update variant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("variant", v.ID.String())
	}

	return nil
}

func (r *VariantRepo) Deactivate(ctx context.Context, variantID id.ID, byParent bool, at time.Time) error {
	q := r.builder.Update(variantsTable).
		Set("active", false).
		Set("parent_deactivated", byParent).
		Set("deleted_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": variantID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("deactivate variant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("variant", variantID.String())
	}

	return nil
}

func (r *VariantRepo) Restore(ctx context.Context, variantID id.ID) error {
	q := r.builder.Update(variantsTable).
		Set("active", true).
		Set("parent_deactivated", false).
		Set("deleted_at", nil).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": variantID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("restore variant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("variant", variantID.String())
	}

	return nil
}

func (r *VariantRepo) HardDelete(ctx context.Context, variantID id.ID) error {
	q := r.builder.Delete(variantsTable).
		Where(squirrel.Eq{"id": variantID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewConflict("variant is still referenced").
				WithDetail("variant_id", variantID.String()).
				WithCause(err)
		}
		return fmt.Errorf("delete variant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("variant", variantID.String())
	}

	return nil
}

func (r *VariantRepo) ExistsByKey(ctx context.Context, typeID, colorID id.ID, size *string) (bool, error) {
	q := r.builder.Select("1").
		From(variantsTable).
		Where(squirrel.Eq{"item_type_id": typeID}).
		Where(squirrel.Eq{"color_id": colorID}).
		Limit(1)

	if size == nil {
		q = q.Where("size IS NULL")
	} else {
		q = q.Where(squirrel.Eq{"size": *size})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists by key: %w", err)
	}

	return true, nil
}

func (r *VariantRepo) ListByType(ctx context.Context, typeID id.ID) ([]variant.Variant, error) {
	q := r.builder.Select(variantCols...).
		From(variantsTable).
		Where(squirrel.Eq{"item_type_id": typeID}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var variants []variant.Variant
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &variants, sql, args...); err != nil {
		return nil, fmt.Errorf("list variants by type: %w", err)
	}

	return variants, nil
}

func (r *VariantRepo) List(ctx context.Context, filter variant.Filter) ([]variant.Detail, error) {
	q := r.detailSelect()

	if filter.ItemTypeID != nil {
		q = q.Where(squirrel.Eq{"v.item_type_id": *filter.ItemTypeID})
	}
	if filter.ColorID != nil {
		q = q.Where(squirrel.Eq{"v.color_id": *filter.ColorID})
	}
	if filter.OnlyActive {
		q = q.Where(squirrel.Eq{"v.active": true})
	}
	if filter.BelowMinStock {
		q = q.Where("v.quantity < v.min_stock")
	}

	q = q.OrderBy("t.name ASC", "c.name ASC", "v.size ASC NULLS FIRST")

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

	var details []variant.Detail
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &details, sql, args...); err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}

	return details, nil
}

var _ variant.Repository = (*VariantRepo)(nil)
