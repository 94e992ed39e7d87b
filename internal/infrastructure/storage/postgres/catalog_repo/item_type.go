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
	"estampa/internal/domain/catalog/itemtype"
	"estampa/internal/infrastructure/storage/postgres"
)

const (
	itemTypesTable      = "item_types"
	stampingPricesTable = "stamping_prices"
)

var itemTypeCols = []string{
	"id", "name", "category", "has_sizes", "image_url",
	"active", "created_at", "updated_at", "deleted_at",
}

// ItemTypeRepo implements itemtype.Repository.
type ItemTypeRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewItemTypeRepo creates an item type repository.
func NewItemTypeRepo(txm *postgres.TxManager) *ItemTypeRepo {
	return &ItemTypeRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ItemTypeRepo) Create(ctx context.Context, t *itemtype.ItemType) error {
	q := r.builder.Insert(itemTypesTable).
		Columns(itemTypeCols...).
		Values(t.ID, t.Name, t.Category, t.HasSizes, t.ImageURL,
			t.Active, t.CreatedAt, t.UpdatedAt, t.DeletedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("item type", "name", t.Name).WithCause(err)
		}
		return fmt.Errorf("insert item type: %w", err)
	}

	if len(t.StampingPrices) > 0 {
		return r.SaveStampingPrices(ctx, t.ID, t.StampingPrices)
	}

	return nil
}

func (r *ItemTypeRepo) GetByID(ctx context.Context, typeID id.ID) (*itemtype.ItemType, error) {
	q := r.builder.Select(itemTypeCols...).
		From(itemTypesTable).
		Where(squirrel.Eq{"id": typeID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t itemtype.ItemType
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("item type", typeID.String())
		}
		return nil, fmt.Errorf("get item type: %w", err)
	}

	return &t, nil
}

func (r *ItemTypeRepo) GetForUpdate(ctx context.Context, typeID id.ID) (*itemtype.ItemType, error) {
	q := r.builder.Select(itemTypeCols...).
		From(itemTypesTable).
		Where(squirrel.Eq{"id": typeID}).
		Suffix("FOR UPDATE").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t itemtype.ItemType
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("item type", typeID.String())
		}
		return nil, fmt.Errorf("get item type for update: %w", err)
	}

	return &t, nil
}

func (r *ItemTypeRepo) GetWithPrices(ctx context.Context, typeID id.ID) (*itemtype.ItemType, error) {
	t, err := r.GetByID(ctx, typeID)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select("item_type_id", "slug", "price").
		From(stampingPricesTable).
		Where(squirrel.Eq{"item_type_id": typeID}).
		OrderBy("slug ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &t.StampingPrices, sql, args...); err != nil {
		return nil, fmt.Errorf("select stamping prices: %w", err)
	}

	return t, nil
}

func (r *ItemTypeRepo) Update(ctx context.Context, t *itemtype.ItemType) error {
	q := r.builder.Update(itemTypesTable).
		Set("name", t.Name).
		Set("category", t.Category).
		Set("has_sizes", t.HasSizes).
		Set("image_url", t.ImageURL).
		Set("updated_at", t.UpdatedAt).
		Where(squirrel.Eq{"id": t.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("item type", "name", t.Name).WithCause(err)
		}
		return fmt.Errorf("update item type: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("item type", t.ID.String())
	}

	return nil
}

// SaveStampingPrices replaces the price tiers wholesale. Delete-then-insert
// keeps the table an exact mirror of the submitted list.
func (r *ItemTypeRepo) SaveStampingPrices(ctx context.Context, typeID id.ID, prices []itemtype.StampingPrice) error {
	querier := r.txm.GetQuerier(ctx)

	delSQL, delArgs, err := r.builder.Delete(stampingPricesTable).
		Where(squirrel.Eq{"item_type_id": typeID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("delete stamping prices: %w", err)
	}

	if len(prices) == 0 {
		return nil
	}

	q := r.builder.Insert(stampingPricesTable).
		Columns("item_type_id", "slug", "price")
	for _, sp := range prices {
		q = q.Values(typeID, sp.Slug, sp.Price)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stamping prices: %w", err)
	}

	return nil
}

func (r *ItemTypeRepo) SetActive(ctx context.Context, typeID id.ID, active bool, at time.Time) error {
	q := r.builder.Update(itemTypesTable).
		Set("active", active).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": typeID})

	if active {
		q = q.Set("deleted_at", nil)
	} else {
		q = q.Set("deleted_at", at)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set item type active: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("item type", typeID.String())
	}

	return nil
}

func (r *ItemTypeRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	q := r.builder.Select("1").
		From(itemTypesTable).
		Where(squirrel.Eq{"name": name}).
		Limit(1)

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
		return false, fmt.Errorf("exists by name: %w", err)
	}

	return true, nil
}

func (r *ItemTypeRepo) List(ctx context.Context, filter itemtype.Filter) ([]itemtype.ItemType, error) {
	q := r.builder.Select(itemTypeCols...).
		From(itemTypesTable)

	if filter.Category != nil {
		q = q.Where(squirrel.Eq{"category": *filter.Category})
	}
	if filter.OnlyActive {
		q = q.Where(squirrel.Eq{"active": true})
	}

	q = q.OrderBy("name ASC")

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

	var types []itemtype.ItemType
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &types, sql, args...); err != nil {
		return nil, fmt.Errorf("list item types: %w", err)
	}

	return types, nil
}

var _ itemtype.Repository = (*ItemTypeRepo)(nil)
