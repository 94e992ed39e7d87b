package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
	"estampa/internal/domain/catalog/pack"
	"estampa/internal/domain/catalog/variant"
	"estampa/internal/infrastructure/storage/postgres"
)

const (
	packsTable     = "packs"
	packItemsTable = "pack_items"
)

var packCols = []string{
	"id", "name", "price", "discount", "active", "created_at", "updated_at",
}

// PackRepo implements pack.Repository and variant.PackRefCounter.
type PackRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewPackRepo creates a pack repository.
func NewPackRepo(txm *postgres.TxManager) *PackRepo {
	return &PackRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *PackRepo) Create(ctx context.Context, p *pack.Pack) error {
	querier := r.txm.GetQuerier(ctx)

	q := r.builder.Insert(packsTable).
		Columns(packCols...).
		Values(p.ID, p.Name, p.Price, p.Discount, p.Active, p.CreatedAt, p.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("pack", "name", p.Name).WithCause(err)
		}
		return fmt.Errorf("insert pack: %w", err)
	}

	itemsQ := r.builder.Insert(packItemsTable).
		Columns("pack_id", "variant_id", "quantity")
	for _, item := range p.Items {
		itemsQ = itemsQ.Values(p.ID, item.VariantID, item.Quantity)
	}

	itemsSQL, itemsArgs, err := itemsQ.ToSql()
	if err != nil {
		return fmt.Errorf("build items insert: %w", err)
	}

	if _, err := querier.Exec(ctx, itemsSQL, itemsArgs...); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewConflict("pack references a missing variant").WithCause(err)
		}
		return fmt.Errorf("insert pack items: %w", err)
	}

	return nil
}

func (r *PackRepo) GetByID(ctx context.Context, packID id.ID) (*pack.Pack, error) {
	q := r.builder.Select(packCols...).
		From(packsTable).
		Where(squirrel.Eq{"id": packID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p pack.Pack
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("pack", packID.String())
		}
		return nil, fmt.Errorf("get pack: %w", err)
	}

	return &p, nil
}

func (r *PackRepo) GetWithItems(ctx context.Context, packID id.ID) (*pack.Pack, error) {
	p, err := r.GetByID(ctx, packID)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select("pack_id", "variant_id", "quantity").
		From(packItemsTable).
		Where(squirrel.Eq{"pack_id": packID}).
		OrderBy("variant_id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &p.Items, sql, args...); err != nil {
		return nil, fmt.Errorf("select pack items: %w", err)
	}

	return p, nil
}

func (r *PackRepo) SetActive(ctx context.Context, packID id.ID, active bool) error {
	q := r.builder.Update(packsTable).
		Set("active", active).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": packID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set pack active: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("pack", packID.String())
	}

	return nil
}

func (r *PackRepo) List(ctx context.Context, onlyActive bool) ([]pack.Pack, error) {
	q := r.builder.Select(packCols...).
		From(packsTable).
		OrderBy("name ASC")

	if onlyActive {
		q = q.Where(squirrel.Eq{"active": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var packs []pack.Pack
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &packs, sql, args...); err != nil {
		return nil, fmt.Errorf("list packs: %w", err)
	}

	return packs, nil
}

func (r *PackRepo) CountPacksReferencing(ctx context.Context, variantID id.ID, onlyActive bool) (int, error) {
	q := r.builder.Select("COUNT(*)").
		From(packItemsTable + " pi").
		Join(packsTable + " p ON p.id = pi.pack_id").
		Where(squirrel.Eq{"pi.variant_id": variantID})

	if onlyActive {
		q = q.Where(squirrel.Eq{"p.active": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pack refs: %w", err)
	}

	return count, nil
}

var (
	_ pack.Repository        = (*PackRepo)(nil)
	_ variant.PackRefCounter = (*PackRepo)(nil)
)
