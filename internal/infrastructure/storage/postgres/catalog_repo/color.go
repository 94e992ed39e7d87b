// Package catalog_repo provides PostgreSQL implementations for the
// catalog repositories (item types, colors, variants and packs).
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
	"estampa/internal/domain/catalog/color"
	"estampa/internal/infrastructure/storage/postgres"
)

const colorsTable = "colors"

var colorCols = []string{"id", "name", "hex", "created_at"}

// ColorRepo implements color.Repository.
type ColorRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewColorRepo creates a color repository.
func NewColorRepo(txm *postgres.TxManager) *ColorRepo {
	return &ColorRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ColorRepo) Create(ctx context.Context, c *color.Color) error {
	q := r.builder.Insert(colorsTable).
		Columns(colorCols...).
		Values(c.ID, c.Name, c.Hex, c.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("color", "name", c.Name).WithCause(err)
		}
		return fmt.Errorf("insert color: %w", err)
	}

	return nil
}

func (r *ColorRepo) GetByID(ctx context.Context, colorID id.ID) (*color.Color, error) {
	q := r.builder.Select(colorCols...).
		From(colorsTable).
		Where(squirrel.Eq{"id": colorID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c color.Color
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("color", colorID.String())
		}
		return nil, fmt.Errorf("get color: %w", err)
	}

	return &c, nil
}

func (r *ColorRepo) GetByName(ctx context.Context, name string) (*color.Color, error) {
	q := r.builder.Select(colorCols...).
		From(colorsTable).
		Where(squirrel.Eq{"name": name}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c color.Color
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("color", name)
		}
		return nil, fmt.Errorf("get color by name: %w", err)
	}

	return &c, nil
}

func (r *ColorRepo) List(ctx context.Context) ([]color.Color, error) {
	q := r.builder.Select(colorCols...).
		From(colorsTable).
		OrderBy("name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var colors []color.Color
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &colors, sql, args...); err != nil {
		return nil, fmt.Errorf("list colors: %w", err)
	}

	return colors, nil
}

var _ color.Repository = (*ColorRepo)(nil)
