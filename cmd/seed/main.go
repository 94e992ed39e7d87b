// Package main provides a CLI tool for seeding the database with a demo
// catalog: colors, item types with stamping prices, variants with initial
// stock and one pack.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	appctx "estampa/internal/core/context"
	"estampa/internal/core/id"
	"estampa/internal/domain/catalog/color"
	"estampa/internal/domain/catalog/itemtype"
	"estampa/internal/domain/catalog/pack"
	"estampa/internal/domain/catalog/variant"
	"estampa/internal/domain/movement"
	"estampa/internal/infrastructure/storage/postgres"
	"estampa/internal/infrastructure/storage/postgres/catalog_repo"
	"estampa/internal/infrastructure/storage/postgres/movement_repo"
	"estampa/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txm := postgres.NewTxManager(pool)
	colorRepo := catalog_repo.NewColorRepo(txm)
	typeRepo := catalog_repo.NewItemTypeRepo(txm)
	variantRepo := catalog_repo.NewVariantRepo(txm)
	packRepo := catalog_repo.NewPackRepo(txm)
	recorder := movement.NewRecorder(movement_repo.NewMovementRepo(txm))
	ledger := variant.NewService(variantRepo, typeRepo, colorRepo, packRepo, recorder, txm)
	packService := pack.NewService(packRepo, variantRepo, txm)

	// Seed movements carry the seeding operator as acting user when set.
	if operator := os.Getenv("SEED_USER_ID"); operator != "" {
		uid, err := id.Parse(operator)
		if err != nil {
			log.Fatalw("invalid SEED_USER_ID", "error", err)
		}
		ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: uid, Role: "admin"})
	}

	if err := seed(ctx, colorRepo, typeRepo, ledger, packService); err != nil {
		log.Fatalw("seeding failed", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seed(
	ctx context.Context,
	colors color.Repository,
	types itemtype.Repository,
	ledger *variant.Service,
	packs *pack.Service,
) error {
	black := color.New("Negro", ptr("#000000"))
	white := color.New("Blanco", ptr("#FFFFFF"))
	red := color.New("Rojo", ptr("#D32F2F"))
	for _, c := range []*color.Color{black, white, red} {
		if err := colors.Create(ctx, c); err != nil {
			return fmt.Errorf("create color %s: %w", c.Name, err)
		}
	}

	shirt := itemtype.New("Camiseta clásica", itemtype.CategoryShirt, true)
	shirt.StampingPrices = []itemtype.StampingPrice{
		{ItemTypeID: shirt.ID, Slug: "pecho", Price: decimal.NewFromInt(1500)},
		{ItemTypeID: shirt.ID, Slug: "espalda", Price: decimal.NewFromInt(2000)},
	}
	mug := itemtype.New("Taza cerámica", itemtype.CategoryMug, false)
	mug.StampingPrices = []itemtype.StampingPrice{
		{ItemTypeID: mug.ID, Slug: "frente", Price: decimal.NewFromInt(800)},
	}
	for _, t := range []*itemtype.ItemType{shirt, mug} {
		if err := types.Create(ctx, t); err != nil {
			return fmt.Errorf("create item type %s: %w", t.Name, err)
		}
	}

	var shirtVariants []id.ID
	for _, size := range []string{"S", "M", "L"} {
		s := size
		v, err := ledger.Create(ctx, variant.CreateSpec{
			ItemTypeID:      shirt.ID,
			ColorID:         black.ID,
			Size:            &s,
			InitialQuantity: 20,
			Price:           decimal.NewFromInt(9500),
		})
		if err != nil {
			return fmt.Errorf("create shirt variant %s: %w", size, err)
		}
		shirtVariants = append(shirtVariants, v.ID)
	}

	mugVariant, err := ledger.Create(ctx, variant.CreateSpec{
		ItemTypeID:      mug.ID,
		ColorID:         white.ID,
		InitialQuantity: 30,
		Price:           decimal.NewFromInt(4500),
	})
	if err != nil {
		return fmt.Errorf("create mug variant: %w", err)
	}

	_, err = packs.Create(ctx, &pack.Pack{
		ID:       id.New(),
		Name:     "Combo camiseta + taza",
		Price:    decimal.NewFromInt(14000),
		Discount: decimal.NewFromInt(1500),
		Active:   true,
		Items: []pack.Item{
			{VariantID: shirtVariants[1], Quantity: 1},
			{VariantID: mugVariant.ID, Quantity: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create pack: %w", err)
	}

	return nil
}

func ptr(s string) *string { return &s }
