// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"estampa/internal/domain/catalog/itemtype"
	"estampa/internal/domain/catalog/lifecycle"
	"estampa/internal/domain/catalog/pack"
	"estampa/internal/domain/catalog/variant"
	"estampa/internal/domain/movement"
	"estampa/internal/domain/order"
	"estampa/internal/infrastructure/http/v1/handlers"
	"estampa/internal/infrastructure/http/v1/middleware"
	"estampa/internal/infrastructure/storage/postgres"
	"estampa/internal/infrastructure/storage/postgres/catalog_repo"
	"estampa/internal/infrastructure/storage/postgres/movement_repo"
	"estampa/internal/infrastructure/storage/postgres/order_repo"
	"estampa/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (health checks).
	Pool *postgres.Pool

	// TxManager is shared by all repositories.
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator
}

// staffRoles may mutate the catalog and work the stock ledger.
var staffRoles = []string{"admin", "staff"}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Repositories share one TxManager; services compose through the
	// transaction in context.
	colorRepo := catalog_repo.NewColorRepo(cfg.TxManager)
	typeRepo := catalog_repo.NewItemTypeRepo(cfg.TxManager)
	variantRepo := catalog_repo.NewVariantRepo(cfg.TxManager)
	packRepo := catalog_repo.NewPackRepo(cfg.TxManager)
	movementRepo := movement_repo.NewMovementRepo(cfg.TxManager)
	orderRepo := order_repo.NewOrderRepo(cfg.TxManager)

	recorder := movement.NewRecorder(movementRepo)
	typeService := itemtype.NewService(typeRepo, cfg.TxManager)
	ledger := variant.NewService(variantRepo, typeRepo, colorRepo, packRepo, recorder, cfg.TxManager)
	packService := pack.NewService(packRepo, variantRepo, cfg.TxManager)
	lifecycleService := lifecycle.NewService(typeRepo, variantRepo, recorder, cfg.TxManager)
	orderService := order.NewService(orderRepo, ledger, variantRepo, packService, typeRepo, recorder, cfg.TxManager)

	base := handlers.NewBaseHandler()
	typeHandler := handlers.NewItemTypeHandler(base, typeService, lifecycleService)
	colorHandler := handlers.NewColorHandler(base, colorRepo)
	variantHandler := handlers.NewVariantHandler(base, ledger)
	packHandler := handlers.NewPackHandler(base, packService)
	orderHandler := handlers.NewOrderHandler(base, orderService)
	movementHandler := handlers.NewMovementHandler(base, recorder)

	api := router.Group("/api/v1")
	{
		// Storefront endpoints: read-only catalog plus order creation.
		// OptionalAuth ties authenticated orders to their user; guests
		// pass through with contact details instead.
		public := api.Group("")
		public.Use(middleware.OptionalAuth(cfg.JWTValidator))
		{
			public.GET("/catalog/item-types", typeHandler.List)
			public.GET("/catalog/item-types/:id", typeHandler.Get)
			public.GET("/catalog/colors", colorHandler.List)
			public.GET("/catalog/variants", variantHandler.List)
			public.GET("/catalog/variants/:id", variantHandler.Get)
			public.GET("/catalog/packs", packHandler.List)
			public.GET("/catalog/packs/:id", packHandler.Get)

			public.POST("/orders", orderHandler.Create)
			public.GET("/orders/:id", orderHandler.Get)
		}

		// Staff endpoints: catalog mutation, the stock ledger, order
		// management and the audit trail.
		staff := api.Group("")
		staff.Use(middleware.Auth(cfg.JWTValidator))
		staff.Use(middleware.RequireRole(staffRoles...))
		{
			staff.POST("/catalog/item-types", typeHandler.Create)
			staff.PUT("/catalog/item-types/:id/stamping-prices", typeHandler.UpdatePrices)
			staff.POST("/catalog/item-types/:id/deactivate", typeHandler.Deactivate)
			staff.POST("/catalog/item-types/:id/restore", typeHandler.Restore)

			staff.POST("/catalog/colors", colorHandler.Create)

			staff.POST("/catalog/variants", variantHandler.Create)
			staff.PATCH("/catalog/variants/:id", variantHandler.Update)
			staff.POST("/catalog/variants/:id/adjust", variantHandler.Adjust)
			staff.POST("/catalog/variants/:id/deactivate", variantHandler.Deactivate)
			staff.POST("/catalog/variants/:id/restore", variantHandler.Restore)
			staff.DELETE("/catalog/variants/:id", variantHandler.Purge)

			staff.POST("/catalog/packs", packHandler.Create)
			staff.POST("/catalog/packs/:id/deactivate", packHandler.Deactivate)

			staff.GET("/orders", orderHandler.List)
			staff.PATCH("/orders/:id/status", orderHandler.UpdateStatus)

			staff.GET("/movements", movementHandler.List)
			staff.GET("/movements/:id", movementHandler.Get)
		}
	}

	return router
}
