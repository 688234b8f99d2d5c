package router

import (
	"time"

	"github.com/Jorgegzze/marbleworldinventory/internal/config"
	"github.com/Jorgegzze/marbleworldinventory/internal/handler"
	"github.com/Jorgegzze/marbleworldinventory/internal/middleware"
	"github.com/Jorgegzze/marbleworldinventory/internal/repository"
	"github.com/Jorgegzze/marbleworldinventory/internal/service"
	"github.com/Jorgegzze/marbleworldinventory/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	movementRepo := repository.NewMovementRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg, dispatcher)
	inventorySvc := service.NewInventoryService(materialRepo, movementRepo, rdb)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	materialsH := handler.NewMaterialsHandler(inventorySvc)
	catalogH := handler.NewCatalogHandler(inventorySvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
		auth.POST("/forgot-password", middleware.LoginRateLimiter(), authH.ForgotPassword)
		auth.POST("/reset-password", authH.ResetPassword)
	}

	// Public storefront catalog — no auth required
	r.GET("/v1/catalog", catalogH.List)
	r.GET("/v1/catalog/:material_id", catalogH.Lookup)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: admin, salesrep, guest — declared per-endpoint
		v1.GET("/materials", middleware.RequireRole("admin", "salesrep", "guest"), materialsH.List)
		v1.GET("/materials/:id", middleware.RequireRole("admin", "salesrep", "guest"), materialsH.Get)
		v1.GET("/materials/:id/movements", middleware.RequireRole("admin", "salesrep"), materialsH.Movements)

		// Stock transitions — admin or salesrep
		transitions := v1.Group("/materials", middleware.RequireRole("admin", "salesrep"))
		{
			transitions.POST("/:id/reserve", materialsH.Reserve)
			transitions.POST("/:id/sell", materialsH.Sell)
			transitions.POST("/:id/return", materialsH.Return)
		}

		// Write operations — admin only
		mats := v1.Group("/materials", middleware.RequireRole("admin"))
		{
			mats.POST("", materialsH.Create)
			mats.POST("/bulk", materialsH.BulkCreate)
			mats.PATCH("/:id", materialsH.Update)
			mats.DELETE("/:id", materialsH.Delete)
		}

		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PATCH("/:id/password", usersH.UpdatePassword)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
