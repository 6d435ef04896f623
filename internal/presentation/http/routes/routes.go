package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sangkips/tempo-pos/internal/config"
	domainRepo "github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/internal/metrics"
	"github.com/sangkips/tempo-pos/internal/presentation/http/handler"
	"github.com/sangkips/tempo-pos/internal/presentation/http/middleware"
	"github.com/sangkips/tempo-pos/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Clock       *handler.ClockHandler
	Menu        *handler.MenuHandler
	Cart        *handler.CartHandler
	Checkout    *handler.CheckoutHandler
	Transaction *handler.TransactionHandler
	Admin       *handler.AdminHandler
	User        *handler.UserHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.UserRateLimiter
	Log             zerolog.Logger
}

// NewRateLimiter builds the per-user limiter from configuration.
func NewRateLimiter(cfg config.RateLimitConfig) *middleware.UserRateLimiter {
	return middleware.NewUserRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: float64(cfg.Requests) / float64(cfg.Duration),
		BurstSize:         cfg.Requests,
		EntryTTL:          10 * time.Minute,
	})
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))

		rateLimiter := deps.RateLimiter
		if rateLimiter == nil {
			rateLimiter = NewRateLimiter(deps.Cfg.RateLimit)
		}
		protected.Use(rateLimiter.Middleware())
		protected.Use(middleware.Idempotency(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
			TTL:  deps.Cfg.Idempotency.TTL,
			Log:  deps.Log,
		}))

		registerProtectedRoutes(protected, h)
	}

	return router
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers) {
	protected.GET("/me", h.User.Me)

	clocks := protected.Group("/clocks")
	{
		clocks.GET("", h.Clock.List)
		clocks.POST("", h.Clock.Create)
		clocks.GET("/:id", h.Clock.Get)
		clocks.PUT("/:id", h.Clock.Update)
		clocks.DELETE("/:id", h.Clock.Delete)
		clocks.POST("/:id/start", h.Clock.Start)
		clocks.POST("/:id/stop", h.Clock.Stop)
		clocks.POST("/:id/reset", h.Clock.Reset)
		clocks.POST("/:id/cart", h.Clock.AddToCart)
	}

	menus := protected.Group("/menus")
	{
		menus.GET("", h.Menu.List)
		menus.POST("", h.Menu.Create)
		menus.GET("/:id", h.Menu.Get)
		menus.PUT("/:id", h.Menu.Update)
		menus.DELETE("/:id", h.Menu.Delete)
		menus.POST("/:id/cart", h.Menu.AddToCart)
	}

	cart := protected.Group("/cart")
	{
		cart.GET("", h.Cart.List)
		cart.GET("/total", h.Cart.Total)
		cart.PATCH("/:id", h.Cart.AdjustQuantity)
		cart.DELETE("/:id", h.Cart.RemoveLine)
	}

	protected.POST("/checkout", h.Checkout.Checkout)

	transactions := protected.Group("/transactions")
	{
		transactions.GET("", h.Transaction.List)
		transactions.GET("/:id", h.Transaction.Get)
		transactions.POST("/:id/print", h.Transaction.Print)
	}
	protected.GET("/printer/status", h.Transaction.PrinterStatus)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/sales/monthly", h.Admin.MonthlySales)
		admin.GET("/transactions", h.Admin.Transactions)
		admin.GET("/users", h.Admin.Users)
	}
}
