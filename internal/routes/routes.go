// Package routes assembles the gin engine: middleware, route groups and
// the mapping from paths to handlers.
package routes

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/auth"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/config"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/handlers"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/middleware"
)

func New(h *handlers.Handlers, db *sql.DB, cfg *config.Config, tokens *auth.TokenIssuer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authRequired := middleware.RequireAuth(db, tokens)
	adminRequired := middleware.RequireAdmin()

	api := router.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	users := api.Group("/users", authRequired)
	{
		users.GET("/me", h.Me)
		users.PUT("/me", h.UpdateMe)
		users.GET("/", adminRequired, h.ListUsers)
		users.GET("/:id", adminRequired, h.GetUser)
	}

	products := api.Group("/products")
	{
		products.GET("/", h.ListProducts)
		products.GET("/:id", h.GetProduct)
		products.POST("/", authRequired, adminRequired, h.CreateProduct)
		products.PUT("/:id", authRequired, adminRequired, h.UpdateProduct)
		products.DELETE("/:id", authRequired, adminRequired, h.DeleteProduct)
		products.POST("/:id/archive", authRequired, adminRequired, h.ArchiveProduct)
	}

	orders := api.Group("/orders", authRequired)
	{
		orders.POST("/", h.CreateOrder)
		orders.GET("/", h.ListMyOrders)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id", adminRequired, h.UpdateOrder)
		orders.GET("/admin/all", adminRequired, h.ListAllOrders)
	}

	promoCodes := api.Group("/promo-codes")
	{
		promoCodes.POST("/validate", h.ValidatePromoCode)
		promoCodes.GET("/", authRequired, adminRequired, h.ListPromoCodes)
		promoCodes.GET("/:id", authRequired, adminRequired, h.GetPromoCode)
		promoCodes.POST("/", authRequired, adminRequired, h.CreatePromoCode)
		promoCodes.PUT("/:id", authRequired, adminRequired, h.UpdatePromoCode)
		promoCodes.DELETE("/:id", authRequired, adminRequired, h.DeletePromoCode)
	}

	paymentGroup := api.Group("/payment")
	{
		paymentGroup.POST("/create/:order_id", authRequired, h.CreatePayment)
		paymentGroup.GET("/status/:payment_id", authRequired, h.GetPaymentStatus)
		paymentGroup.POST("/cancel/:payment_id", authRequired, h.CancelPayment)
		paymentGroup.POST("/webhook", h.PaymentWebhook)
	}

	pages := api.Group("/pages")
	{
		pages.GET("/", authRequired, adminRequired, h.ListPages)
		pages.GET("/:slug", h.GetPageBySlug)
		pages.POST("/", authRequired, adminRequired, h.CreatePage)
		pages.PUT("/:id", authRequired, adminRequired, h.UpdatePage)
		pages.DELETE("/:id", authRequired, adminRequired, h.DeletePage)
	}

	analytics := api.Group("/analytics", authRequired, adminRequired)
	{
		analytics.GET("/sales", h.SalesStats)
		analytics.GET("/preorders", h.PreorderStats)
		analytics.GET("/customers", h.CustomerStats)
		analytics.GET("/promo-codes", h.PromoStats)
		analytics.GET("/export/customers", h.ExportCustomers)
		analytics.GET("/export/orders", h.ExportOrders)
	}

	return router
}
