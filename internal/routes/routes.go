package routes

import (
	"strings"

	"jojos_back_end/internal/handlers"
	"jojos_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps carries everything the router wires together.
type Deps struct {
	Auth     *middleware.Auth
	Limiter  *middleware.RateLimiter
	AuthH    *handlers.AuthHandler
	Products *handlers.ProductHandler
	Cart     *handlers.CartHandler
	Orders   *handlers.OrderHandler
	Payments *handlers.PaymentHandler
	Delivery *handlers.DeliveryHandler
	Admin    *handlers.AdminHandler
	OrderWS  *handlers.OrderWSHandler
	Health   gin.HandlerFunc

	CORSOrigins string
}

func Register(r *gin.Engine, d Deps) {
	corsConfig := cors.DefaultConfig()
	if d.CORSOrigins == "" || d.CORSOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(d.CORSOrigins, ",")
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	r.Use(cors.New(corsConfig))

	api := r.Group("/api")
	api.Use(d.Limiter.API())

	api.GET("/health", d.Health)

	// Auth
	auth := api.Group("/auth")
	{
		auth.GET("/:provider", d.AuthH.Begin)
		auth.GET("/:provider/callback", d.AuthH.Callback)
		auth.GET("/me", d.Auth.Required(), d.AuthH.Me)
		auth.POST("/logout", d.Auth.Required(), d.AuthH.Logout)
		auth.POST("/make-admin", d.Auth.Required(), middleware.RequireAdmin, d.AuthH.MakeAdmin)
	}

	// Catalog
	api.GET("/products", d.Products.List)
	api.GET("/products/search", d.Limiter.Search(), d.Products.Search)
	api.GET("/products/:id", d.Products.Get)
	api.GET("/products/:id/reviews", d.Products.ListReviews)
	api.GET("/categories", d.Products.ListCategories)
	api.POST("/reviews", d.Auth.Required(), d.Products.CreateReview)

	// Cart: authenticated users and anonymous cart_session cookies alike.
	cart := api.Group("/cart", d.Auth.Optional())
	{
		cart.GET("", d.Cart.Get)
		cart.POST("/items", d.Limiter.CartAdd(), d.Cart.AddItem)
		cart.PUT("/items", d.Cart.UpdateItem)
		cart.DELETE("/items/:product_id", d.Cart.RemoveItem)
		cart.DELETE("", d.Cart.Clear)
	}

	// Orders
	orders := api.Group("/orders", d.Auth.Required())
	{
		orders.POST("", d.Orders.Create)
		orders.GET("", d.Orders.ListMine)
		orders.GET("/:id", d.Orders.Get)
		orders.GET("/:id/invoice", d.Orders.Invoice)
		orders.GET("/:id/ws", d.OrderWS.Stream)
	}

	// Payments: customer-initiated endpoints need auth; provider-facing
	// webhook and callback are unauthenticated by nature.
	pay := api.Group("/payments")
	{
		pay.POST("/stripe/checkout", d.Auth.Required(), d.Limiter.Payment(), d.Payments.StripeCheckout)
		pay.GET("/stripe/status/:session_id", d.Auth.Required(), d.Payments.StripeStatus)
		pay.POST("/mpesa/stk-push", d.Auth.Required(), d.Limiter.Payment(), d.Payments.MpesaSTKPush)
		pay.POST("/mpesa/callback", d.Payments.MpesaCallback)
		pay.GET("/mpesa/status/:checkout_request_id", d.Auth.Required(), d.Payments.MpesaStatus)
	}
	api.POST("/webhook/stripe", d.Payments.StripeWebhook)

	// Delivery
	delivery := api.Group("/delivery")
	{
		delivery.GET("/pickup-mtaani/agents", d.Delivery.Agents)
		delivery.GET("/pickup-mtaani/charge", d.Delivery.Charge)
		delivery.GET("/track/:tracking_number", d.Delivery.Track)
	}

	// Admin
	admin := api.Group("/admin", d.Auth.Required(), middleware.RequireAdmin)
	{
		admin.GET("/stats", d.Admin.Stats)
		admin.GET("/orders", d.Orders.AdminList)
		admin.PUT("/orders/:id/status", d.Orders.AdminUpdateStatus)
		admin.POST("/products", d.Products.Create)
		admin.PUT("/products/:id", d.Products.Update)
		admin.DELETE("/products/:id", d.Products.Delete)
		admin.POST("/products/:id/images", d.Products.UploadImage)
	}
}
