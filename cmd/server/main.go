package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"jojos_back_end/internal/adapters/cardcheckout"
	"jojos_back_end/internal/adapters/mpesa"
	"jojos_back_end/internal/adapters/pickupmtaani"
	"jojos_back_end/internal/cache"
	"jojos_back_end/internal/config"
	"jojos_back_end/internal/database"
	"jojos_back_end/internal/handlers"
	"jojos_back_end/internal/middleware"
	"jojos_back_end/internal/payments"
	"jojos_back_end/internal/repository"
	"jojos_back_end/internal/routes"
	"jojos_back_end/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	deps, err := database.Connect(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal("❌ Datastore connection failed: ", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		deps.Close(shutdownCtx)
	}()

	initOAuth(cfg)

	stores := repository.NewMongoStores(deps.Mongo)

	// Long-lived provider adapters, constructed once.
	card := cardcheckout.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	mpesaClient := mpesa.NewClient(cfg.MpesaEnvironment, cfg.MpesaConsumerKey, cfg.MpesaConsumerSecret, cfg.MpesaShortcode, cfg.MpesaPasskey)
	deliveryNetwork := pickupmtaani.NewClient(cfg.PickupMtaaniAPIKey)

	mailer := services.NewMailer(cfg)
	notifier := services.NewOrderNotifier(mailer, deps.Redis)
	engine := payments.NewEngine(stores.Transactions, stores.Orders, stores.Carts, notifier)

	search := services.NewSearchService(deps.Elastic, stores.Products)
	images := services.NewImageStore(deps.MinIO, deps.MinioBucket, cfg.MinioEndpoint, cfg.MinioUseSSL)
	productCache := cache.NewProductCache(deps.Redis, stores.Products)

	auth := middleware.NewAuth(cfg.JWTSecret, deps.Redis)
	limiter := middleware.NewRateLimiter(deps.Redis)

	r := gin.Default()
	routes.Register(r, routes.Deps{
		Auth:        auth,
		Limiter:     limiter,
		AuthH:       handlers.NewAuthHandler(stores.Users, auth),
		Products:    handlers.NewProductHandler(stores.Products, stores.Reviews, search, images, productCache),
		Cart:        handlers.NewCartHandler(stores.Carts, productCache),
		Orders:      handlers.NewOrderHandler(stores.Orders, stores.Carts),
		Payments:    handlers.NewPaymentHandler(engine, stores.Orders, stores.Transactions, card, mpesaClient, cfg.BaseURL, cfg.StripeKESPerUSD),
		Delivery:    handlers.NewDeliveryHandler(deliveryNetwork, stores.Orders),
		Admin:       handlers.NewAdminHandler(stores.Users, stores.Products, stores.Orders),
		OrderWS:     handlers.NewOrderWSHandler(stores.Orders, deps.Redis),
		Health:      handlers.Health(deps),
		CORSOrigins: cfg.CORSOrigins,
	})

	log.Println("🚀 Jojos Boutick API listening on port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("❌ Server stopped: ", err)
	}
}

func initOAuth(cfg config.Config) {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(86400 * 30)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   false, // flip on behind TLS
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	gothic.GetProviderName = func(req *http.Request) (string, error) {
		if provider := req.URL.Query().Get("provider"); provider != "" {
			return provider, nil
		}
		return "", errors.New("provider not found")
	}

	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		log.Println("⚠️ Google OAuth not configured")
		return
	}

	goth.UseProviders(google.New(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.BaseURL+"/api/auth/google/callback",
		"email", "profile",
	))
	log.Println("✅ Google OAuth enabled")
}
