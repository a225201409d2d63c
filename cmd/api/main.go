package main

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/naturallyofcourse/shop-backend/internal/config"
	"github.com/naturallyofcourse/shop-backend/internal/logger"
	"github.com/naturallyofcourse/shop-backend/internal/modules/auth"
	"github.com/naturallyofcourse/shop-backend/internal/modules/catalog"
	"github.com/naturallyofcourse/shop-backend/internal/modules/checkout"
	"github.com/naturallyofcourse/shop-backend/internal/modules/notify"
	"github.com/naturallyofcourse/shop-backend/internal/modules/order"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	appLog := logger.New("shop-api", cfg.LogLevel)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}
	appLog.Info("connected to database")

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Admin-Auth", "Stripe-Signature"},
		AllowCredentials: true,
	}))

	// ── Admin auth ──────────────────────────────────────────
	authService := auth.NewService(cfg.AdminPassword, cfg.AdminPasswordHash)
	auth.NewHandler(authService).RegisterRoutes(router)
	adminOnly := auth.Middleware(authService)

	// ── Catalog ─────────────────────────────────────────────
	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo)
	images := catalog.NewImageStore(cfg.ImageDir)
	catalog.NewHandler(catalogService, images).RegisterRoutes(router, adminOnly)

	// ── Orders ──────────────────────────────────────────────
	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(orderRepo)
	order.NewHandler(orderService).RegisterRoutes(router, adminOnly)

	// ── Notifications ───────────────────────────────────────
	var sink notify.Sink = notify.Noop{}
	if cfg.SMTPHost != "" {
		sink = notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser,
			cfg.SMTPPass, cfg.EmailFrom, cfg.AdminEmail)
	} else {
		appLog.Warn("SMTP not configured, notifications disabled")
	}

	// ── Checkout & webhook reconciliation ───────────────────
	checkoutService := checkout.NewService(
		checkout.NewStripeClient(cfg.StripeSecretKey),
		checkout.NewWebhookVerifier(cfg.StripeWebhookSecret),
		orderRepo, catalogRepo, sink, appLog,
		cfg.Currency, cfg.CheckoutBaseURL,
	)
	checkout.NewHandler(checkoutService).RegisterRoutes(router)

	// ── Static storefront ───────────────────────────────────
	router.Handle("/*", http.FileServer(http.Dir(cfg.PublicDir)))

	appLog.Info("server starting", "port", cfg.AppPort)
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, router))
}
