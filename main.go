package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vipGateAPI/handlers"
	"vipGateAPI/internal/venueclock"
	"vipGateAPI/middleware"
	"vipGateAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	venueClock          *venueclock.Clock
	tierService         *services.TierService
	membershipService   *services.MembershipService
	scanService         *services.ScanService
	fulfillmentService  *services.FulfillmentService
	notificationService *services.NotificationService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	if err := runMigrations(ctx); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	log.Println("Successfully connected to Postgres")

	venueClock, err = venueclock.New(os.Getenv("VENUE_TIMEZONE"))
	if err != nil {
		log.Fatal("Failed to load venue timezone:", err)
	}
	log.Printf("Venue calendar day boundary in %s", venueClock.Location())

	notificationService = services.NewNotificationService(dbPool)
	tierService = services.NewTierService(dbPool)
	membershipService = services.NewMembershipService(dbPool, venueClock, tierService, notificationService)
	scanService = services.NewScanService(dbPool, venueClock)
	fulfillmentService = services.NewFulfillmentService(dbPool, notificationService)

	middleware.InitPrometheus()
}

func runMigrations(ctx context.Context) error {
	db := stdlib.OpenDB(*dbPool.Config().ConnConfig)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	// Initialize handlers
	scanHandler := handlers.NewScanHandler(scanService)
	tierHandler := handlers.NewTierHandler(tierService)
	membershipHandler := handlers.NewMembershipHandler(membershipService, notificationService)
	fulfillmentHandler := handlers.NewFulfillmentHandler(fulfillmentService)
	webhookHandler := handlers.NewWebhookHandler(membershipService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "vipGate-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/payment", webhookHandler.HandlePaymentWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 — PUBLIC SURFACE (door scanner + checkout UI)
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/scan", scanHandler.ValidateScan).Methods("POST")
	api.HandleFunc("/tiers", tierHandler.GetTiers).Methods("GET")
	api.HandleFunc("/tiers/{id}/price", tierHandler.QuotePrice).Methods("GET")
	api.HandleFunc("/memberships/purchase", membershipHandler.Purchase).Methods("POST")
	api.HandleFunc("/memberships/{id}/qr", membershipHandler.GetQRCode).Methods("GET")

	// -------------------------------------------------------------------------
	// ADMIN COMMAND SURFACE (REQUIRES X-Admin-Key)
	// -------------------------------------------------------------------------
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminKeyMiddleware)

	admin.HandleFunc("/memberships", membershipHandler.ListMemberships).Methods("GET")
	admin.HandleFunc("/memberships/{id}", membershipHandler.GetMembership).Methods("GET")
	admin.HandleFunc("/memberships/{id}", membershipHandler.DeleteMembership).Methods("DELETE")
	admin.HandleFunc("/memberships/{id}/extend", membershipHandler.Extend).Methods("POST")
	admin.HandleFunc("/memberships/{id}/active", membershipHandler.SetActive).Methods("PUT")
	admin.HandleFunc("/memberships/{id}/notifications", membershipHandler.GetNotifications).Methods("GET")
	admin.HandleFunc("/memberships/{id}/card-requests", fulfillmentHandler.RequestCard).Methods("POST")
	admin.HandleFunc("/quota-resets", membershipHandler.ResetQuota).Methods("POST")

	admin.HandleFunc("/scans", scanHandler.GetScanHistory).Methods("GET")

	admin.HandleFunc("/tiers", tierHandler.GetAllTiers).Methods("GET")
	admin.HandleFunc("/tiers", tierHandler.CreateTier).Methods("POST")
	admin.HandleFunc("/tiers/{id}", tierHandler.UpdateTier).Methods("PUT")

	admin.HandleFunc("/card-requests", fulfillmentHandler.ListRequests).Methods("GET")
	admin.HandleFunc("/card-requests/{id}/ready", fulfillmentHandler.MarkReady).Methods("PUT")
	admin.HandleFunc("/card-requests/{id}/picked-up", fulfillmentHandler.MarkPickedUp).Methods("PUT")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "X-Admin-Key", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
