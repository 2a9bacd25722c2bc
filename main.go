package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"match-integrity-system/config"
	"match-integrity-system/engine"
	"match-integrity-system/fairness"
	"match-integrity-system/handlers"
	"match-integrity-system/metrics"
	"match-integrity-system/middleware"
	"match-integrity-system/seal"
	"match-integrity-system/services"
	"match-integrity-system/utils"
	"match-integrity-system/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store services.MatchStore
	if cfg.DatabaseURL == "" {
		log.Println("⚠️  DATABASE_URL not set, match artifacts are kept in memory only")
		store = services.NewMemoryMatchStore()
	} else {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			log.Fatal("failed to connect to database:", err)
		}
		gormStore := services.NewGormMatchStore(db)
		if err := gormStore.AutoMigrate(); err != nil {
			log.Fatal("failed to migrate database:", err)
		}
		store = gormStore
	}

	sim, err := engine.NewSimulator(cfg.Engine)
	if err != nil {
		log.Fatal("failed to build simulator:", err)
	}
	validator, err := fairness.NewValidator(cfg.Fairness)
	if err != nil {
		log.Fatal("failed to build validator:", err)
	}
	sealer, err := seal.NewSealer(cfg.HashAlgorithm)
	if err != nil {
		log.Fatal("failed to build sealer:", err)
	}
	m := metrics.New()

	matchService := services.NewMatchService(store, sim, validator, sealer, m)
	matchService.Seen = services.NewSeenFilter(cfg.SeenFilterCapacity)
	matchService.ReverifyConcurrency = cfg.ReverifyConcurrency

	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Store(ctx, cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		matchService.Archiver = services.NewRecordArchiver(r2, cfg.R2.Prefix)
		log.Printf("✅ Sealed records archived to R2 bucket %s/%s", cfg.R2.Bucket, cfg.R2.Prefix)
	}

	liveService := services.NewLiveService(matchService, cfg.LiveTickWait)

	app := fiber.New(fiber.Config{
		BodyLimit: 64 * 1024 * 1024,
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed (metrics are scraped directly)
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken, "/metrics"))

	allowedOrigins := strings.Join(cfg.AllowedOriginsList(), ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	app.Get("/metrics", m.Handler())
	handlers.SetupMatchRoutes(app, matchService)

	if cfg.AuthServiceURL != "" {
		authClient := services.NewAuthServiceClient(cfg.AuthServiceURL, cfg.AuthServiceToken)
		handlers.SetupLiveRoutes(app, liveService, authClient)
		log.Println("✅ Live matches enabled")
	} else {
		log.Println("⚠️  AUTH_SERVICE_URL not set, live match routes disabled")
	}

	go workers.PollUnsealed(ctx, matchService, cfg.SealInterval)

	if cfg.IngestURL != "" {
		ingest := workers.NewRecordIngestWorker(matchService, cfg.IngestURL, cfg.IngestPath, cfg.ServiceToken, cfg.IngestInterval, utils.HTTPClient)
		ingest.Start(ctx)
	}

	sched, err := matchService.StartReverifyScheduler(ctx, cfg.ReverifyInterval)
	if err != nil {
		log.Fatal("failed to start re-verification scheduler:", err)
	}
	defer func() { _ = sched.Shutdown() }()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Seal worker running (every %s), re-verification every %s", cfg.SealInterval, cfg.ReverifyInterval)
	log.Printf("✅ Simulator: %s RNG, %dms ticks; sealing with %s", cfg.Engine.RNGAlgorithm, cfg.Engine.TickMs, cfg.HashAlgorithm)
	log.Printf("✅ CORS configured for origins: %s", allowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
