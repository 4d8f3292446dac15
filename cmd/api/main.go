package main

import (
	"context"
	"net/http"
	"os"

	"github.com/inventiapp/stocktrack-backend/api/routes"
	"github.com/inventiapp/stocktrack-backend/internal/analytics"
	"github.com/inventiapp/stocktrack-backend/internal/auth"
	"github.com/inventiapp/stocktrack-backend/internal/categories"
	"github.com/inventiapp/stocktrack-backend/internal/inventory"
	"github.com/inventiapp/stocktrack-backend/internal/kits"
	"github.com/inventiapp/stocktrack-backend/internal/notifications"
	product "github.com/inventiapp/stocktrack-backend/internal/products"
	"github.com/inventiapp/stocktrack-backend/internal/providers"
	"github.com/inventiapp/stocktrack-backend/internal/reports"
	"github.com/inventiapp/stocktrack-backend/internal/sales"
	"github.com/inventiapp/stocktrack-backend/internal/users"
	"github.com/inventiapp/stocktrack-backend/pkg/auth/session"
	"github.com/inventiapp/stocktrack-backend/pkg/bigquery"
	"github.com/inventiapp/stocktrack-backend/pkg/config"
	"github.com/inventiapp/stocktrack-backend/pkg/db"
	"github.com/inventiapp/stocktrack-backend/pkg/logger"
	"github.com/inventiapp/stocktrack-backend/pkg/migrate"
	"github.com/inventiapp/stocktrack-backend/pkg/outbox"
	"github.com/inventiapp/stocktrack-backend/pkg/redis"
	"github.com/joho/godotenv"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	bqClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap bigquery", err)
		os.Exit(1)
	}
	defer func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing bigquery", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	categoryRepo := categories.NewRepository(dbClient.DB())
	providerRepo := providers.NewRepository(dbClient.DB())
	productRepo := product.NewRepository(dbClient.DB())
	batchRepo := inventory.NewRepository(dbClient.DB())
	kitRepo := kits.NewRepository(dbClient.DB())
	salesRepo := sales.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	usersService, err := users.NewService(userRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		Permissions:    usersService,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	categoriesService, err := categories.NewService(categoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create categories service", err)
		os.Exit(1)
	}

	providersService, err := providers.NewService(providerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create providers service", err)
		os.Exit(1)
	}

	productsService, err := product.NewService(productRepo, categoryRepo, providerRepo, batchRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	kitsService, err := kits.NewService(kitRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create kits service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(batchRepo, dbClient, productRepo, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	salesService, err := sales.NewService(dbClient, salesRepo, userRepo, productRepo, nil, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(salesRepo, productRepo, batchRepo, notificationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	analyticsService, err := analytics.NewService(bqClient, cfg.GCP.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.SaleFactsTable)
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, bqClient, sessionManager, routes.Services{
			Auth:          authService,
			Users:         usersService,
			Products:      productsService,
			Categories:    categoriesService,
			Providers:     providersService,
			Kits:          kitsService,
			Inventory:     inventoryService,
			Sales:         salesService,
			Reports:       reportsService,
			Notifications: notificationsService,
			Analytics:     analyticsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
