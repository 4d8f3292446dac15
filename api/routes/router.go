package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inventiapp/stocktrack-backend/api/controllers"
	"github.com/inventiapp/stocktrack-backend/api/middleware"
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
	"github.com/inventiapp/stocktrack-backend/pkg/enums"
	"github.com/inventiapp/stocktrack-backend/pkg/logger"
	"github.com/inventiapp/stocktrack-backend/pkg/redis"
)

// Services bundles everything the HTTP layer dispatches to.
type Services struct {
	Auth          auth.Service
	Users         users.Service
	Products      product.Service
	Categories    categories.Service
	Providers     providers.Service
	Kits          kits.Service
	Inventory     inventory.Service
	Sales         sales.Service
	Reports       reports.Service
	Notifications notifications.Service
	Analytics     analytics.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	bigqueryClient bigquery.Pinger,
	sessionChecker session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, bigqueryClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Get("/me", controllers.CurrentUser(svcs.Users, logg))
		r.Post("/me/password", controllers.ChangePassword(svcs.Users, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(svcs.Products, logg))
			r.Post("/", controllers.CreateProduct(svcs.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(svcs.Products, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(svcs.Products, logg))
			r.Delete("/{productId}", controllers.DeactivateProduct(svcs.Products, logg))
			r.Get("/{productId}/stock", controllers.ProductStock(svcs.Inventory, logg))
			r.Get("/{productId}/batches", controllers.ListBatches(svcs.Inventory, logg))
			r.Post("/{productId}/deplete", controllers.DepleteStock(svcs.Inventory, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(svcs.Categories, logg))
			r.Post("/", controllers.CreateCategory(svcs.Categories, logg))
			r.Get("/{categoryId}", controllers.GetCategory(svcs.Categories, logg))
			r.Patch("/{categoryId}", controllers.UpdateCategory(svcs.Categories, logg))
			r.Delete("/{categoryId}", controllers.DeleteCategory(svcs.Categories, logg))
		})

		r.Route("/providers", func(r chi.Router) {
			r.Get("/", controllers.ListProviders(svcs.Providers, logg))
			r.Post("/", controllers.CreateProvider(svcs.Providers, logg))
			r.Get("/{providerId}", controllers.GetProvider(svcs.Providers, logg))
			r.Patch("/{providerId}", controllers.UpdateProvider(svcs.Providers, logg))
			r.Delete("/{providerId}", controllers.DeactivateProvider(svcs.Providers, logg))
		})

		r.Route("/kits", func(r chi.Router) {
			r.Get("/", controllers.ListKits(svcs.Kits, logg))
			r.Post("/", controllers.CreateKit(svcs.Kits, logg))
			r.Get("/{kitId}", controllers.GetKit(svcs.Kits, logg))
			r.Patch("/{kitId}", controllers.UpdateKit(svcs.Kits, logg))
			r.Delete("/{kitId}", controllers.DeactivateKit(svcs.Kits, logg))
		})

		r.Route("/batches", func(r chi.Router) {
			r.Post("/", controllers.CreateBatch(svcs.Inventory, logg))
			r.Get("/{batchId}", controllers.GetBatch(svcs.Inventory, logg))
			r.Patch("/{batchId}", controllers.UpdateBatch(svcs.Inventory, logg))
			r.Delete("/{batchId}", controllers.DeleteBatch(svcs.Inventory, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.ListSales(svcs.Sales, logg))
			r.Post("/", controllers.CreateSale(svcs.Sales, logg))
			r.Get("/{saleId}", controllers.GetSale(svcs.Sales, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/dashboard", controllers.Dashboard(svcs.Reports, logg))
			r.Get("/stats", controllers.DashboardStats(svcs.Reports, logg))
			r.Get("/monthly-income", controllers.MonthlyIncome(svcs.Reports, logg))
			r.Get("/product-ranking", controllers.ProductRanking(svcs.Reports, logg))
			r.Get("/alerts", controllers.StockAlerts(svcs.Reports, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
			r.Get("/revenue", controllers.RevenueAnalytics(svcs.Analytics, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.AdminPing())
		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.ListUsers(svcs.Users, logg))
			r.Post("/", controllers.CreateUser(svcs.Users, logg))
			r.Get("/{userId}", controllers.GetUser(svcs.Users, logg))
			r.Patch("/{userId}", controllers.UpdateUser(svcs.Users, logg))
		})
	})

	return r
}
