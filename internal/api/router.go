package api

import (
	"github.com/avdnv/exchange-miniapp/internal/admins"
	"github.com/avdnv/exchange-miniapp/internal/api/handler"
	"github.com/avdnv/exchange-miniapp/internal/api/middleware"
	"github.com/avdnv/exchange-miniapp/internal/api/spec"
	"github.com/avdnv/exchange-miniapp/internal/config"
	"github.com/avdnv/exchange-miniapp/internal/rates"
	"github.com/avdnv/exchange-miniapp/internal/repository"
	"github.com/avdnv/exchange-miniapp/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// Router assembles the backend HTTP surface.
type Router struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *pgxpool.Pool
	repo   *repository.Repository
	redis  redis.Cmdable
	orders *service.OrderService
	rates  *rates.Service
	admins *admins.Directory
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, repo *repository.Repository, redisClient redis.Cmdable, orders *service.OrderService, rateSvc *rates.Service, directory *admins.Directory) *Router {
	return &Router{
		cfg:    cfg,
		logger: logger,
		db:     db,
		repo:   repo,
		redis:  redisClient,
		orders: orders,
		rates:  rateSvc,
		admins: directory,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	healthHandler := handler.NewHealthHandler(api.db, api.redis)
	rateHandler := handler.NewRateHandler(api.rates)
	orderHandler := handler.NewOrderHandler(api.orders)
	userHandler := handler.NewUserHandler()
	adminHandler := handler.NewAdminHandler(api.orders, api.rates, api.admins, []byte(api.cfg.JWTSecret), api.cfg.AdminSessionTTL)

	telegramAuth := middleware.TelegramAuth(api.cfg.BotToken, api.repo)

	// Operational surface
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/api/openapi.yaml")))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Get("/api/rate", rateHandler.Current)
	})

	// Mini App routes authenticated by Telegram init data
	r.Group(func(r chi.Router) {
		r.Use(telegramAuth)
		r.Use(middleware.UserRateLimiter(api.cfg.PublicRateLimitRPS))

		r.Get("/api/users/me", userHandler.Me)
		r.Post("/api/orders", orderHandler.Create)
		r.Get("/api/orders", orderHandler.List)
		r.Get("/api/orders/{id}", orderHandler.Get)
		r.Post("/api/orders/{id}/cancel", orderHandler.Cancel)

		r.Post("/api/admin/session", adminHandler.Session)
		r.Get("/api/admin/check", adminHandler.Check)
	})

	// Admin panel routes behind the session token; the status transition
	// additionally admits the bot via the shared service token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminAuth([]byte(api.cfg.JWTSecret)))

		r.Get("/api/admin/orders", adminHandler.ListOrders)
		r.Get("/api/admin/rate-settings", adminHandler.RateSettings)
		r.Put("/api/admin/rate-settings", adminHandler.UpdateRateSettings)
	})
	r.With(middleware.AdminOrInternal([]byte(api.cfg.JWTSecret), api.cfg.InternalToken)).
		Patch("/api/admin/orders/{id}", adminHandler.Action)

	return r
}
