// Package app contains the application setup: services, caches and routes.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stockdesk/stockdesk/internal/catalog"
	"github.com/stockdesk/stockdesk/internal/config"
	"github.com/stockdesk/stockdesk/internal/customer"
	"github.com/stockdesk/stockdesk/internal/inventory"
	"github.com/stockdesk/stockdesk/internal/order"
	"github.com/stockdesk/stockdesk/internal/transport/rest"
	"github.com/stockdesk/stockdesk/pkg/refresh"
	"github.com/stockdesk/stockdesk/pkg/server"
)

// Dependencies holds the wired services shared by the HTTP surface and the
// entrypoint.
type Dependencies struct {
	InventoryService inventory.InventoryService
	OrderService     order.OrderService
	CategoryService  catalog.CategoryService
	CustomerService  customer.CustomerService
	Refresher        *refresh.Runner
	Logger           *slog.Logger
}

// SetupDependencies builds every service on top of one database pool and one
// shared refresh runner.
func SetupDependencies(dbPool *pgxpool.Pool, cfg *config.Config, logger *slog.Logger) *Dependencies {
	refresher := refresh.NewRunner(logger, cfg.Cache.RefreshTimeout)

	return &Dependencies{
		InventoryService: inventory.NewService(inventory.NewPgStore(dbPool), refresher, logger),
		OrderService:     order.NewService(order.NewPgStore(dbPool), refresher, logger),
		CategoryService:  catalog.NewService(catalog.NewPgStore(dbPool), refresher, logger),
		CustomerService:  customer.NewService(customer.NewPgStore(dbPool), refresher, logger),
		Refresher:        refresher,
		Logger:           logger,
	}
}

// WarmupCaches performs the initial full load of every cache. The process
// does not serve traffic until this succeeds.
func WarmupCaches(ctx context.Context, deps *Dependencies, cfg *config.Config) error {
	warmupCtx, cancel := context.WithTimeout(ctx, cfg.Cache.WarmupTimeout)
	defer cancel()

	if err := deps.InventoryService.Warmup(warmupCtx); err != nil {
		return fmt.Errorf("inventory cache: %w", err)
	}
	if err := deps.OrderService.Warmup(warmupCtx); err != nil {
		return fmt.Errorf("order cache: %w", err)
	}
	if err := deps.CategoryService.Warmup(warmupCtx); err != nil {
		return fmt.Errorf("category cache: %w", err)
	}
	if err := deps.CustomerService.Warmup(warmupCtx); err != nil {
		return fmt.Errorf("customer cache: %w", err)
	}
	return nil
}

// SetupHttpHandler initializes the router and routes. Used by tests to set
// up the HTTP surface without a listening server.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for all entity families.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	rest.NewInventoryHandler(deps.InventoryService, deps.Logger).RegisterRoutes(mux)
	rest.NewOrderHandler(deps.OrderService, deps.Logger).RegisterRoutes(mux)
	rest.NewCategoryHandler(deps.CategoryService, deps.Logger).RegisterRoutes(mux)
	rest.NewCustomerHandler(deps.CustomerService, deps.Logger).RegisterRoutes(mux)
	mux.Get("/healthz", rest.HealthCheck)
}

// SetupHttpServer creates and configures the HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
