package container

import (
	"database/sql"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/core/config"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/admin"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/availability"
	inventorylog "github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/inventory_log"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/projects"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/store"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/transfers"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/metrics"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/middleware"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/rate_limiter"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository/memory"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    store.Store
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	InventoryLog        *inventorylog.InventoryLog
	HealthChecker       *middleware.HealthChecker
	ClientRateLimiter   *middleware.ClientRateLimiter
	OverrideRateLimiter *rate_limiter.RateLimiter

	TransferHandler     *transfers.TransferHandler
	OverrideHandler     *admin.OverrideHandler
	AvailabilityHandler *availability.AvailabilityHandler
	ProjectHandler      *projects.ProjectHandler
	InventoryLogHandler *inventorylog.InventoryLogHandler
}

// NewAppContainer wires every service. A nil db selects the in-memory driver.
func NewAppContainer(cfg *config.Config, db *sql.DB, logger *zap.Logger) *Container {
	var s store.Store
	if db != nil {
		s = store.NewPostgresStore(repository.NewRepository(db))
	} else {
		logger.Warn("Using in-memory storage; data is lost on restart")
		s = store.NewMemoryStore(memory.NewDB())
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	repos := s.Repositories()
	inventoryLog := inventorylog.NewInventoryLog(repos.Activities, repos.Notifications, logger.Named("inventory_log"), m)

	projectService := projects.NewService(s, logger.Named("projects"), cfg.LobbyRackPrefix)
	transferService := transfers.NewService(s, inventoryLog, m, logger.Named("transfers"))
	overrideService := admin.NewService(s, inventoryLog, m, logger.Named("admin"))
	availabilityService := availability.NewService(s, projectService, logger.Named("availability"))

	overrideLimiter := rate_limiter.NewRateLimiter(cfg.AdminOverrideLimit, cfg.AdminOverrideWindow)

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Store:    s,
		Registry: registry,
		Metrics:  m,

		InventoryLog:        inventoryLog,
		HealthChecker:       middleware.NewHealthChecker(s, cfg.Version),
		ClientRateLimiter:   middleware.NewClientRateLimiter(rate.Limit(cfg.ClientRateLimit), cfg.ClientRateBurst),
		OverrideRateLimiter: overrideLimiter,

		TransferHandler:     transfers.NewHandler(transferService, logger),
		OverrideHandler:     admin.NewHandler(overrideService, overrideLimiter, logger),
		AvailabilityHandler: availability.NewHandler(availabilityService, logger),
		ProjectHandler:      projects.NewHandler(projectService, logger),
		InventoryLogHandler: inventorylog.NewHandler(repos.Activities, repos.Notifications, logger),
	}
}
