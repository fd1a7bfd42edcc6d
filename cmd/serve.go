package cmd

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/core/config"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/core/container"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/core/logger"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/core/routes"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/core/tracing"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/database"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/database/migration"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logger.NewLogger(cfg.Env)
		defer log.Sync()

		return serve(cmd.Context(), cfg, log)
	},
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	shutdownTracing, err := tracing.Init(ctx, cfg.ServiceName, cfg.Version, cfg.OTLPEndpoint, log)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	var db *sql.DB
	if cfg.StorageDriver == config.DriverPostgres {
		if cfg.AutoMigrate {
			source, err := migration.SourceURL(cfg.MigrationsDir)
			if err != nil {
				return err
			}
			if err := migration.Migrate(cfg.DatabaseURL, source, !cfg.IsProduction(), log); err != nil {
				return err
			}
		}

		db, err = database.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		log.Info("Connected to the database successfully!")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	c := container.NewAppContainer(cfg, db, log)
	go c.ClientRateLimiter.Run(ctx)
	go c.OverrideRateLimiter.Run(ctx, time.Minute)

	router := gin.New()
	router.Use(
		otelgin.Middleware(cfg.ServiceName),
		middleware.RecoveryMiddleware(log),
		middleware.RequestLogger(log, c.Metrics),
		middleware.CORS(cfg.CORSAllowedOrigins),
		c.ClientRateLimiter.Middleware(),
		middleware.TimeoutMiddleware(cfg.RequestTimeout),
	)
	routes.RegisterUtilityRoutes(router, c)
	routes.RegisterProtectedRoutes(router, c)

	srv := &http.Server{
		Addr:              cfg.Host,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", cfg.Host), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
