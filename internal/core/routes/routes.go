package routes

import (
	"os"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/core/container"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/core/validation"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func RegisterProtectedRoutes(router *gin.Engine, container *container.Container) {
	validation.Register()

	protectedRoutes := router.Group("")
	protectedRoutes.Use(security.JWTMiddleware(container.Config.JWTSecret))

	container.TransferHandler.RegisterRoutes(protectedRoutes)
	container.OverrideHandler.RegisterRoutes(protectedRoutes)
	container.AvailabilityHandler.RegisterRoutes(protectedRoutes)
	container.ProjectHandler.RegisterRoutes(protectedRoutes)
	container.InventoryLogHandler.RegisterRoutes(protectedRoutes)
}

func RegisterUtilityRoutes(router *gin.Engine, container *container.Container) {
	router.GET("/health", container.HealthChecker.Handler())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(container.Registry, promhttp.HandlerOpts{})))

	openapiFilePath := "./docs/index.html"
	if _, err := os.Stat(openapiFilePath); err == nil {
		router.GET("/openapi.html", func(c *gin.Context) {
			c.File(openapiFilePath)
		})
		container.Logger.Info("Route docs/index.html registered successfully.")
	} else {
		container.Logger.Warn("API docs not found; /openapi.html will not be registered", zap.String("path", openapiFilePath))
	}
}
