package admin

import (
	"net/http"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/middleware"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/rate_limiter"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/roles"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OverrideHandler struct {
	Service     *OverrideService
	rateLimiter *rate_limiter.RateLimiter
	logger      *zap.Logger
}

func NewHandler(s *OverrideService, rl *rate_limiter.RateLimiter, logger *zap.Logger) *OverrideHandler {
	return &OverrideHandler{Service: s, rateLimiter: rl, logger: logger}
}

func (h *OverrideHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/admin", security.Authorize(roles.Admin))
	limited := h.rateLimiter.Middleware(func(c *gin.Context) string {
		actor, _ := security.ActorFromContext(c)
		return actor.ID
	})

	group.POST("/direct-rack-stock-update", limited, h.override(ActionDirectRackStockUpdate))
	group.POST("/direct-stock-update", limited, h.override(ActionDirectStockUpdate))
	group.GET("/actions", h.ListActions)
}

func (h *OverrideHandler) override(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := security.ActorFromContext(c)

		var req OverrideRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": []string{err.Error()}})
			return
		}

		result, err := h.Service.Override(c.Request.Context(), actor, action, req)
		if err != nil {
			middleware.RespondWithError(c, h.logger, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func (h *OverrideHandler) ListActions(c *gin.Context) {
	limit, offset := middleware.Pagination(c)

	actions, err := h.Service.ListActions(c.Request.Context(), limit, offset)
	if err != nil {
		middleware.RespondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, actions)
}
