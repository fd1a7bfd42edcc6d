package inventorylog

import (
	"net/http"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/middleware"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/roles"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InventoryLogHandler struct {
	activities    ActivityRepository
	notifications NotificationRepository
	logger        *zap.Logger
}

func NewHandler(a ActivityRepository, n NotificationRepository, logger *zap.Logger) *InventoryLogHandler {
	return &InventoryLogHandler{activities: a, notifications: n, logger: logger}
}

func (h *InventoryLogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/activities", security.Authorize(roles.Manager), h.ListActivities)
	router.GET("/notifications", h.ListNotifications)
}

func (h *InventoryLogHandler) ListActivities(c *gin.Context) {
	conditions := repository.NewQueryBuilder()
	for param, column := range map[string]string{
		"entityType": "entity_type",
		"entityId":   "entity_id",
		"action":     "action",
		"actorId":    "actor_id",
	} {
		if value := c.Query(param); value != "" {
			conditions.AddCondition(column, value)
		}
	}

	limit, offset := middleware.Pagination(c)
	activities, err := h.activities.ListActivities(c.Request.Context(), conditions, limit, offset)
	if err != nil {
		middleware.RespondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, activities)
}

// ListNotifications returns notifications addressed to the caller directly or
// to any role the caller outranks or holds.
func (h *InventoryLogHandler) ListNotifications(c *gin.Context) {
	actor, ok := security.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return
	}

	var recipientRoles []string
	for _, role := range []roles.Role{roles.Keeper, roles.Manager, roles.Admin} {
		if actor.Can(role) {
			recipientRoles = append(recipientRoles, role.String())
		}
	}

	limit, offset := middleware.Pagination(c)
	notifications, err := h.notifications.ListNotifications(c.Request.Context(), actor.ID, recipientRoles, limit, offset)
	if err != nil {
		middleware.RespondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}
