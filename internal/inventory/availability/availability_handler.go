package availability

import (
	"net/http"
	"strconv"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/middleware"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AvailabilityHandler struct {
	Service *AvailabilityService
	logger  *zap.Logger
}

func NewHandler(s *AvailabilityService, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{Service: s, logger: logger}
}

func (h *AvailabilityHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stock-validation", h.ValidateStock)
}

func (h *AvailabilityHandler) ValidateStock(c *gin.Context) {
	actor, _ := security.ActorFromContext(c)

	q := Query{
		ProductID: c.Query("productId"),
		ProjectID: c.Query("projectId"),
	}
	if value := c.Query("getAllProjects"); value != "" {
		all, err := strconv.ParseBool(value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid getAllProjects", "details": []string{err.Error()}})
			return
		}
		q.GetAllProjects = all
	}

	result, err := h.Service.Validate(c.Request.Context(), actor, q)
	if err != nil {
		middleware.RespondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
