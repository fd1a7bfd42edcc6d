package projects

import (
	"net/http"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/middleware"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	Service *ProjectService
	logger  *zap.Logger
}

func NewHandler(s *ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{Service: s, logger: logger}
}

func (h *ProjectHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/projects", h.ListProjects)
	router.GET("/projects/lobby", h.GetLobby)
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	actor, _ := security.ActorFromContext(c)

	listings, err := h.Service.ListProjectsFor(c.Request.Context(), actor, c.Query("productId"))
	if err != nil {
		middleware.RespondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, listings)
}

func (h *ProjectHandler) GetLobby(c *gin.Context) {
	actor, _ := security.ActorFromContext(c)

	lobby, err := h.Service.EnsureLobby(c.Request.Context(), actor)
	if err != nil {
		middleware.RespondWithError(c, h.logger, err)
		return
	}
	if lobby == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Only managers have a lobby project"})
		return
	}

	c.JSON(http.StatusOK, lobby)
}
