package transfers

import (
	"net/http"
	"strconv"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/middleware"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/metadata"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/roles"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TransferHandler struct {
	Service *TransferService
	logger  *zap.Logger
}

func NewHandler(s *TransferService, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{Service: s, logger: logger}
}

func (h *TransferHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/transactions", h.ListTransactions)
	router.GET("/transactions/:id", h.GetTransaction)
	router.POST("/transactions", h.CreateTransaction)
	router.POST("/transactions/:id/approve", security.Authorize(roles.Manager), h.ApproveTransaction)
	router.POST("/transactions/:id/reject", security.Authorize(roles.Manager), h.RejectTransaction)
	router.POST("/transactions/:id/cancel", h.CancelTransaction)
}

func (h *TransferHandler) CreateTransaction(c *gin.Context) {
	actor, _ := security.ActorFromContext(c)

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": []string{err.Error()}})
		return
	}

	result, err := h.Service.Create(c.Request.Context(), actor, req)
	if err != nil {
		middleware.RespondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *TransferHandler) ApproveTransaction(c *gin.Context) {
	actor, _ := security.ActorFromContext(c)

	result, err := h.Service.Approve(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middleware.RespondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *TransferHandler) RejectTransaction(c *gin.Context) {
	actor, _ := security.ActorFromContext(c)

	transaction, err := h.Service.Reject(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middleware.RespondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "transaction": transaction})
}

func (h *TransferHandler) CancelTransaction(c *gin.Context) {
	actor, _ := security.ActorFromContext(c)

	transaction, err := h.Service.Cancel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middleware.RespondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "transaction": transaction})
}

func (h *TransferHandler) GetTransaction(c *gin.Context) {
	transaction, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

func (h *TransferHandler) ListTransactions(c *gin.Context) {
	actor, _ := security.ActorFromContext(c)
	conditions := repository.NewQueryBuilder()

	if value := c.Query("status"); value != "" {
		status, err := metadata.NewStatus(value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "details": []string{err.Error()}})
			return
		}
		conditions.AddCondition("status", status.String())
	}
	if value := c.Query("type"); value != "" {
		txType, err := metadata.NewTransactionType(value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type", "details": []string{err.Error()}})
			return
		}
		conditions.AddCondition("type", txType.String())
	}
	if value := c.Query("isOrderMode"); value != "" {
		isOrderMode, err := strconv.ParseBool(value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid isOrderMode", "details": []string{err.Error()}})
			return
		}
		conditions.AddCondition("is_order_mode", isOrderMode)
	}
	if value := c.Query("createdBy"); value != "" {
		conditions.AddCondition("created_by", value)
	}

	limit, offset := middleware.Pagination(c)
	list, err := h.Service.List(c.Request.Context(), actor, conditions, limit, offset)
	if err != nil {
		middleware.RespondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, list)
}
