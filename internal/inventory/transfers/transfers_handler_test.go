package transfers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/core/validation"
	inventorylog "github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/inventory_log"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/stocks"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/store"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository/memory"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T, actor models.Actor) (*gin.Engine, *TransferService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Register()

	db := memory.NewDB()
	db.SeedProduct(models.Product{ID: "p1", Name: "Cable"})
	db.SeedRack(stocks.CanonicalCollection, models.Rack{
		ID:         "r1",
		RackNumber: "A-01",
		Products:   []models.RackProductLine{{Product: models.NewProductRef("p1"), Stock: 10}},
	})
	db.SeedProject(models.Project{ID: "pr1", Name: "Main", Racks: []string{"r1"}})

	s := store.NewMemoryStore(db)
	repos := s.Repositories()
	service := NewService(s, inventorylog.NewInventoryLog(repos.Activities, repos.Notifications, zap.NewNop(), nil), nil, zap.NewNop())

	router := gin.New()
	group := router.Group("/api", func(c *gin.Context) {
		security.SetActor(c, actor)
		c.Next()
	})
	NewHandler(service, zap.NewNop()).RegisterRoutes(group)
	return router, service
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateTransactionHandler(t *testing.T) {
	router, _ := setupRouter(t, keeper)

	w := doJSON(router, http.MethodPost, "/api/transactions", gin.H{
		"type":  "out",
		"items": []gin.H{{"productId": "p1", "projectId": "pr1", "rackId": "r1", "quantity": 4}},
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var result CreateTransactionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.ItemCount)
	assert.Equal(t, 4, result.TotalQuantity)
	assert.Equal(t, "completed", result.Transaction.Status.String())
}

func TestCreateTransactionHandlerRejectsBadPayload(t *testing.T) {
	router, _ := setupRouter(t, keeper)

	tests := []struct {
		name string
		body gin.H
	}{
		{"unknown type", gin.H{"type": "sideways", "items": []gin.H{{"productId": "p1", "projectId": "pr1", "rackId": "r1", "quantity": 1}}}},
		{"no items", gin.H{"type": "in", "items": []gin.H{}}},
		{"zero quantity", gin.H{"type": "in", "items": []gin.H{{"productId": "p1", "projectId": "pr1", "rackId": "r1", "quantity": 0}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/api/transactions", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateTransactionHandlerReportsEveryItemProblem(t *testing.T) {
	router, service := setupRouter(t, keeper)

	w := doJSON(router, http.MethodPost, "/api/transactions", gin.H{
		"type": "in",
		"items": []gin.H{
			{"productId": "nope", "projectId": "pr1", "rackId": "r1", "quantity": 2},
			{"productId": "p1", "projectId": "pr1", "rackId": "r1", "quantity": 0},
			{"productId": "p1", "projectId": "pr1", "quantity": 1},
		},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Validation failed", body.Error)
	assert.Equal(t, []string{
		"item 1: product nope not found",
		"item 2: quantity must be greater than 0",
		"item 3: rackId is required",
	}, body.Details)

	list, err := service.List(context.Background(), keeper, repository.NewQueryBuilder(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateTransactionHandlerInsufficientStock(t *testing.T) {
	router, _ := setupRouter(t, keeper)

	w := doJSON(router, http.MethodPost, "/api/transactions", gin.H{
		"type":  "out",
		"items": []gin.H{{"productId": "p1", "projectId": "pr1", "rackId": "r1", "quantity": 11}},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Insufficient stock", body.Error)
	assert.Len(t, body.Details, 1)
}

func TestApproveRequiresManager(t *testing.T) {
	router, _ := setupRouter(t, keeper)

	w := doJSON(router, http.MethodPost, "/api/transactions/anything/approve", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestApproveUnknownTransaction(t *testing.T) {
	router, _ := setupRouter(t, manager)

	w := doJSON(router, http.MethodPost, "/api/transactions/missing/approve", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApproveAndCancelFlow(t *testing.T) {
	router, _ := setupRouter(t, manager)

	w := doJSON(router, http.MethodPost, "/api/transactions", gin.H{
		"type":        "in",
		"isOrderMode": true,
		"items":       []gin.H{{"productId": "p1", "projectId": "pr1", "rackId": "r1", "quantity": 5}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created CreateTransactionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Transaction.ID

	w = doJSON(router, http.MethodPost, "/api/transactions/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var approved ApproveResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &approved))
	assert.True(t, approved.Success)
	assert.Empty(t, approved.Errors)

	w = doJSON(router, http.MethodPost, "/api/transactions/"+id+"/reject", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/transactions/"+id+"/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTransactionsHandlerFilters(t *testing.T) {
	router, service := setupRouter(t, manager)
	_, err := service.Create(context.Background(), keeper, CreateTransactionRequest{Type: "in", IsOrderMode: true, Items: []TransferItemRequest{{ProductID: "p1", ProjectID: "pr1", RackID: "r1", Quantity: 1}}})
	require.NoError(t, err)
	_, err = service.Create(context.Background(), keeper, CreateTransactionRequest{Type: "out", Items: []TransferItemRequest{{ProductID: "p1", ProjectID: "pr1", RackID: "r1", Quantity: 1}}})
	require.NoError(t, err)

	w := doJSON(router, http.MethodGet, "/api/transactions?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.StockTransaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = doJSON(router, http.MethodGet, "/api/transactions?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
