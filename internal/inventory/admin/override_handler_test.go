package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/rate_limiter"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T, actor models.Actor, limit int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service, _ := setupService(t)
	router := gin.New()
	group := router.Group("/api", func(c *gin.Context) {
		security.SetActor(c, actor)
		c.Next()
	})
	NewHandler(service, rate_limiter.NewRateLimiter(limit, time.Minute), zap.NewNop()).RegisterRoutes(group)
	return router
}

func post(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestOverrideHandler(t *testing.T) {
	router := setupRouter(t, adminActor, 5)

	w := post(router, "/api/admin/direct-rack-stock-update", gin.H{
		"productId": "p1", "projectId": "pr1", "rackId": "r1", "stockOnHand": 4, "reason": "recount",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var result OverrideResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 4, result.After.StockOnHand)
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
}

func TestOverrideHandlerRequiresReason(t *testing.T) {
	router := setupRouter(t, adminActor, 5)

	w := post(router, "/api/admin/direct-stock-update", gin.H{"productId": "p1", "projectId": "pr1", "stockOnHand": 4})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOverrideHandlerForbidsManagers(t *testing.T) {
	router := setupRouter(t, managerActor, 5)

	w := post(router, "/api/admin/direct-stock-update", gin.H{
		"productId": "p1", "projectId": "pr1", "stockOnHand": 4, "reason": "recount",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOverrideHandlerRateLimit(t *testing.T) {
	router := setupRouter(t, adminActor, 1)
	body := gin.H{"productId": "p1", "projectId": "pr1", "rackId": "r1", "stockOnHand": 4, "reason": "recount"}

	assert.Equal(t, http.StatusOK, post(router, "/api/admin/direct-rack-stock-update", body).Code)

	w := post(router, "/api/admin/direct-rack-stock-update", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
}
