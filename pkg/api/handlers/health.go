package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/announce/pkg/announce"
	"github.com/urmzd/announce/pkg/api/types"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	store *announce.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *announce.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health handles GET /health
// @Summary      Health check
// @Description  Returns the health status of the API and the announcement store
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse  "Service is healthy"
// @Failure      503  {object}  types.HealthResponse  "Store is unreadable"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	storeStatus := "readable"
	status := "healthy"
	httpStatus := http.StatusOK

	if _, err := h.store.All(c.Request.Context()); err != nil {
		storeStatus = "unreadable"
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, types.HealthResponse{
		Status:    status,
		Store:     storeStatus,
		Timestamp: time.Now(),
	})
}
