package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/eternal-union/internal/studio"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const healthPingTimeout = 2 * time.Second

type HealthHandler struct {
	db      *gorm.DB
	manager *studio.Manager
	version string
}

// NewHealthHandler creates the health handler. db is nil when the service
// runs on in-memory stores.
func NewHealthHandler(db *gorm.DB, manager *studio.Manager, version string) *HealthHandler {
	return &HealthHandler{db: db, manager: manager, version: version}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	storage := "memory"
	if h.db != nil {
		storage = "postgres"
		if err := h.ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"storage": storage,
				"error":   err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.version,
		"storage": storage,
		"studios": h.manager.Len(),
	})
}

func (h *HealthHandler) ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
