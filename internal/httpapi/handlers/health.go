package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/symptom-checker/internal/db"
	"github.com/suPer8Hu/symptom-checker/internal/symptom"
	"go.uber.org/zap"
)

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":    "Healthcare Symptom Checker API",
		"disclaimer": symptom.Disclaimer,
		"version":    h.Version,
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": ServiceName})
}

func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "not configured"})
		return
	}
	if err := db.Ping(ctx, h.DB); err != nil {
		h.Log.Warn("readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "database": "ok"})
}
