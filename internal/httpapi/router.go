package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/symptom-checker/internal/common"
	"github.com/suPer8Hu/symptom-checker/internal/config"
	"github.com/suPer8Hu/symptom-checker/internal/httpapi/handlers"
	"github.com/suPer8Hu/symptom-checker/internal/httpapi/middleware"
	"github.com/suPer8Hu/symptom-checker/internal/monitoring"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func NewRouter(cfg config.Config, h *handlers.Handler, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	monitoring.Init()

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.AccessLog(log))
	r.Use(monitoring.MetricsMiddleware())
	r.Use(middleware.LimitBodySize(maxBodyBytes))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, common.CodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, common.CodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/readyz", h.Ready)
	r.GET("/metrics", monitoring.PrometheusHandler())

	v1 := r.Group("/api/v1")
	v1.POST("/check", middleware.RateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow), h.CheckSymptoms)
	v1.GET("/history", h.ListHistory)
	v1.GET("/history/:id", h.GetHistory)
	v1.DELETE("/history/:id", middleware.AdminRequired(cfg.AdminJWTSecret), h.DeleteHistory)

	return r
}

// corsConfig allows every origin when the list is empty or contains "*".
func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID, handlers.HeaderHistoryStatus, handlers.HeaderHistoryID},
		MaxAge:        12 * time.Hour,
	}
	all := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			all = true
		}
	}
	if all {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cc
}
