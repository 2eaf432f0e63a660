package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/symptom-checker/internal/common"
	"github.com/suPer8Hu/symptom-checker/internal/logger"
	"go.uber.org/zap"
)

func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.For(c.Request.Context(), log).Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				common.Fail(c, http.StatusInternalServerError, common.CodeInternal, "internal server error")
			}
		}()
		c.Next()
	}
}
