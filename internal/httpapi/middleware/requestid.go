package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/symptom-checker/internal/common"
	"github.com/suPer8Hu/symptom-checker/internal/logger"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxRequestID    = "request_id"
)

// RequestID reuses a sane inbound X-Request-ID or mints a ULID, and exposes it on
// the gin context, the request context and the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > common.MaxRequestIDLen {
			id = common.NewULID()
		}
		c.Set(CtxRequestID, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
