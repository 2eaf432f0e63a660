package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/symptom-checker/internal/auth"
	"github.com/suPer8Hu/symptom-checker/internal/common"
)

// AdminRequired checks an HS256 bearer token. An empty secret disables the check.
func AdminRequired(secret string) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) { c.Next() }
	}
	svc := auth.NewJWTService(secret)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			common.Fail(c, http.StatusUnauthorized, common.CodeUnauthorized, "missing bearer token")
			return
		}
		claims, err := svc.Validate(strings.TrimSpace(token))
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, common.CodeUnauthorized, "invalid token")
			return
		}
		c.Set("admin_subject", claims.Subject)
		c.Next()
	}
}
