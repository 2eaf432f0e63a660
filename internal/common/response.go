package common

import (
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/symptom-checker/internal/symptom"
)

// Error codes carried in the "error" field.
const (
	CodeBadRequest       = "bad_request"
	CodeValidation       = "validation_error"
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeUnauthorized     = "unauthorized"
	CodeRateLimited      = "rate_limited"
	CodeLLMUnavailable   = "llm_unavailable"
	CodeInternal         = "internal_error"
	CodeUnavailable      = "service_unavailable"
)

type ErrorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Disclaimer string `json:"disclaimer"`
}

// Fail aborts the request with the standard error body; the disclaimer is always included.
func Fail(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Error:      code,
		Message:    msg,
		Disclaimer: symptom.Disclaimer,
	})
}
