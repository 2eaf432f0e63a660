package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/symptom-checker/internal/common"
	"github.com/suPer8Hu/symptom-checker/internal/symptom"
)

const (
	HeaderHistoryStatus = "X-History-Status"
	HeaderHistoryID     = "X-History-ID"
)

func (h *Handler) CheckSymptoms(c *gin.Context) {
	var req symptom.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &typeErr):
			common.Fail(c, http.StatusUnprocessableEntity, common.CodeValidation,
				fmt.Sprintf("%s: expected %s", typeErr.Field, typeErr.Type))
		case errors.As(err, &tooLarge):
			common.Fail(c, http.StatusRequestEntityTooLarge, common.CodeBadRequest, "request body too large")
		default:
			common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, "invalid json")
		}
		return
	}

	res, err := h.CheckSvc.Check(c.Request.Context(), req)
	if err != nil {
		var ve *symptom.ValidationError
		switch {
		case errors.As(err, &ve):
			common.Fail(c, http.StatusUnprocessableEntity, common.CodeValidation, ve.Message)
		case errors.Is(err, symptom.ErrLLMUnavailable):
			common.Fail(c, http.StatusServiceUnavailable, common.CodeLLMUnavailable,
				"The analysis service is temporarily unavailable. Please try again later.")
		default:
			_ = c.Error(err)
			common.Fail(c, http.StatusInternalServerError, common.CodeInternal, "internal server error")
		}
		return
	}

	switch {
	case res.Persisted:
		c.Header(HeaderHistoryStatus, "persisted")
		c.Header(HeaderHistoryID, strconv.FormatUint(res.RecordID, 10))
	case res.Queued:
		c.Header(HeaderHistoryStatus, "queued")
	default:
		c.Header(HeaderHistoryStatus, "failed")
	}
	c.JSON(http.StatusOK, res.Response)
}
