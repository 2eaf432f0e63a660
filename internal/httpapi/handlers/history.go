package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/symptom-checker/internal/common"
	"github.com/suPer8Hu/symptom-checker/internal/history"
)

func (h *Handler) ListHistory(c *gin.Context) {
	page, ok := intQuery(c, "page", history.DefaultPage)
	if !ok {
		return
	}
	pageSize, ok := intQuery(c, "page_size", history.DefaultPageSize)
	if !ok {
		return
	}

	out, err := h.HistorySvc.List(c.Request.Context(), page, pageSize)
	if err != nil {
		_ = c.Error(err)
		common.Fail(c, http.StatusInternalServerError, common.CodeInternal, "failed to list history")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetHistory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	q, err := h.HistorySvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, common.CodeNotFound, "Query not found")
			return
		}
		_ = c.Error(err)
		common.Fail(c, http.StatusInternalServerError, common.CodeInternal, "failed to load query")
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *Handler) DeleteHistory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.HistorySvc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, common.CodeNotFound, "Query not found")
			return
		}
		_ = c.Error(err)
		common.Fail(c, http.StatusInternalServerError, common.CodeInternal, "failed to delete query")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Query deleted successfully"})
}

func idParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, "id must be a non-negative integer")
		return 0, false
	}
	return id, true
}

// intQuery reads an optional integer query parameter; range policy is left to the service.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, common.CodeBadRequest, name+" must be an integer")
		return 0, false
	}
	return n, true
}
