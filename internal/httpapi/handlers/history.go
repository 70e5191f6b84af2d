package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yuanqi-lab/fortune-platform/internal/common"
	"github.com/yuanqi-lab/fortune-platform/internal/prompt"
)

func (h *Handler) historyType(c *gin.Context) (string, bool) {
	raw := c.Param("type")
	if raw == "all" {
		return "", true
	}
	game, err := prompt.ParseGameType(raw)
	if err != nil || game == prompt.GameNone {
		common.Fail(c, http.StatusBadRequest, "unsupported_type", "不支持的占卜类型")
		return "", false
	}
	return string(game), true
}

// ListHistory returns capped history for one type, newest first.
func (h *Handler) ListHistory(c *gin.Context) {
	divType, ok := h.historyType(c)
	if !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	recs, err := h.Repo.ListRecords(divType, limit)
	if err != nil {
		failFor(c, err)
		return
	}
	common.OK(c, gin.H{
		"records": recs,
		"count":   len(recs),
	})
}

func (h *Handler) GetHistoryRecord(c *gin.Context) {
	rec, err := h.Repo.GetRecord(c.Param("id"))
	if err != nil {
		failFor(c, err)
		return
	}
	common.OK(c, rec)
}

func (h *Handler) DeleteHistoryRecord(c *gin.Context) {
	if err := h.Repo.DeleteRecord(c.Param("id")); err != nil {
		failFor(c, err)
		return
	}
	common.OK(c, gin.H{"deleted": true})
}

// ClearHistory removes all records of a type ("all" clears everything).
func (h *Handler) ClearHistory(c *gin.Context) {
	divType, ok := h.historyType(c)
	if !ok {
		return
	}
	removed, err := h.Repo.ClearRecords(divType)
	if err != nil {
		failFor(c, err)
		return
	}
	common.OK(c, gin.H{"removed": removed})
}
