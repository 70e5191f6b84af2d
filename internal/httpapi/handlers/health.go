package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yuanqi-lab/fortune-platform/internal/common"
)

func (h *Handler) Health(c *gin.Context) {
	common.OK(c, gin.H{
		"status":        "ok",
		"timestamp":     time.Now().UnixMilli(),
		"apiConfigured": h.Cfg.APIConfigured(),
		"version":       h.Cfg.Version,
	})
}
