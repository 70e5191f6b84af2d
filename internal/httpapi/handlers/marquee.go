package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yuanqi-lab/fortune-platform/internal/common"
	"github.com/yuanqi-lab/fortune-platform/internal/store/redisstore"
)

// Marquee returns the scrolling banner. Redis overrides the configured
// default; with no redis attached the default is served as-is.
func (h *Handler) Marquee(c *gin.Context) {
	fallback := redisstore.Marquee{
		Enabled:    h.Cfg.MarqueeEnabled,
		Message:    h.Cfg.MarqueeMessage,
		UpdateTime: time.Now(),
	}

	m := fallback
	if h.Redis != nil {
		m = h.Redis.GetMarquee(c.Request.Context(), fallback)
	}
	common.OK(c, gin.H{
		"enabled":    m.Enabled,
		"message":    m.Message,
		"updateTime": m.UpdateTime.UnixMilli(),
	})
}

// SetMarquee updates the banner in redis.
func (h *Handler) SetMarquee(c *gin.Context) {
	if h.Redis == nil {
		common.Fail(c, http.StatusServiceUnavailable, "storage_unavailable", "存储服务暂不可用")
		return
	}

	var req struct {
		Enabled bool   `json:"enabled"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid_json", "请求体格式有误")
		return
	}
	if err := h.Redis.SetMarquee(c.Request.Context(), redisstore.Marquee{
		Enabled: req.Enabled,
		Message: req.Message,
	}); err != nil {
		common.Fail(c, http.StatusServiceUnavailable, "storage_unavailable", "存储服务暂不可用")
		return
	}
	common.OK(c, gin.H{"updated": true})
}
