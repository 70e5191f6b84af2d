package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yuanqi-lab/fortune-platform/internal/common"
	"github.com/yuanqi-lab/fortune-platform/internal/prompt"
	"github.com/yuanqi-lab/fortune-platform/internal/store/redisstore"
)

// defaultSettings are merged under whatever is stored, so the response
// always carries every known field.
func defaultSettings() map[string]any {
	return map[string]any{
		"theme":         "dark",
		"language":      "zh-CN",
		"streamEnabled": true,
		"typingEffect":  true,
	}
}

func (h *Handler) GetSettings(c *gin.Context) {
	merged := defaultSettings()
	if h.Redis != nil {
		var stored map[string]any
		err := h.Redis.Get(c.Request.Context(), redisstore.KeySettings, &stored)
		switch {
		case err == nil:
			for k, v := range stored {
				merged[k] = v
			}
		case errors.Is(err, redisstore.ErrNotFound):
			// defaults stand
		default:
			common.Fail(c, http.StatusServiceUnavailable, "storage_unavailable", "存储服务暂不可用")
			return
		}
	}
	common.OK(c, merged)
}

func (h *Handler) PutSettings(c *gin.Context) {
	if h.Redis == nil {
		common.Fail(c, http.StatusServiceUnavailable, "storage_unavailable", "存储服务暂不可用")
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid_json", "请求体格式有误")
		return
	}

	merged := defaultSettings()
	for k, v := range body {
		merged[k] = v
	}
	if err := h.Redis.Set(c.Request.Context(), redisstore.KeySettings, merged, 0); err != nil {
		if errors.Is(err, redisstore.ErrQuotaExceeded) {
			common.Fail(c, http.StatusInsufficientStorage, "quota_exceeded", "存储空间不足")
			return
		}
		common.Fail(c, http.StatusServiceUnavailable, "storage_unavailable", "存储服务暂不可用")
		return
	}
	common.OK(c, merged)
}

// GetPersona returns the selected persona, or the default when none is
// stored.
func (h *Handler) GetPersona(c *gin.Context) {
	common.OK(c, h.selectedPersona(c))
}

func (h *Handler) PutPersona(c *gin.Context) {
	if h.Redis == nil {
		common.Fail(c, http.StatusServiceUnavailable, "storage_unavailable", "存储服务暂不可用")
		return
	}

	var p prompt.Persona
	if err := c.ShouldBindJSON(&p); err != nil || p.Name == "" || p.System == "" {
		common.Fail(c, http.StatusBadRequest, "invalid_persona", "人设需要 name 与 system 字段")
		return
	}
	if err := h.Redis.Set(c.Request.Context(), redisstore.KeySelectedPersona, p, 0); err != nil {
		common.Fail(c, http.StatusServiceUnavailable, "storage_unavailable", "存储服务暂不可用")
		return
	}
	common.OK(c, p)
}

func (h *Handler) selectedPersona(c *gin.Context) prompt.Persona {
	if h.Redis == nil {
		return prompt.DefaultPersona
	}
	var p prompt.Persona
	if err := h.Redis.Get(c.Request.Context(), redisstore.KeySelectedPersona, &p); err != nil {
		return prompt.DefaultPersona
	}
	return p
}
