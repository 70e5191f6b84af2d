package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yuanqi-lab/fortune-platform/internal/ai"
	"github.com/yuanqi-lab/fortune-platform/internal/bazi"
	"github.com/yuanqi-lab/fortune-platform/internal/common"
	"github.com/yuanqi-lab/fortune-platform/internal/divination"
	"github.com/yuanqi-lab/fortune-platform/internal/prompt"
)

// userMessageFor picks the user-facing message for an error already in
// flight on an SSE stream, where no status code can be sent anymore.
func userMessageFor(err error) string {
	switch {
	case errors.Is(err, ai.ErrConfiguration):
		return "AI 服务未配置"
	case errors.Is(err, ai.ErrTimeout):
		return "请求超时，请稍后再试"
	case errors.Is(err, ai.ErrTransport):
		return err.Error()
	default:
		return "服务内部错误"
	}
}

// failFor maps domain sentinels onto the error envelope. Unknown errors
// become an opaque 500; their details go to the log, not the client.
func failFor(c *gin.Context, err error) {
	switch {
	case errors.Is(err, prompt.ErrUnsupportedGameType):
		common.Fail(c, http.StatusBadRequest, "unsupported_type", "不支持的占卜类型")
	case errors.Is(err, bazi.ErrInvalidInput):
		common.Fail(c, http.StatusBadRequest, "invalid_birth", "出生日期或时间格式有误")
	case errors.Is(err, divination.ErrNotFound):
		common.Fail(c, http.StatusNotFound, "not_found", "记录不存在")
	case errors.Is(err, ai.ErrConfiguration):
		common.Fail(c, http.StatusInternalServerError, "not_configured", "AI 服务未配置")
	case errors.Is(err, ai.ErrTimeout):
		common.Fail(c, http.StatusGatewayTimeout, "timeout", "请求超时，请稍后再试")
	case errors.Is(err, ai.ErrTransport):
		common.Fail(c, http.StatusBadGateway, "upstream_error", err.Error())
	default:
		common.Fail(c, http.StatusInternalServerError, "internal_error", "服务内部错误")
	}
}
