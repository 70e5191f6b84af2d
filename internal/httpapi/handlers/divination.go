package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yuanqi-lab/fortune-platform/internal/bazi"
	"github.com/yuanqi-lab/fortune-platform/internal/common"
	"github.com/yuanqi-lab/fortune-platform/internal/divination"
	"github.com/yuanqi-lab/fortune-platform/internal/prompt"
)

func (h *Handler) bindDivination(c *gin.Context) (divination.Request, bool) {
	var req divination.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid_json", "请求体格式有误")
		return req, false
	}
	game, err := prompt.ParseGameType(c.Param("type"))
	if err != nil || game == prompt.GameNone {
		common.Fail(c, http.StatusBadRequest, "unsupported_type", "不支持的占卜类型")
		return req, false
	}
	req.Type = game
	if req.Persona == nil {
		p := h.selectedPersona(c)
		req.Persona = &p
	}
	return req, true
}

// Divine computes the chart, obtains the analysis and records the result.
func (h *Handler) Divine(c *gin.Context) {
	req, ok := h.bindDivination(c)
	if !ok {
		return
	}

	out, err := h.Svc.Divine(c.Request.Context(), req, nil)
	if err != nil {
		failFor(c, err)
		return
	}
	common.OK(c, gin.H{
		"record":   out.Record,
		"artifact": out.Artifact,
	})
}

// DivineStream is the SSE variant: analysis deltas stream as they arrive,
// the record is persisted when the chain completes.
func (h *Handler) DivineStream(c *gin.Context) {
	req, ok := h.bindDivination(c)
	if !ok {
		return
	}

	chunks := make(chan string, 16)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)
		_, err := h.Svc.Divine(c.Request.Context(), req, func(delta string) {
			select {
			case chunks <- delta:
			case <-c.Request.Context().Done():
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	sseStream(c, chunks, errs)
}

// Chart returns the computed artifact without consulting the model, for
// clients that render the chart before the analysis arrives. Birth data
// comes in as query parameters since this is a GET.
func (h *Handler) Chart(c *gin.Context) {
	game, err := prompt.ParseGameType(c.Param("type"))
	if err != nil || game == prompt.GameNone {
		common.Fail(c, http.StatusBadRequest, "unsupported_type", "不支持的占卜类型")
		return
	}
	req := divination.Request{
		Type: game,
		Birth: bazi.Input{
			Date:   c.Query("date"),
			Time:   c.Query("time"),
			Gender: c.Query("gender"),
			Name:   c.Query("name"),
		},
	}

	artifact, err := h.Svc.ComputeArtifact(req)
	if err != nil {
		failFor(c, err)
		return
	}
	common.OK(c, gin.H{"artifact": artifact})
}
