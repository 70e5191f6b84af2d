package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yuanqi-lab/fortune-platform/internal/ai"
	"github.com/yuanqi-lab/fortune-platform/internal/common"
)

type generateRequest struct {
	Prompt   string       `json:"prompt"`
	Messages []ai.Message `json:"messages"`
}

func (r generateRequest) toMessages() ([]ai.Message, error) {
	if len(r.Messages) > 0 {
		return r.Messages, nil
	}
	if r.Prompt != "" {
		return []ai.Message{{Role: "user", Content: r.Prompt}}, nil
	}
	return nil, fmt.Errorf("empty request")
}

// Generate is the blocking relay endpoint.
func (h *Handler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid_json", "请求体格式有误")
		return
	}
	messages, err := req.toMessages()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "empty_prompt", "缺少 prompt 或 messages")
		return
	}

	text, err := h.Provider.Chat(c.Request.Context(), messages)
	if err != nil {
		failFor(c, err)
		return
	}
	common.OK(c, gin.H{
		"text":      text,
		"timestamp": time.Now().UnixMilli(),
	})
}

type streamFrame struct {
	Content     string `json:"content"`
	Done        bool   `json:"done"`
	Timestamp   int64  `json:"timestamp"`
	TotalLength int    `json:"totalLength,omitempty"`
	TotalTime   int64  `json:"totalTime,omitempty"`
}

// sseStream relays deltas from a channel pair as SSE frames and ends with
// the terminal frame carrying stream totals. It returns the accumulated
// rune count.
func sseStream(c *gin.Context, chunks <-chan string, errs <-chan error) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		common.Fail(c, http.StatusInternalServerError, "no_flusher", "streaming unsupported")
		return
	}

	writeFrame := func(f streamFrame) {
		b, err := json.Marshal(f)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	start := time.Now()
	total := 0
	for chunk := range chunks {
		total += len([]rune(chunk))
		writeFrame(streamFrame{
			Content:   chunk,
			Timestamp: time.Now().UnixMilli(),
		})
	}
	if err := <-errs; err != nil {
		writeFrame(streamFrame{
			Content:   "",
			Done:      true,
			Timestamp: time.Now().UnixMilli(),
		})
		fmt.Fprintf(c.Writer, "event: error\ndata: %q\n\n", userMessageFor(err))
		flusher.Flush()
		return
	}
	writeFrame(streamFrame{
		Content:     "",
		Done:        true,
		Timestamp:   time.Now().UnixMilli(),
		TotalLength: total,
		TotalTime:   time.Since(start).Milliseconds(),
	})
}

// GenerateStream is the SSE relay endpoint.
func (h *Handler) GenerateStream(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid_json", "请求体格式有误")
		return
	}
	messages, err := req.toMessages()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "empty_prompt", "缺少 prompt 或 messages")
		return
	}

	sp, ok := h.Provider.(ai.StreamProvider)
	if !ok {
		common.Fail(c, http.StatusNotImplemented, "no_stream", "当前模型不支持流式输出")
		return
	}

	chunks, errs := sp.StreamChat(c.Request.Context(), messages)
	sseStream(c, chunks, errs)
}
