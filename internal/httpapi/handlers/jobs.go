package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yuanqi-lab/fortune-platform/internal/common"
	"github.com/yuanqi-lab/fortune-platform/internal/divination"
)

// CreateJob enqueues an async divination. With a broker attached the job id
// is published for the worker; without one it runs in-process, which keeps
// single-binary deployments working.
func (h *Handler) CreateJob(c *gin.Context) {
	var req divination.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid_json", "请求体格式有误")
		return
	}

	job, created, err := h.Svc.EnqueueJob(req, c.GetHeader("Idempotency-Key"))
	if err != nil {
		failFor(c, err)
		return
	}
	if !created {
		common.OK(c, job)
		return
	}

	if h.Publisher != nil {
		if err := h.Publisher.PublishJob(c.Request.Context(), job.ID); err != nil {
			log.Printf("jobs: publish %s: %v", job.ID, err)
			common.Fail(c, http.StatusServiceUnavailable, "queue_unavailable", "任务队列暂不可用")
			return
		}
	} else {
		go func(jobID string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := h.Svc.RunJob(ctx, jobID); err != nil {
				log.Printf("jobs: inline run %s: %v", jobID, err)
			}
		}(job.ID)
	}

	c.JSON(http.StatusAccepted, job)
}

func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.Repo.GetJob(c.Param("id"))
	if err != nil {
		failFor(c, err)
		return
	}
	common.OK(c, job)
}
