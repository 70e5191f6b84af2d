package handlers

import (
	"context"

	"github.com/yuanqi-lab/fortune-platform/internal/ai"
	"github.com/yuanqi-lab/fortune-platform/internal/config"
	"github.com/yuanqi-lab/fortune-platform/internal/divination"
	"github.com/yuanqi-lab/fortune-platform/internal/store/redisstore"
)

// JobPublisher pushes a queued job id to the worker. *rabbitmq.Publisher
// satisfies it; tests use a fake.
type JobPublisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Handler struct {
	Cfg       config.Config
	Provider  ai.Provider
	Svc       *divination.Service
	Repo      *divination.Repo
	Redis     *redisstore.Store
	Publisher JobPublisher
}

func NewHandler(cfg config.Config, provider ai.Provider, svc *divination.Service, repo *divination.Repo, rds *redisstore.Store, pub JobPublisher) *Handler {
	return &Handler{
		Cfg:       cfg,
		Provider:  provider,
		Svc:       svc,
		Repo:      repo,
		Redis:     rds,
		Publisher: pub,
	}
}
