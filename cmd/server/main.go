package main

import (
	"context"
	"log"
	"strings"

	"github.com/yuanqi-lab/fortune-platform/internal/ai"
	"github.com/yuanqi-lab/fortune-platform/internal/config"
	"github.com/yuanqi-lab/fortune-platform/internal/db"
	"github.com/yuanqi-lab/fortune-platform/internal/divination"
	"github.com/yuanqi-lab/fortune-platform/internal/httpapi"
	"github.com/yuanqi-lab/fortune-platform/internal/httpapi/handlers"
	"github.com/yuanqi-lab/fortune-platform/internal/store/rabbitmq"
	"github.com/yuanqi-lab/fortune-platform/internal/store/redisstore"
)

func buildRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("gemini", func(ctx context.Context, model string) (ai.Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.GeminiModel
		}
		return ai.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, m, cfg.MaxOutputTokens, cfg.RequestTimeout), nil
	})
	reg.Register("openai", func(ctx context.Context, model string) (ai.Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenAIModel
		}
		return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, m, cfg.RequestTimeout), nil
	})
	return reg
}

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	repo, err := divination.NewRepo(gdb)
	if err != nil {
		log.Fatalf("repo: %v", err)
	}

	reg := buildRegistry(cfg)
	provider, err := reg.Get(context.Background(), cfg.AIProvider, "")
	if err != nil {
		log.Fatalf("provider: %v", err)
	}

	svc := divination.NewService(repo, provider, divination.DefaultStrategies(provider, 0, 0))

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()

	var pub handlers.JobPublisher
	if p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		// Jobs fall back to in-process execution.
		log.Printf("rabbit unavailable, running jobs inline: %v", err)
	} else {
		pub = p
		defer p.Close()
	}

	h := handlers.NewHandler(cfg, provider, svc, repo, rds, pub)
	r := httpapi.NewRouter(h)

	log.Printf("server listening on %s provider=%s", cfg.ServerAddr, cfg.AIProvider)
	if err := r.Run(cfg.ServerAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
