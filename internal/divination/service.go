package divination

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	"github.com/yuanqi-lab/fortune-platform/internal/ai"
	"github.com/yuanqi-lab/fortune-platform/internal/bazi"
	"github.com/yuanqi-lab/fortune-platform/internal/hexagram"
	"github.com/yuanqi-lab/fortune-platform/internal/lifecurve"
	"github.com/yuanqi-lab/fortune-platform/internal/prompt"
	"github.com/yuanqi-lab/fortune-platform/internal/qimen"
)

// Request is one divination ask: which game, the question, and the birth
// data the game may need.
type Request struct {
	Type     prompt.GameType `json:"type"`
	Question string          `json:"question"`

	Birth bazi.Input `json:"birth"` // bazi and lifecurve

	// SparsePoints are model- or caller-supplied life-curve anchors.
	// Empty means the curve is simulated.
	SparsePoints []lifecurve.SparsePoint `json:"sparse_points,omitempty"`

	Persona     *prompt.Persona `json:"persona,omitempty"`
	UserContext any             `json:"user_context,omitempty"`
}

// Outcome is the result of a completed divination.
type Outcome struct {
	Record   *Record `json:"record"`
	Artifact any     `json:"artifact"`
}

// Service computes the divination artifact, asks the model for an
// analysis through the delivery chain, and persists the record.
type Service struct {
	repo       *Repo
	provider   ai.Provider
	strategies []Strategy

	// Now and NewRand are injectable for deterministic tests.
	Now     func() time.Time
	NewRand func() *rand.Rand
}

func NewService(repo *Repo, provider ai.Provider, strategies []Strategy) *Service {
	return &Service{
		repo:       repo,
		provider:   provider,
		strategies: strategies,
		Now:        time.Now,
		NewRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// ComputeArtifact derives the structured chart for a request without
// involving the model. Handlers also use it for chart-only endpoints.
func (s *Service) ComputeArtifact(req Request) (any, error) {
	switch req.Type {
	case prompt.GameHexagram:
		return hexagram.Cast(s.NewRand()), nil

	case prompt.GameQimen:
		return qimen.BuildChart(s.Now()), nil

	case prompt.GameBazi:
		return bazi.BuildChart(req.Birth)

	case prompt.GameLifeCurve:
		chart, err := bazi.BuildChart(req.Birth)
		if err != nil {
			return nil, err
		}
		birthYear, err := strconv.Atoi(req.Birth.Date[:4])
		if err != nil {
			return nil, fmt.Errorf("%w: birth date %q", bazi.ErrInvalidInput, req.Birth.Date)
		}
		opts := lifecurve.Options{Source: s.NewRand()}
		var points []lifecurve.Point
		if len(req.SparsePoints) > 0 {
			points = lifecurve.Interpolate(req.SparsePoints, birthYear, opts)
		} else {
			points = lifecurve.Simulate(birthYear, opts)
		}
		return map[string]any{
			"chart":  chart,
			"points": points,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", prompt.ErrUnsupportedGameType, req.Type)
	}
}

// Divine runs the full pipeline: artifact, prompt, delivery chain,
// record. onDelta may be nil for non-streaming callers.
func (s *Service) Divine(ctx context.Context, req Request, onDelta func(string)) (*Outcome, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", prompt.ErrUnsupportedGameType, req.Type)
	}

	artifact, err := s.ComputeArtifact(req)
	if err != nil {
		return nil, err
	}

	persona := prompt.DefaultPersona
	if req.Persona != nil {
		persona = *req.Persona
	}

	userCtx := req.UserContext
	if userCtx == nil && req.Question != "" {
		userCtx = req.Question
	}
	text, err := prompt.Build(persona, artifact, req.Type, userCtx)
	if err != nil {
		return nil, err
	}

	messages := []ai.Message{
		{Role: "system", Content: persona.System},
		{Role: "user", Content: text},
	}

	analysis, strategy, err := RunChain(ctx, s.strategies, messages, onDelta)
	if err != nil {
		return nil, err
	}

	inputBlob, err := json.Marshal(artifact)
	if err != nil {
		return nil, fmt.Errorf("divination: serialize artifact: %w", err)
	}

	rec := &Record{
		Type:        string(req.Type),
		Question:    req.Question,
		Input:       string(inputBlob),
		PersonaID:   persona.ID,
		PersonaName: persona.Name,
		Analysis:    analysis,
		Strategy:    strategy,
		CreatedAt:   s.Now(),
	}
	if err := s.repo.InsertRecord(rec); err != nil {
		// The analysis was already delivered; losing history must not
		// turn a successful reading into an error.
		log.Printf("divination: persist record: %v", err)
	}

	return &Outcome{Record: rec, Artifact: artifact}, nil
}

// EnqueueJob stores an async job for the worker. The serialized request
// travels in the job payload.
func (s *Service) EnqueueJob(req Request, idempotencyKey string) (*Job, bool, error) {
	if !req.Type.Valid() {
		return nil, false, fmt.Errorf("%w: %q", prompt.ErrUnsupportedGameType, req.Type)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, false, fmt.Errorf("divination: serialize job payload: %w", err)
	}
	job := &Job{Type: string(req.Type), Payload: string(payload)}
	if idempotencyKey != "" {
		job.IdempotencyKey = &idempotencyKey
	}
	return s.repo.CreateJob(job)
}

// RunJob executes one queued job end to end. Claiming is atomic, so a job
// delivered twice runs once.
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	claimed, err := s.repo.ClaimJob(jobID)
	if err != nil {
		return err
	}
	if !claimed {
		log.Printf("divination: job %s already claimed, skipping", jobID)
		return nil
	}

	job, err := s.repo.GetJob(jobID)
	if err != nil {
		return err
	}

	var req Request
	if err := json.Unmarshal([]byte(job.Payload), &req); err != nil {
		failErr := fmt.Errorf("divination: malformed job payload: %w", err)
		if markErr := s.repo.MarkJobFailed(jobID, failErr); markErr != nil {
			return markErr
		}
		return failErr
	}

	outcome, err := s.Divine(ctx, req, nil)
	if err != nil {
		if markErr := s.repo.MarkJobFailed(jobID, err); markErr != nil {
			return markErr
		}
		return err
	}
	return s.repo.MarkJobSucceeded(jobID, outcome.Record.ID)
}
