package divination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yuanqi-lab/fortune-platform/internal/ai"
)

// Strategy is one way of obtaining the full analysis text. Run must call
// onDelta zero or more times with append-only fragments and return the
// complete text. Strategies are tried strictly in order; a later strategy
// only runs after the previous one failed.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, messages []ai.Message, onDelta func(string)) (string, error)
}

// DefaultStrategies builds the delivery chain for a provider:
//
//  1. stream          — live token streaming
//  2. standard        — one blocking request, delivered whole
//  3. typed-standard  — one blocking request, re-emitted in small slices
//     with a short delay so the client still sees progressive output
//
// Every fragment in every strategy originates from the model; the chain
// degrades delivery, never content.
func DefaultStrategies(p ai.Provider, typingDelay time.Duration, sliceRunes int) []Strategy {
	if typingDelay <= 0 {
		typingDelay = 30 * time.Millisecond
	}
	if sliceRunes <= 0 {
		sliceRunes = 3
	}

	strategies := []Strategy{}

	if sp, ok := p.(ai.StreamProvider); ok {
		strategies = append(strategies, Strategy{
			Name: "stream",
			Run: func(ctx context.Context, messages []ai.Message, onDelta func(string)) (string, error) {
				chunks, errs := sp.StreamChat(ctx, messages)
				var acc []byte
				for c := range chunks {
					acc = append(acc, c...)
					if onDelta != nil {
						onDelta(c)
					}
				}
				if err := <-errs; err != nil {
					return "", err
				}
				if len(acc) == 0 {
					return "", fmt.Errorf("%w: stream produced no content", ai.ErrTransport)
				}
				return string(acc), nil
			},
		})
	}

	strategies = append(strategies, Strategy{
		Name: "standard",
		Run: func(ctx context.Context, messages []ai.Message, onDelta func(string)) (string, error) {
			text, err := p.Chat(ctx, messages)
			if err != nil {
				return "", err
			}
			if onDelta != nil {
				onDelta(text)
			}
			return text, nil
		},
	})

	strategies = append(strategies, Strategy{
		Name: "typed-standard",
		Run: func(ctx context.Context, messages []ai.Message, onDelta func(string)) (string, error) {
			text, err := p.Chat(ctx, messages)
			if err != nil {
				return "", err
			}
			if onDelta == nil {
				return text, nil
			}
			runes := []rune(text)
			for i := 0; i < len(runes); i += sliceRunes {
				end := i + sliceRunes
				if end > len(runes) {
					end = len(runes)
				}
				onDelta(string(runes[i:end]))
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(typingDelay):
				}
			}
			return text, nil
		},
	})

	return strategies
}

// RunChain tries strategies in order and returns the text plus the name of
// the strategy that produced it. Context cancellation aborts the chain
// instead of falling through, and a strategy that fails after it has
// already emitted deltas ends the chain too: re-running would duplicate
// text the client has already seen.
func RunChain(ctx context.Context, strategies []Strategy, messages []ai.Message, onDelta func(string)) (string, string, error) {
	if len(strategies) == 0 {
		return "", "", errors.New("divination: no delivery strategies configured")
	}

	var failures []error
	for _, s := range strategies {
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		emitted := false
		wrapped := onDelta
		if onDelta != nil {
			wrapped = func(delta string) {
				emitted = true
				onDelta(delta)
			}
		}
		text, err := s.Run(ctx, messages, wrapped)
		if err == nil {
			return text, s.Name, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", "", err
		}
		failures = append(failures, fmt.Errorf("%s: %w", s.Name, err))
		if emitted {
			break
		}
	}
	return "", "", fmt.Errorf("divination: all delivery strategies failed: %w", errors.Join(failures...))
}
