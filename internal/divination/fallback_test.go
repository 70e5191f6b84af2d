package divination

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yuanqi-lab/fortune-platform/internal/ai"
)

type fakeProvider struct {
	chatText   string
	chatErr    error
	streamText []string
	streamErr  error
}

func (f *fakeProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.chatText, nil
}

func (f *fakeProvider) StreamChat(ctx context.Context, messages []ai.Message) (<-chan string, <-chan error) {
	chunks := make(chan string, len(f.streamText)+1)
	errs := make(chan error, 1)
	for _, c := range f.streamText {
		chunks <- c
	}
	close(chunks)
	if f.streamErr != nil {
		errs <- f.streamErr
	}
	close(errs)
	return chunks, errs
}

func TestChainPrefersStreaming(t *testing.T) {
	p := &fakeProvider{streamText: []string{"你", "好"}, chatText: "unused"}
	strategies := DefaultStrategies(p, time.Millisecond, 2)

	var deltas []string
	text, name, err := RunChain(context.Background(), strategies, nil, func(d string) {
		deltas = append(deltas, d)
	})
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if name != "stream" {
		t.Fatalf("strategy = %q, want stream", name)
	}
	if text != "你好" || strings.Join(deltas, "") != "你好" {
		t.Fatalf("text = %q, deltas = %q", text, deltas)
	}
}

func TestChainFallsBackToStandard(t *testing.T) {
	p := &fakeProvider{streamErr: ai.ErrTransport, chatText: "整段回答"}
	strategies := DefaultStrategies(p, time.Millisecond, 2)

	var deltas []string
	text, name, err := RunChain(context.Background(), strategies, nil, func(d string) {
		deltas = append(deltas, d)
	})
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if name != "standard" {
		t.Fatalf("strategy = %q, want standard", name)
	}
	if text != "整段回答" || len(deltas) != 1 || deltas[0] != "整段回答" {
		t.Fatalf("text = %q, deltas = %q", text, deltas)
	}
}

func TestChainStopsAfterPartialEmission(t *testing.T) {
	// The stream delivers a chunk before failing. Falling back would
	// duplicate that chunk, so the chain must surface the error instead.
	p := &fakeProvider{
		streamText: []string{"部分"},
		streamErr:  ai.ErrTransport,
		chatText:   "must-not-appear",
	}
	strategies := DefaultStrategies(p, time.Millisecond, 2)

	var deltas []string
	_, _, err := RunChain(context.Background(), strategies, nil, func(d string) {
		deltas = append(deltas, d)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Join(deltas, "") != "部分" {
		t.Fatalf("deltas = %q", deltas)
	}
}

func TestChainAllStrategiesFail(t *testing.T) {
	p := &fakeProvider{streamErr: ai.ErrTransport, chatErr: ai.ErrTimeout}
	strategies := DefaultStrategies(p, time.Millisecond, 2)

	_, _, err := RunChain(context.Background(), strategies, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ai.ErrTransport) || !errors.Is(err, ai.ErrTimeout) {
		t.Fatalf("joined error missing causes: %v", err)
	}
}

func TestChainAbortsOnCancellation(t *testing.T) {
	p := &fakeProvider{streamErr: context.Canceled, chatText: "must-not-run"}
	strategies := DefaultStrategies(p, time.Millisecond, 2)

	_, _, err := RunChain(context.Background(), strategies, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestTypedStandardSlicesRunes(t *testing.T) {
	p := &fakeProvider{chatText: "一二三四五"}
	strategies := DefaultStrategies(p, time.Millisecond, 2)

	var typed Strategy
	for _, s := range strategies {
		if s.Name == "typed-standard" {
			typed = s
		}
	}
	if typed.Run == nil {
		t.Fatal("typed-standard strategy missing")
	}

	var deltas []string
	text, err := typed.Run(context.Background(), nil, func(d string) {
		deltas = append(deltas, d)
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if text != "一二三四五" {
		t.Fatalf("text = %q", text)
	}
	want := []string{"一二", "三四", "五"}
	if len(deltas) != len(want) {
		t.Fatalf("deltas = %q, want %q", deltas, want)
	}
	for i := range want {
		if deltas[i] != want[i] {
			t.Fatalf("delta[%d] = %q, want %q", i, deltas[i], want[i])
		}
	}
}

func TestChainWithoutStreamingProvider(t *testing.T) {
	// A provider without StreamChat still yields a working chain.
	p := chatOnlyProvider{&fakeProvider{chatText: "回答"}}
	strategies := DefaultStrategies(p, time.Millisecond, 2)
	if strategies[0].Name != "standard" {
		t.Fatalf("first strategy = %q, want standard", strategies[0].Name)
	}

	text, name, err := RunChain(context.Background(), strategies, nil, nil)
	if err != nil || text != "回答" || name != "standard" {
		t.Fatalf("text=%q name=%q err=%v", text, name, err)
	}
}

// chatOnlyProvider hides the StreamChat method.
type chatOnlyProvider struct{ inner ai.Provider }

func (c chatOnlyProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	return c.inner.Chat(ctx, messages)
}
