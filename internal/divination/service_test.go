package divination

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/yuanqi-lab/fortune-platform/internal/ai"
	"github.com/yuanqi-lab/fortune-platform/internal/bazi"
	"github.com/yuanqi-lab/fortune-platform/internal/prompt"
)

func newTestService(t *testing.T, p ai.Provider) *Service {
	t.Helper()
	repo := newTestRepo(t)
	svc := NewService(repo, p, DefaultStrategies(p, time.Millisecond, 2))
	svc.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	svc.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(42)) }
	return svc
}

func TestDivineHexagram(t *testing.T) {
	p := &fakeProvider{streamText: []string{"卦象", "解读"}}
	svc := newTestService(t, p)

	var deltas []string
	out, err := svc.Divine(context.Background(), Request{
		Type:     prompt.GameHexagram,
		Question: "近期事业如何",
	}, func(d string) { deltas = append(deltas, d) })
	if err != nil {
		t.Fatalf("divine: %v", err)
	}

	if out.Record.Analysis != "卦象解读" {
		t.Fatalf("analysis = %q", out.Record.Analysis)
	}
	if strings.Join(deltas, "") != "卦象解读" {
		t.Fatalf("deltas = %q", deltas)
	}
	if out.Record.Strategy != "stream" {
		t.Fatalf("strategy = %q", out.Record.Strategy)
	}
	if out.Record.PersonaName != prompt.DefaultPersona.Name {
		t.Fatalf("persona = %q", out.Record.PersonaName)
	}

	// The record is persisted with the serialized cast.
	got, err := svc.repo.GetRecord(out.Record.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if !strings.Contains(got.Input, "\"name\"") {
		t.Fatalf("input blob missing hexagram name: %q", got.Input)
	}
}

func TestDivineBaziValidation(t *testing.T) {
	svc := newTestService(t, &fakeProvider{chatText: "x"})

	_, err := svc.Divine(context.Background(), Request{
		Type:  prompt.GameBazi,
		Birth: bazi.Input{Date: "not-a-date"},
	}, nil)
	if !errors.Is(err, bazi.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestDivineUnknownType(t *testing.T) {
	svc := newTestService(t, &fakeProvider{chatText: "x"})

	_, err := svc.Divine(context.Background(), Request{Type: "tarot"}, nil)
	if !errors.Is(err, prompt.ErrUnsupportedGameType) {
		t.Fatalf("err = %v, want ErrUnsupportedGameType", err)
	}
}

func TestDivineLifeCurveSimulatesWithoutAnchors(t *testing.T) {
	p := &fakeProvider{streamText: []string{"曲线解读"}}
	svc := newTestService(t, p)

	out, err := svc.Divine(context.Background(), Request{
		Type:  prompt.GameLifeCurve,
		Birth: bazi.Input{Date: "2000-01-01", Time: "12:00", Gender: "男"},
	}, nil)
	if err != nil {
		t.Fatalf("divine: %v", err)
	}

	artifact, ok := out.Artifact.(map[string]any)
	if !ok {
		t.Fatalf("artifact type %T", out.Artifact)
	}
	if artifact["chart"] == nil || artifact["points"] == nil {
		t.Fatalf("artifact missing parts: %v", artifact)
	}
}

func TestDivineAllDeliveryFails(t *testing.T) {
	p := &fakeProvider{streamErr: ai.ErrTransport, chatErr: ai.ErrTransport}
	svc := newTestService(t, p)

	_, err := svc.Divine(context.Background(), Request{Type: prompt.GameQimen}, nil)
	if !errors.Is(err, ai.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	// Nothing is recorded on failure.
	if n, _ := svc.repo.CountRecords(""); n != 0 {
		t.Fatalf("records = %d, want 0", n)
	}
}

func TestJobLifecycle(t *testing.T) {
	p := &fakeProvider{chatText: "异步断语"}
	svc := newTestService(t, p)

	job, created, err := svc.EnqueueJob(Request{Type: prompt.GameQimen, Question: "出行"}, "key-1")
	if err != nil || !created {
		t.Fatalf("enqueue: created=%v err=%v", created, err)
	}

	if err := svc.RunJob(context.Background(), job.ID); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := svc.repo.GetJob(job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != JobSucceeded || got.ResultRecordID == nil {
		t.Fatalf("job = %+v", got)
	}

	rec, err := svc.repo.GetRecord(*got.ResultRecordID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.Analysis != "异步断语" || rec.Question != "出行" {
		t.Fatalf("record = %+v", rec)
	}

	// Re-running a claimed job is a no-op.
	if err := svc.RunJob(context.Background(), job.ID); err != nil {
		t.Fatalf("rerun: %v", err)
	}
}

func TestJobFailureRecorded(t *testing.T) {
	p := &fakeProvider{streamErr: ai.ErrTransport, chatErr: ai.ErrTimeout}
	svc := newTestService(t, p)

	job, _, err := svc.EnqueueJob(Request{Type: prompt.GameHexagram}, "")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := svc.RunJob(context.Background(), job.ID); err == nil {
		t.Fatal("expected run error")
	}

	got, _ := svc.repo.GetJob(job.ID)
	if got.Status != JobFailed || got.Error == nil {
		t.Fatalf("job = %+v", got)
	}
}

func TestJobPayloadRoundTrip(t *testing.T) {
	svc := newTestService(t, &fakeProvider{chatText: "x"})

	req := Request{
		Type:     prompt.GameBazi,
		Question: "婚姻",
		Birth:    bazi.Input{Date: "1990-05-20", Time: "08:30", Gender: "女", Name: "测试"},
	}
	job, _, err := svc.EnqueueJob(req, "")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	var decoded Request
	if err := json.Unmarshal([]byte(job.Payload), &decoded); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if decoded.Birth != req.Birth || decoded.Question != req.Question {
		t.Fatalf("decoded = %+v", decoded)
	}
}
