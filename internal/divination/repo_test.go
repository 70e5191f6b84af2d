package divination

import (
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	repo, err := NewRepo(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func TestRecordCRUD(t *testing.T) {
	repo := newTestRepo(t)

	rec := &Record{Type: "hexagram", Question: "问事", Analysis: "断语"}
	if err := repo.InsertRecord(rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("insert did not assign an id")
	}

	got, err := repo.GetRecord(rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Analysis != "断语" || got.Type != "hexagram" {
		t.Fatalf("got %+v", got)
	}

	if err := repo.DeleteRecord(rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetRecord(rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: %v, want ErrNotFound", err)
	}
	if err := repo.DeleteRecord(rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: %v, want ErrNotFound", err)
	}
}

func TestRecordHistoryCap(t *testing.T) {
	repo := newTestRepo(t)

	for i := 0; i < historyCap+10; i++ {
		rec := &Record{Type: "bazi", Question: fmt.Sprintf("q%d", i), Analysis: "a"}
		if err := repo.InsertRecord(rec); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	n, err := repo.CountRecords("bazi")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != historyCap {
		t.Fatalf("count = %d, want %d", n, historyCap)
	}

	// Eviction removes the oldest entries, so the newest question survives
	// and the first ten are gone.
	recs, err := repo.ListRecords("bazi", historyCap)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if recs[0].Question != fmt.Sprintf("q%d", historyCap+9) {
		t.Fatalf("newest = %q", recs[0].Question)
	}
	for _, rec := range recs {
		for i := 0; i < 10; i++ {
			if rec.Question == fmt.Sprintf("q%d", i) {
				t.Fatalf("evicted record %q still present", rec.Question)
			}
		}
	}
}

func TestRecordCapIsPerType(t *testing.T) {
	repo := newTestRepo(t)

	for i := 0; i < historyCap; i++ {
		if err := repo.InsertRecord(&Record{Type: "hexagram", Analysis: "a"}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := repo.InsertRecord(&Record{Type: "qimen", Analysis: "b"}); err != nil {
		t.Fatalf("insert other type: %v", err)
	}

	nHex, _ := repo.CountRecords("hexagram")
	nQimen, _ := repo.CountRecords("qimen")
	if nHex != historyCap || nQimen != 1 {
		t.Fatalf("counts = %d/%d", nHex, nQimen)
	}
}

func TestListAndClearByType(t *testing.T) {
	repo := newTestRepo(t)

	for i := 0; i < 3; i++ {
		if err := repo.InsertRecord(&Record{Type: "hexagram", Analysis: "a"}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := repo.InsertRecord(&Record{Type: "bazi", Analysis: "b"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	recs, err := repo.ListRecords("hexagram", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}

	removed, err := repo.ClearRecords("hexagram")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}
	if n, _ := repo.CountRecords(""); n != 1 {
		t.Fatalf("remaining = %d, want 1", n)
	}
}

func TestJobIdempotency(t *testing.T) {
	repo := newTestRepo(t)

	key := "client-abc-1"
	first, created, err := repo.CreateJob(&Job{Type: "bazi", Payload: "{}", IdempotencyKey: &key})
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}

	second, created, err := repo.CreateJob(&Job{Type: "bazi", Payload: "{}", IdempotencyKey: &key})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created {
		t.Fatal("second create reported a new job")
	}
	if second.ID != first.ID {
		t.Fatalf("second id %s != first id %s", second.ID, first.ID)
	}
}

func TestJobClaimRunsOnce(t *testing.T) {
	repo := newTestRepo(t)

	job, _, err := repo.CreateJob(&Job{Type: "qimen", Payload: "{}"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	claimed, err := repo.ClaimJob(job.ID)
	if err != nil || !claimed {
		t.Fatalf("first claim: claimed=%v err=%v", claimed, err)
	}
	claimed, err = repo.ClaimJob(job.ID)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Fatal("job claimed twice")
	}
}

func TestJobStatusTransitions(t *testing.T) {
	repo := newTestRepo(t)

	job, _, err := repo.CreateJob(&Job{Type: "bazi", Payload: "{}"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.Status != JobQueued {
		t.Fatalf("status = %q, want queued", job.Status)
	}

	if _, err := repo.ClaimJob(job.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := repo.MarkJobSucceeded(job.ID, "rec-1"); err != nil {
		t.Fatalf("succeed: %v", err)
	}
	got, err := repo.GetJob(job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != JobSucceeded || got.ResultRecordID == nil || *got.ResultRecordID != "rec-1" {
		t.Fatalf("got %+v", got)
	}

	failing, _, _ := repo.CreateJob(&Job{Type: "bazi", Payload: "{}"})
	if err := repo.MarkJobFailed(failing.ID, errors.New("boom")); err != nil {
		t.Fatalf("fail: %v", err)
	}
	got, _ = repo.GetJob(failing.ID)
	if got.Status != JobFailed || got.Error == nil || *got.Error != "boom" {
		t.Fatalf("got %+v", got)
	}
}
