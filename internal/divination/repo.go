package divination

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yuanqi-lab/fortune-platform/internal/common"
)

// historyCap bounds how many records are kept per divination type. Insertion
// and eviction run in one transaction so the cap holds under concurrency.
const historyCap = 100

var ErrNotFound = errors.New("divination: not found")

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) (*Repo, error) {
	if err := db.AutoMigrate(&Record{}, &Job{}); err != nil {
		return nil, fmt.Errorf("divination: migrate: %w", err)
	}
	return &Repo{db: db}, nil
}

// InsertRecord stores a record and evicts the oldest entries of the same
// type beyond the history cap.
func (r *Repo) InsertRecord(rec *Record) error {
	if rec.ID == "" {
		rec.ID = common.NewULID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		// ULIDs sort by creation time, so ordering by id is ordering by age.
		var stale []string
		err := tx.Model(&Record{}).
			Where("type = ?", rec.Type).
			Order("id DESC").
			Offset(historyCap).
			Limit(historyCap).
			Pluck("id", &stale).Error
		if err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}
		return tx.Where("id IN ?", stale).Delete(&Record{}).Error
	})
}

// ListRecords returns up to limit records of the given type, newest first.
// An empty divType lists across all types.
func (r *Repo) ListRecords(divType string, limit int) ([]Record, error) {
	if limit <= 0 || limit > historyCap {
		limit = historyCap
	}
	q := r.db.Order("id DESC").Limit(limit)
	if divType != "" {
		q = q.Where("type = ?", divType)
	}
	var out []Record
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetRecord(id string) (*Record, error) {
	var rec Record
	err := r.db.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repo) DeleteRecord(id string) error {
	res := r.db.Delete(&Record{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearRecords deletes all records of a type; empty divType clears everything.
func (r *Repo) ClearRecords(divType string) (int64, error) {
	q := r.db.Where("1 = 1")
	if divType != "" {
		q = r.db.Where("type = ?", divType)
	}
	res := q.Delete(&Record{})
	return res.RowsAffected, res.Error
}

func (r *Repo) CountRecords(divType string) (int64, error) {
	var n int64
	q := r.db.Model(&Record{})
	if divType != "" {
		q = q.Where("type = ?", divType)
	}
	err := q.Count(&n).Error
	return n, err
}

// CreateJob enqueues a job. When an idempotency key is supplied and a job
// with that key already exists, the existing job is returned unchanged.
func (r *Repo) CreateJob(job *Job) (*Job, bool, error) {
	if job.ID == "" {
		job.ID = common.NewULID()
	}
	job.Status = JobQueued

	if job.IdempotencyKey != nil && *job.IdempotencyKey != "" {
		var existing Job
		err := r.db.First(&existing, "idempotency_key = ?", *job.IdempotencyKey).Error
		if err == nil {
			return &existing, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	}
	if err := r.db.Create(job).Error; err != nil {
		return nil, false, err
	}
	return job, true, nil
}

func (r *Repo) GetJob(id string) (*Job, error) {
	var job Job
	err := r.db.First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ClaimJob transitions a queued job to running. It reports false when the
// job is already taken, so competing workers cannot run it twice.
func (r *Repo) ClaimJob(id string) (bool, error) {
	res := r.db.Model(&Job{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repo) MarkJobSucceeded(id, recordID string) error {
	return r.db.Model(&Job{}).Where("id = ?", id).Updates(map[string]any{
		"status":           JobSucceeded,
		"result_record_id": recordID,
		"error":            nil,
	}).Error
}

func (r *Repo) MarkJobFailed(id string, cause error) error {
	msg := cause.Error()
	return r.db.Model(&Job{}).Where("id = ?", id).Updates(map[string]any{
		"status": JobFailed,
		"error":  msg,
	}).Error
}
