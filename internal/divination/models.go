package divination

import "time"

// Record is one completed divination: the computed artifact, the question
// and the model's analysis. Records are append-only; they are deleted by
// id or cleared per type, never mutated.
type Record struct {
	ID          string    `gorm:"primaryKey;size:26" json:"id"`
	Type        string    `gorm:"type:varchar(32);index;not null" json:"type"`
	Question    string    `gorm:"type:text" json:"question"`
	Input       string    `gorm:"type:text" json:"input"` // serialized artifact/input blob
	PersonaID   string    `gorm:"type:varchar(64)" json:"persona_id"`
	PersonaName string    `gorm:"type:varchar(64)" json:"persona_name"`
	Analysis    string    `gorm:"type:text;not null" json:"analysis"`
	Strategy    string    `gorm:"type:varchar(32)" json:"strategy"` // transport strategy that produced the analysis
	CreatedAt   time.Time `json:"created_at"`
}

func (Record) TableName() string { return "divination_records" }

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is an asynchronous divination request processed by the worker.
type Job struct {
	ID string `gorm:"primaryKey;size:26" json:"id"`

	Type    string    `gorm:"type:varchar(32);index;not null" json:"type"`
	Payload string    `gorm:"type:text;not null" json:"-"` // serialized Request
	Status  JobStatus `gorm:"type:varchar(16);index;not null" json:"status"`

	IdempotencyKey *string `gorm:"type:varchar(128);index:uniq_job_idempo,unique" json:"-"`

	// Filled when succeeded
	ResultRecordID *string `gorm:"size:26" json:"result_record_id,omitempty"`

	// Filled when failed
	Error *string `gorm:"type:text" json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Job) TableName() string { return "divination_jobs" }
