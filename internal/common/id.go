package common

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewULID returns a lexicographically sortable id for records and jobs.
func NewULID() string {
	return ulid.Make().String()
}

// NewRequestID returns a per-request correlation id.
func NewRequestID() string {
	return uuid.NewString()
}
