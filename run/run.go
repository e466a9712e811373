// Package run journals the outcome of every crawled site so past batches can
// be listed without reading the ledgers.
package run

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrRunNotFound       = errors.New("run not found")
	ErrInvalidBatch      = errors.New("batch_id is required")
	ErrInvalidTarget     = errors.New("website and language are required")
	ErrInvalidStatus     = errors.New("invalid run status")
	ErrRunNotRunning     = errors.New("run is not running")
	ErrRunAlreadyStarted = errors.New("run already started")
)

type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusAborted Status = "aborted"
	StatusErrored Status = "errored"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusRunning, StatusSuccess, StatusAborted, StatusErrored:
		return true
	}
	return false
}

// IsFinal reports whether no further transition is possible.
func (s Status) IsFinal() bool {
	return s == StatusSuccess || s == StatusAborted || s == StatusErrored
}

// JSONMap is a custom type for JSON columns.
type JSONMap map[string]interface{}

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return json.Marshal(map[string]interface{}{})
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONMap)
		return nil
	}
	b, err := scanBytes(value)
	if err != nil {
		return err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*j = m
	return nil
}

// StringList is a JSON array column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(l))
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	b, err := scanBytes(value)
	if err != nil {
		return err
	}
	var s []string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*l = s
	return nil
}

// sqlite returns TEXT columns as strings, mysql as bytes.
func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, errors.New("failed to scan JSON column: unsupported type")
}

// Run is the journal entry of one site target within a batch.
type Run struct {
	ID             uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	BatchID        uuid.UUID  `json:"batch_id" gorm:"type:char(36);not null;index:idx_runs_batch_id"`
	Website        string     `json:"website" gorm:"type:varchar(255);not null;index:idx_runs_website"`
	Language       string     `json:"language" gorm:"type:varchar(32);not null"`
	Variant        string     `json:"variant" gorm:"type:varchar(32);not null;default:'generic'"`
	Status         Status     `json:"status" gorm:"type:varchar(20);not null;default:'running'"`
	CompletedRoles StringList `json:"completed_roles" gorm:"type:json"`
	FailedRole     string     `json:"failed_role,omitempty" gorm:"type:varchar(64)"`
	Error          string     `json:"error,omitempty" gorm:"type:text"`
	Options        JSONMap    `json:"options" gorm:"type:json"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Duration       *int64     `json:"duration,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (r *Run) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Run) Validate() error {
	if r.BatchID == uuid.Nil {
		return ErrInvalidBatch
	}
	if r.Website == "" || r.Language == "" {
		return ErrInvalidTarget
	}
	if r.Status != "" && !r.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// Start marks the run as running.
func (r *Run) Start() error {
	if r.Status != "" {
		return ErrRunAlreadyStarted
	}
	r.Status = StatusRunning
	r.StartTime = time.Now()
	return nil
}

// Result is how a run ended.
type Result struct {
	Status         Status
	CompletedRoles []string
	FailedRole     string
	Error          string
}

// Complete marks the run as finished.
func (r *Run) Complete(res Result) error {
	if r.Status != StatusRunning {
		return ErrRunNotRunning
	}
	if !res.Status.IsFinal() {
		return ErrInvalidStatus
	}
	now := time.Now()
	r.Status = res.Status
	r.CompletedRoles = res.CompletedRoles
	r.FailedRole = res.FailedRole
	r.Error = res.Error
	r.EndTime = &now
	duration := now.Sub(r.StartTime).Milliseconds()
	r.Duration = &duration
	return nil
}
