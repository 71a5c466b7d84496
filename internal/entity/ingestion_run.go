package entity

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

// RunStatus is the outcome of one orchestrator run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// IngestionRun is the audit row written for every pipeline run.
type IngestionRun struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Trigger      string         `gorm:"type:varchar(20);not null" json:"trigger"`
	Status       RunStatus      `gorm:"type:varchar(20);not null" json:"status"`
	StartedAt    time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at"`
	Result       datatypes.JSON `json:"result,omitempty"`
	ErrorMessage sql.NullString `json:"error_message"`
}

func (IngestionRun) TableName() string {
	return "ingestion_runs"
}

// SummarizerType names the pluggable summarization strategy.
type SummarizerType string

const (
	SummarizerTypeExtractive SummarizerType = "extractive"
	SummarizerTypePolicy     SummarizerType = "policy"
)
