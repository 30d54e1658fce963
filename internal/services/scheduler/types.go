package scheduler

import (
	"time"

	"dreampipe/internal/models"
)

// ScheduledJob represents a CRON-based recurring pipeline run
type ScheduledJob struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	Name      string     `json:"name" gorm:"unique;not null"`
	Cron      string     `json:"cron" gorm:"not null"` // CRON expression, 6-field (seconds first)
	Timezone  string     `json:"timezone" gorm:"default:UTC"`
	Payload   string     `json:"payload" gorm:"type:text"` // JSON DreamJobPayload
	Enabled   bool       `json:"enabled" gorm:"default:true"`
	LastRunAt *time.Time `json:"last_run_at"`
	NextRunAt *time.Time `json:"next_run_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ScheduledJob) TableName() string {
	return "scheduled_jobs"
}

// DreamJobPayload is the stored request for one scheduled pipeline run
type DreamJobPayload struct {
	Description string                `json:"description"`
	Analysis    *models.DreamAnalysis `json:"analysis,omitempty"`
	ModelName   string                `json:"model_name"`
	Convert     bool                  `json:"convert"`
}

// JobListResponse represents a scheduled job in list responses
type JobListResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Cron      string  `json:"cron"`
	Timezone  string  `json:"timezone"`
	Enabled   bool    `json:"enabled"`
	LastRunAt *string `json:"last_run_at"` // ISO 8601 format
	NextRun   *string `json:"next_run"`    // ISO 8601 format
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// UpsertJobRequest represents a request to create or update a scheduled job
type UpsertJobRequest struct {
	Name    string          `json:"name"`
	Cron    string          `json:"cron"`
	Enabled bool            `json:"enabled"`
	Payload DreamJobPayload `json:"payload"`
}
