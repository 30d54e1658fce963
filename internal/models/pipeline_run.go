package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PipelineRun tracks one pipeline invocation from submission to its
// terminal outcome
type PipelineRun struct {
	ID          string    `gorm:"primaryKey" json:"id"` // UUID run ID
	TaskID      string    `gorm:"column:task_id" json:"task_id"`
	ModelName   string    `gorm:"column:model_name" json:"model_name"`
	Description string    `gorm:"type:text" json:"description"`
	Status      string    `gorm:"not null;default:starting" json:"status"` // starting, submitted, polling, completed, failed
	Outcome     string    `json:"outcome"`                                 // terminal poll outcome tag
	DownloadURL string    `gorm:"column:download_url" json:"download_url"`
	Error       string    `gorm:"type:text" json:"error"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating record
func (pr *PipelineRun) BeforeCreate(tx *gorm.DB) error {
	if pr.ID == "" {
		pr.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for GORM
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}
