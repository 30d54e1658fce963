package generation

import (
	"fmt"
	"strings"

	"dreampipe/internal/models"
)

// TaskStatus is the closed set of lifecycle states reported by the
// generation backend. Raw wire strings map totally onto it; anything the
// backend invents that we do not know about becomes StatusUnrecognized,
// which the poller treats exactly like StatusPending.
type TaskStatus int

const (
	StatusUnrecognized TaskStatus = iota
	StatusPending
	StatusProcessing
	StatusCompleted
	StatusFailed
)

// ParseTaskStatus maps a raw status string (case-insensitive) to a TaskStatus
func ParseTaskStatus(raw string) TaskStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return StatusPending
	case "processing":
		return StatusProcessing
	case "completed":
		return StatusCompleted
	case "failed":
		return StatusFailed
	default:
		return StatusUnrecognized
	}
}

// Terminal reports whether the status ends a polling session
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s TaskStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unrecognized"
	}
}

// PollOutcome is the terminal classification of one bounded polling session
type PollOutcome string

const (
	OutcomeCompleted    PollOutcome = "completed"     // backend reported completion
	OutcomeFailed       PollOutcome = "failed"        // backend reported explicit failure
	OutcomeTimeout      PollOutcome = "timeout"       // attempt budget spent while non-terminal
	OutcomeError        PollOutcome = "error"         // non-200 status endpoint response
	OutcomeNetworkError PollOutcome = "network_error" // transport failures through the last attempt
)

// PollResult describes how a polling session ended. DownloadURL and
// Format are populated only for OutcomeCompleted; a completed result may
// still carry an empty DownloadURL, which callers must treat as unusable.
type PollResult struct {
	Outcome          PollOutcome `json:"status"`
	DownloadURL      string      `json:"download_url,omitempty"`
	Format           string      `json:"format,omitempty"`
	ValidationFailed bool        `json:"validation_failed,omitempty"`
	HTTPStatus       int         `json:"http_status,omitempty"`
	Attempts         int         `json:"attempts"`
}

// SubmitRequest is the job-creation payload. Quality and Format are fixed
// by the pipeline: high quality, GLB (convertible to USDZ downstream).
type SubmitRequest struct {
	Description string               `json:"description"`
	Analysis    models.DreamAnalysis `json:"analysis"`
	Quality     string               `json:"quality"`
	Format      string               `json:"format"`
}

// submitResponse is the job-creation endpoint response body
type submitResponse struct {
	TaskID string `json:"taskId"`
}

// statusResponse is the status endpoint response body
type statusResponse struct {
	Status      string `json:"status"`
	DownloadURL string `json:"downloadUrl"`
	Format      string `json:"format"`
}

// SubmissionError reports a failed job submission: either a non-200
// response or a 200 response missing the task identifier.
type SubmissionError struct {
	StatusCode int
	Reason     string
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("submission failed: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("submission failed: %s", e.Reason)
}
