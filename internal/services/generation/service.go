package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dreampipe/internal/api"
	"dreampipe/internal/logging"
	"dreampipe/internal/models"
)

// pollAttemptTimeout bounds a single status query (10s class); the
// submission call runs under the api client's own 30s timeout.
const pollAttemptTimeout = 10 * time.Second

// LinkValidator checks whether an artifact download URL is reachable
type LinkValidator interface {
	Validate(url string) bool
}

// GenerationTask represents one in-flight or resolved remote generation
// job. The ID is assigned by the backend at submission and never changes;
// Status only advances toward a terminal state within one polling session.
type GenerationTask struct {
	ID          string
	Status      TaskStatus
	DownloadURL string
	Format      string
}

// Service drives generation jobs on the remote backend: submission and
// bounded status polling with download-link validation.
type Service struct {
	client    *api.Client
	validator LinkValidator
	log       logging.Logger
	sleep     func(time.Duration)
}

// NewService creates a new generation service
func NewService(client *api.Client, validator LinkValidator, log logging.Logger) *Service {
	return &Service{
		client:    client,
		validator: validator,
		log:       log,
		sleep:     time.Sleep,
	}
}

// Submit sends one job-creation request and returns the assigned task.
// A nil analysis defaults to empty keyword/emotion lists. Submission is
// single-shot: any failure is returned as a *SubmissionError (or transport
// error) and the caller aborts the run.
func (s *Service) Submit(ctx context.Context, description string, analysis *models.DreamAnalysis) (*GenerationTask, error) {
	if analysis == nil {
		empty := models.EmptyAnalysis()
		analysis = &empty
	}

	payload := SubmitRequest{
		Description: description,
		Analysis:    *analysis,
		Quality:     "high",
		Format:      "glb", // GLB first, convertible to USDZ downstream
	}

	s.log.Logf("Submitting task to: %s", s.client.BuildURL("dreams/3d"))

	resp, err := s.client.Post(ctx, "dreams/3d", payload)
	if err != nil {
		return nil, fmt.Errorf("failed to submit task: %w", err)
	}

	if resp.StatusCode() != 200 {
		s.log.Logf("HTTP %d: %s", resp.StatusCode(), resp.String())
		return nil, &SubmissionError{StatusCode: resp.StatusCode()}
	}

	var result submitResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse submission response: %w", err)
	}

	if result.TaskID == "" {
		s.log.Logf("Error: No taskId in response")
		return nil, &SubmissionError{Reason: "no taskId in response"}
	}

	s.log.Logf("Task submitted successfully: %s", result.TaskID)

	return &GenerationTask{ID: result.TaskID, Status: StatusPending}, nil
}

// Poll queries the task status endpoint up to maxAttempts times, sleeping
// interval between attempts, and classifies the session into a terminal
// PollResult. The transition rules:
//
//   - transport failure: retry while attempts remain, network_error on the last
//   - non-200 response: terminal error immediately, no retry
//   - completed: terminal, link validated when a download URL is present;
//     validation failure downgrades to a flag, completion is preserved
//   - failed: terminal immediately, no sleep
//   - pending/processing/unrecognized: retry while attempts remain, then timeout
func (s *Service) Poll(ctx context.Context, task *GenerationTask, maxAttempts int, interval time.Duration) *PollResult {
	endpoint := fmt.Sprintf("dreams/3d/%s", task.ID)

	s.log.Logf("Polling task status: %s", task.ID)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, pollAttemptTimeout)
		resp, err := s.client.Get(attemptCtx, endpoint)
		cancel()

		if err != nil {
			s.log.Logf("Polling attempt %d failed: %v", attempt, err)
			if attempt < maxAttempts {
				s.sleep(interval)
				continue
			}
			return &PollResult{Outcome: OutcomeNetworkError, Attempts: attempt}
		}

		if resp.StatusCode() != 200 {
			s.log.Logf("HTTP %d: %s", resp.StatusCode(), resp.String())
			return &PollResult{Outcome: OutcomeError, HTTPStatus: resp.StatusCode(), Attempts: attempt}
		}

		var result statusResponse
		if err := json.Unmarshal(resp.Body(), &result); err != nil {
			// Malformed body from a 200 response is treated like a
			// transport hiccup: retry within the budget
			s.log.Logf("Polling attempt %d failed: %v", attempt, err)
			if attempt < maxAttempts {
				s.sleep(interval)
				continue
			}
			return &PollResult{Outcome: OutcomeNetworkError, Attempts: attempt}
		}

		status := ParseTaskStatus(result.Status)
		s.advance(task, status)

		s.log.Logf("Attempt %d/%d: Status = %s", attempt, maxAttempts, status)

		switch status {
		case StatusCompleted:
			return s.resolveCompleted(task, &result, attempt)

		case StatusFailed:
			s.log.Logf("Task failed")
			return &PollResult{Outcome: OutcomeFailed, Attempts: attempt}

		default:
			// pending, processing, or something we do not recognize
			if attempt < maxAttempts {
				s.sleep(interval)
				continue
			}
			s.log.Logf("Timeout after %d attempts", maxAttempts)
			return &PollResult{Outcome: OutcomeTimeout, Attempts: attempt}
		}
	}

	return &PollResult{Outcome: OutcomeTimeout, Attempts: maxAttempts}
}

// resolveCompleted builds the terminal result for a completed status,
// validating the download link when one is present
func (s *Service) resolveCompleted(task *GenerationTask, result *statusResponse, attempt int) *PollResult {
	task.DownloadURL = result.DownloadURL
	task.Format = result.Format

	if result.DownloadURL == "" {
		// Completion without an artifact reference: still reported as
		// completed, the caller decides this is unusable
		s.log.Logf("Warning: No download URL in response")
		return &PollResult{Outcome: OutcomeCompleted, Format: result.Format, Attempts: attempt}
	}

	s.log.Logf("Task completed")
	s.log.Logf("Download URL: %s", truncate(result.DownloadURL, 80))
	s.log.Logf("File format: %s", result.Format)

	res := &PollResult{
		Outcome:     OutcomeCompleted,
		DownloadURL: result.DownloadURL,
		Format:      result.Format,
		Attempts:    attempt,
	}

	if !s.validator.Validate(result.DownloadURL) {
		s.log.Logf("Warning: Download URL validation failed")
		res.ValidationFailed = true
	}

	return res
}

// advance moves the task status forward, never backward
func (s *Service) advance(task *GenerationTask, status TaskStatus) {
	if status == StatusUnrecognized {
		return
	}
	if status > task.Status || status.Terminal() {
		task.Status = status
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
