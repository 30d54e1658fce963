package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"dreampipe/internal/services/pipeline"
)

// PipelineRunner defines the interface for driving one pipeline run
type PipelineRunner interface {
	Run(ctx context.Context, req pipeline.RunRequest) error
}

// Service handles scheduled pipeline job management and execution
type Service struct {
	db     *gorm.DB
	cron   *cron.Cron
	jobs   map[string]cron.EntryID // jobID -> cron entry ID
	jobsMu sync.RWMutex
	runner PipelineRunner
}

// NewService creates a new scheduler service
func NewService(db *gorm.DB, runner PipelineRunner) *Service {
	return &Service{
		db:     db,
		cron:   cron.New(cron.WithSeconds()),
		jobs:   make(map[string]cron.EntryID),
		runner: runner,
	}
}

// Start initializes the scheduler and loads enabled jobs from database
func (s *Service) Start() error {
	log.Println("Starting scheduler...")

	if err := s.db.AutoMigrate(&ScheduledJob{}); err != nil {
		return fmt.Errorf("failed to migrate scheduled_jobs table: %w", err)
	}

	s.cron.Start()

	var jobs []ScheduledJob
	if err := s.db.Where("enabled = ?", true).Find(&jobs).Error; err != nil {
		return fmt.Errorf("failed to load scheduled jobs: %w", err)
	}

	for _, job := range jobs {
		if err := s.scheduleJob(&job); err != nil {
			log.Printf("WARNING: Failed to schedule job %s (%s): %v", job.Name, job.ID, err)
		} else {
			log.Printf("Scheduled job: %s (%s) with cron: %s", job.Name, job.ID, job.Cron)
		}
	}

	log.Printf("Scheduler started with %d enabled jobs", len(jobs))
	return nil
}

// Stop gracefully stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		log.Println("Scheduler stopped")
	}
}

// ListJobs retrieves all scheduled jobs
func (s *Service) ListJobs() ([]JobListResponse, error) {
	var jobs []ScheduledJob
	if err := s.db.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	responses := make([]JobListResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = toJobListResponse(&job)
	}

	return responses, nil
}

// UpsertJob creates or updates a scheduled pipeline job
func (s *Service) UpsertJob(req UpsertJobRequest) (string, error) {
	if req.Name == "" || req.Cron == "" {
		return "", fmt.Errorf("name and cron are required")
	}
	if req.Payload.Description == "" {
		return "", fmt.Errorf("payload description is required")
	}

	// Normalize and validate cron expression (convert 5-field to 6-field)
	normalizedCron, err := normalizeCron(req.Cron)
	if err != nil {
		return "", err
	}
	req.Cron = normalizedCron

	var job ScheduledJob
	result := s.db.Where("name = ?", req.Name).First(&job)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			job = ScheduledJob{
				ID:   uuid.New().String(),
				Name: req.Name,
			}
		} else {
			return "", fmt.Errorf("failed to query job: %w", result.Error)
		}
	}

	job.Cron = req.Cron
	job.Enabled = req.Enabled
	if job.Timezone == "" {
		job.Timezone = "UTC"
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	job.Payload = string(payload)

	// Calculate next run time (cron parser uses the 6-field format stored in DB)
	schedule, err := cronParser().Parse(job.Cron)
	if err != nil {
		return "", fmt.Errorf("failed to parse cron for next run: %w", err)
	}
	nextRun := schedule.Next(time.Now())
	job.NextRunAt = &nextRun

	if result.Error == gorm.ErrRecordNotFound {
		if err := s.db.Create(&job).Error; err != nil {
			return "", fmt.Errorf("failed to create job: %w", err)
		}
	} else {
		if err := s.db.Save(&job).Error; err != nil {
			return "", fmt.Errorf("failed to update job: %w", err)
		}
	}

	if err := s.rescheduleJob(job.ID); err != nil {
		return "", fmt.Errorf("failed to reschedule job: %w", err)
	}

	return job.ID, nil
}

// DeleteJob removes a scheduled job
func (s *Service) DeleteJob(jobID string) error {
	s.jobsMu.Lock()
	if entryID, exists := s.jobs[jobID]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, jobID)
	}
	s.jobsMu.Unlock()

	if err := s.db.Delete(&ScheduledJob{}, "id = ?", jobID).Error; err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	return nil
}

// scheduleJob adds a job to the cron scheduler
func (s *Service) scheduleJob(job *ScheduledJob) error {
	if !job.Enabled {
		return nil
	}

	s.jobsMu.Lock()
	if entryID, exists := s.jobs[job.ID]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, job.ID)
	}
	s.jobsMu.Unlock()

	jobID := job.ID
	entryID, err := s.cron.AddFunc(job.Cron, func() {
		s.executeJob(jobID)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron entry: %w", err)
	}

	s.jobsMu.Lock()
	s.jobs[job.ID] = entryID
	s.jobsMu.Unlock()

	return nil
}

// rescheduleJob reloads a job from the database and (re)schedules it
func (s *Service) rescheduleJob(jobID string) error {
	var job ScheduledJob
	if err := s.db.Where("id = ?", jobID).First(&job).Error; err != nil {
		return fmt.Errorf("job not found: %w", err)
	}

	if !job.Enabled {
		s.jobsMu.Lock()
		if entryID, exists := s.jobs[jobID]; exists {
			s.cron.Remove(entryID)
			delete(s.jobs, jobID)
		}
		s.jobsMu.Unlock()
		return nil
	}

	return s.scheduleJob(&job)
}

// executeJob runs one scheduled pipeline invocation
func (s *Service) executeJob(jobID string) {
	var job ScheduledJob
	if err := s.db.Where("id = ?", jobID).First(&job).Error; err != nil {
		log.Printf("Scheduled job %s no longer exists: %v", jobID, err)
		return
	}

	req, err := parseJobPayload(job.Payload)
	if err != nil {
		log.Printf("Scheduled job %s has invalid payload: %v", job.Name, err)
		return
	}

	log.Printf("Running scheduled job: %s", job.Name)

	now := time.Now()
	job.LastRunAt = &now
	if schedule, err := cronParser().Parse(job.Cron); err == nil {
		nextRun := schedule.Next(now)
		job.NextRunAt = &nextRun
	}
	if err := s.db.Save(&job).Error; err != nil {
		log.Printf("WARNING: Failed to update job run times for %s: %v", job.Name, err)
	}

	if err := s.runner.Run(context.Background(), req); err != nil {
		log.Printf("Scheduled job %s failed: %v", job.Name, err)
		return
	}

	log.Printf("Scheduled job %s completed", job.Name)
}

// parseJobPayload decodes a stored payload into a pipeline run request
func parseJobPayload(payload string) (pipeline.RunRequest, error) {
	var p DreamJobPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return pipeline.RunRequest{}, fmt.Errorf("failed to parse payload: %w", err)
	}
	if p.Description == "" {
		return pipeline.RunRequest{}, fmt.Errorf("payload missing description")
	}

	return pipeline.RunRequest{
		Description: p.Description,
		Analysis:    p.Analysis,
		Name:        p.ModelName,
		Convert:     p.Convert,
	}, nil
}

// normalizeCron converts a 5-field cron expression to the 6-field format
// used internally (seconds first), validating either form
func normalizeCron(cronExpr string) (string, error) {
	cronExpr = strings.TrimSpace(cronExpr)

	fields := strings.Fields(cronExpr)
	if len(fields) == 6 {
		if _, err := cronParser().Parse(cronExpr); err == nil {
			return cronExpr, nil // Valid 6-field expression
		}
	}

	if len(fields) == 5 {
		if _, err := cron.ParseStandard(cronExpr); err != nil {
			return "", fmt.Errorf("invalid 5-field cron expression: %w", err)
		}
		// Prepend seconds (0 = run at 0 seconds of the minute)
		return "0 " + cronExpr, nil
	}

	return "", fmt.Errorf("invalid cron expression: expected 5 or 6 fields, got %d", len(fields))
}

func cronParser() cron.Parser {
	return cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

func toJobListResponse(job *ScheduledJob) JobListResponse {
	resp := JobListResponse{
		ID:        job.ID,
		Name:      job.Name,
		Cron:      job.Cron,
		Timezone:  job.Timezone,
		Enabled:   job.Enabled,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.Format(time.RFC3339),
	}

	if job.LastRunAt != nil {
		last := job.LastRunAt.Format(time.RFC3339)
		resp.LastRunAt = &last
	}
	if job.NextRunAt != nil {
		next := job.NextRunAt.Format(time.RFC3339)
		resp.NextRun = &next
	}

	return resp
}
