package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"dreampipe/internal/logging"
	"dreampipe/internal/models"
	"dreampipe/internal/services/catalog"
	"dreampipe/internal/services/converter"
	"dreampipe/internal/services/generation"
)

// ErrNoDownloadURL indicates a completed task that carries no usable
// artifact reference. The run is reported as failed.
var ErrNoDownloadURL = errors.New("no download URL available")

// Generator drives jobs on the remote generation backend
type Generator interface {
	Submit(ctx context.Context, description string, analysis *models.DreamAnalysis) (*generation.GenerationTask, error)
	Poll(ctx context.Context, task *generation.GenerationTask, maxAttempts int, interval time.Duration) *generation.PollResult
}

// Recorder appends completed models to the durable catalog
type Recorder interface {
	Record(record catalog.ModelRecord) error
}

// Converter hands a downloaded artifact reference to the external
// conversion step
type Converter interface {
	Invoke(ctx context.Context, modelURL, name string) (*converter.Result, error)
}

// RunRequest describes one pipeline invocation
type RunRequest struct {
	Description string
	Analysis    *models.DreamAnalysis
	Name        string
	Convert     bool // run the conversion script after recording
}

// Service sequences one generation job: submit, poll, record, convert.
// Exactly one task submission and one bounded poll session per Run; the
// run itself is never retried at this layer.
type Service struct {
	generator Generator
	recorder  Recorder
	converter Converter
	db        *gorm.DB // run history; nil disables persistence
	log       logging.Logger

	maxPollAttempts int
	pollInterval    time.Duration
}

// NewService creates a pipeline orchestrator
func NewService(generator Generator, recorder Recorder, conv Converter, db *gorm.DB, log logging.Logger, maxPollAttempts int, pollInterval time.Duration) *Service {
	return &Service{
		generator:       generator,
		recorder:        recorder,
		converter:       conv,
		db:              db,
		log:             log,
		maxPollAttempts: maxPollAttempts,
		pollInterval:    pollInterval,
	}
}

// Run drives one generation job to completion. The returned error is the
// fatal condition for the run; conversion failures are logged but never
// returned.
func (s *Service) Run(ctx context.Context, req RunRequest) error {
	if req.Name == "" {
		req.Name = "dreamecho_model"
	}

	s.log.Logf("Starting 3D Model Generation Pipeline")
	s.log.Logf("Dream: %s", truncate(req.Description, 50))

	run := &models.PipelineRun{
		ModelName:   req.Name,
		Description: req.Description,
		Status:      "starting",
	}
	s.createRun(run)

	s.log.Logf("Step 1: Submitting generation task...")
	task, err := s.generator.Submit(ctx, req.Description, req.Analysis)
	if err != nil {
		s.finishRun(run, "failed", "", err.Error())
		return err
	}

	run.TaskID = task.ID
	s.updateRun(run, "polling")

	s.log.Logf("Step 2: Polling task status...")
	result := s.generator.Poll(ctx, task, s.maxPollAttempts, s.pollInterval)

	run.Outcome = string(result.Outcome)

	if result.Outcome != generation.OutcomeCompleted {
		err := fmt.Errorf("task failed with status: %s", result.Outcome)
		s.finishRun(run, "failed", "", err.Error())
		return err
	}

	if result.DownloadURL == "" {
		s.log.Logf("Error: No download URL available")
		s.finishRun(run, "failed", "", ErrNoDownloadURL.Error())
		return ErrNoDownloadURL
	}

	if result.ValidationFailed {
		s.log.Logf("Warning: Download URL validation failed, but continuing...")
	}

	analysis := models.EmptyAnalysis()
	if req.Analysis != nil {
		analysis = *req.Analysis
	}

	s.log.Logf("Step 3: Writing to models.json...")
	record := catalog.ModelRecord{
		Name:        req.Name,
		URL:         result.DownloadURL,
		Description: req.Description,
		Analysis:    analysis,
		Timestamp:   time.Now().Format(time.RFC3339),
		TaskID:      task.ID,
	}
	if err := s.recorder.Record(record); err != nil {
		s.finishRun(run, "failed", result.DownloadURL, err.Error())
		return fmt.Errorf("failed to record model: %w", err)
	}

	if req.Convert {
		s.log.Logf("Step 4: Running conversion script...")
		s.convert(ctx, result.DownloadURL, req.Name)
	}

	s.finishRun(run, "completed", result.DownloadURL, "")

	s.log.Logf("Pipeline completed successfully!")
	s.log.Logf("Final model: %s", req.Name)
	s.log.Logf("Download URL: %s", result.DownloadURL)

	return nil
}

// convert runs the conversion step; its failure never fails the run
func (s *Service) convert(ctx context.Context, modelURL, name string) {
	result, err := s.converter.Invoke(ctx, modelURL, name)
	if err != nil {
		s.log.Logf("Warning: conversion failed, but pipeline completed: %v", err)
		return
	}

	switch {
	case result.TimedOut:
		s.log.Logf("Warning: conversion timed out, but pipeline completed")
	case result.ExitCode != 0:
		s.log.Logf("Warning: conversion failed (exit %d): %s", result.ExitCode, result.Stderr)
	default:
		s.log.Logf("Conversion completed successfully")
		if result.Stdout != "" {
			s.log.Logf("Output: %s", result.Stdout)
		}
	}
}

// createRun persists the initial run record when a database is configured
func (s *Service) createRun(run *models.PipelineRun) {
	if s.db == nil {
		return
	}
	if err := s.db.Create(run).Error; err != nil {
		s.log.Logf("Warning: failed to create run record: %v", err)
	}
}

// updateRun persists an intermediate status transition
func (s *Service) updateRun(run *models.PipelineRun, status string) {
	run.Status = status
	if s.db == nil {
		return
	}
	if err := s.db.Save(run).Error; err != nil {
		s.log.Logf("Warning: failed to update run record: %v", err)
	}
}

// finishRun persists the terminal state of the run
func (s *Service) finishRun(run *models.PipelineRun, status, downloadURL, errMsg string) {
	run.Status = status
	run.DownloadURL = downloadURL
	run.Error = errMsg
	if s.db == nil {
		return
	}
	if err := s.db.Save(run).Error; err != nil {
		s.log.Logf("Warning: failed to update run record: %v", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
