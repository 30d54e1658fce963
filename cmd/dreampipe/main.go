package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dreampipe/internal/api"
	"dreampipe/internal/config"
	"dreampipe/internal/crypto"
	"dreampipe/internal/database"
	"dreampipe/internal/logging"
	"dreampipe/internal/models"
	"dreampipe/internal/services/catalog"
	"dreampipe/internal/services/converter"
	"dreampipe/internal/services/generation"
	"dreampipe/internal/services/pipeline"
	"dreampipe/internal/services/scheduler"
)

const defaultDream = "A dream about flying through clouds with a sense of freedom and wonder"

func main() {
	var (
		description  = flag.String("description", defaultDream, "dream description to generate a model for")
		analysisJSON = flag.String("analysis", "", "dream analysis as inline JSON {keywords, emotions, visualDescription}")
		name         = flag.String("name", "dreamecho_model", "model name recorded in the catalog")
		convert      = flag.Bool("convert", false, "run the conversion script after recording the model")
		daemon       = flag.Bool("schedule", false, "run as a daemon executing scheduled jobs")
		addJob       = flag.String("add-job", "", "register a scheduled job with this name and exit")
		jobCron      = flag.String("cron", "0 2 * * *", "cron expression for -add-job")
		listJobs     = flag.Bool("list-jobs", false, "list scheduled jobs and exit")
		deleteJob    = flag.String("delete-job", "", "delete the scheduled job with this ID and exit")
		storeKey     = flag.String("store-api-key", "", "store the backend API key in the system keychain and exit")
	)
	flag.Parse()

	if *storeKey != "" {
		if err := crypto.StoreAPIKey(*storeKey); err != nil {
			log.Fatalf("Failed to store API key: %v", err)
		}
		fmt.Println("API key stored in system keychain")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	logger, err := logging.NewFileLogger(cfg.LogPath, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to open pipeline log: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run history is best-effort for one-shot runs; scheduled mode needs it
	db, dbErr := database.Init(cfg.DatabaseURL)
	if dbErr != nil {
		if *daemon || *addJob != "" || *listJobs || *deleteJob != "" {
			log.Fatalf("Failed to initialize database: %v", dbErr)
		}
		log.Printf("WARNING: run history disabled: %v", dbErr)
	}
	defer database.Close(db)

	analysis, err := parseAnalysis(*analysisJSON)
	if err != nil {
		log.Fatalf("Invalid -analysis value: %v", err)
	}

	client := api.NewClient(cfg.BaseURL, cfg.APIKey)
	gen := generation.NewService(client, generation.NewValidator(), logger)
	rec := catalog.NewService(cfg.ModelsPath, logger)
	conv := converter.NewService(cfg.ConvertScript, cfg.ConvertTimeout, logger)
	pipe := pipeline.NewService(gen, rec, conv, db, logger, cfg.MaxPollAttempts, cfg.PollInterval)

	sched := scheduler.NewService(db, pipe)

	switch {
	case *addJob != "":
		id, err := sched.UpsertJob(scheduler.UpsertJobRequest{
			Name:    *addJob,
			Cron:    *jobCron,
			Enabled: true,
			Payload: scheduler.DreamJobPayload{
				Description: *description,
				Analysis:    analysis,
				ModelName:   *name,
				Convert:     *convert,
			},
		})
		if err != nil {
			log.Fatalf("Failed to register job: %v", err)
		}
		fmt.Printf("Scheduled job registered: %s\n", id)

	case *listJobs:
		jobs, err := sched.ListJobs()
		if err != nil {
			log.Fatalf("Failed to list jobs: %v", err)
		}
		for _, job := range jobs {
			next := "-"
			if job.NextRun != nil {
				next = *job.NextRun
			}
			fmt.Printf("%s  %-20s  %-14s  enabled=%-5v  next=%s\n", job.ID, job.Name, job.Cron, job.Enabled, next)
		}

	case *deleteJob != "":
		if err := sched.DeleteJob(*deleteJob); err != nil {
			log.Fatalf("Failed to delete job: %v", err)
		}
		fmt.Println("Scheduled job deleted")

	case *daemon:
		if err := sched.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		log.Println("Scheduler running, press Ctrl-C to stop")
		<-ctx.Done()
		sched.Stop()

	default:
		if err := pipe.Run(ctx, pipeline.RunRequest{
			Description: *description,
			Analysis:    analysis,
			Name:        *name,
			Convert:     *convert,
		}); err != nil {
			logger.Logf("Pipeline failed: %v", err)
			os.Exit(1)
		}
	}
}

// parseAnalysis decodes the optional inline analysis JSON; empty input
// means no analysis (the submitter substitutes empty lists)
func parseAnalysis(raw string) (*models.DreamAnalysis, error) {
	if raw == "" {
		return nil, nil
	}
	var analysis models.DreamAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}
