package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/media-collect/internal/application/service"
	"github.com/garyjia/media-collect/internal/container"
	"github.com/garyjia/media-collect/internal/domain/entity"
)

// seedCmd loads demo fixtures
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo tasks, collectors and submissions",
	Long: `Load a small demo data set with readable ids (task-1, cl-001, ...).
Running it twice is a no-op.`,
	RunE: runSeed,
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func strPtr(s string) *string { return &s }

var seedTasks = []*entity.Task{
	{ID: "task-1", Title: "Street signs", Description: "Photograph street name signs in daylight", MediaType: entity.MediaTypeImage},
	{ID: "task-2", Title: "Market ambience", Description: "Record one minute of ambient market sound", MediaType: entity.MediaTypeAudio},
}

var seedCollectors = []*entity.Collector{
	{ID: "cl-001", Name: "Amara Okafor", Phone: "+234 801 555 0101", TelegramUsername: strPtr("amara_o")},
	{ID: "cl-002", Name: "Luis Ortega", Phone: "+52 55 5555 0102"},
	{ID: "cl-003", Name: "Mei Tan", Phone: "+65 8555 0103", TelegramUsername: strPtr("meitan")},
}

var seedAssignments = map[string][]string{
	"task-1": {"cl-001", "cl-002"},
	"task-2": {"cl-002", "cl-003"},
}

var seedSubmissions = []service.IngestInput{
	{TaskID: "task-1", CollectorID: "cl-001", UploadURL: "https://uploads.example.com/task-1/cl-001/1.jpg"},
	{TaskID: "task-1", CollectorID: "cl-002", UploadURL: "https://uploads.example.com/task-1/cl-002/1.jpg"},
	{TaskID: "task-2", CollectorID: "cl-003", UploadURL: "https://uploads.example.com/task-2/cl-003/1.m4a"},
}

func runSeed(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *container.Container) error {
		seeded, err := seed(ctx, c)
		if err != nil {
			return err
		}
		if !seeded {
			fmt.Fprintln(cmd.OutOrStdout(), "Fixtures already present, nothing to do")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d tasks, %d collectors, %d submissions\n",
			len(seedTasks), len(seedCollectors), len(seedSubmissions))
		return nil
	})
}

// seed writes the fixtures unless task-1 already exists
func seed(ctx context.Context, c *container.Container) (bool, error) {
	repos := c.Repositories()
	services := c.Services()

	existing, err := repos.Task.GetByID(ctx, seedTasks[0].ID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	now := time.Now().UTC()
	err = c.DB().WithTransaction(ctx, func(ctx context.Context) error {
		for _, t := range seedTasks {
			task := *t
			task.CreatedByID = entity.SystemUserID
			task.IsActive = true
			task.CreatedAt, task.UpdatedAt = now, now
			if err := repos.Task.Create(ctx, &task); err != nil {
				return fmt.Errorf("create %s: %w", task.ID, err)
			}
		}
		for _, cl := range seedCollectors {
			collector := *cl
			collector.CreatedAt = now
			if err := repos.Collector.Create(ctx, &collector); err != nil {
				return fmt.Errorf("create %s: %w", collector.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	for taskID, ids := range seedAssignments {
		if _, err := services.Task.Assign(ctx, entity.SystemUserID, taskID, ids); err != nil {
			return false, fmt.Errorf("assign %s: %w", taskID, err)
		}
	}

	var first *entity.Submission
	for _, in := range seedSubmissions {
		sub, err := services.Submission.IngestSubmission(ctx, in)
		if err != nil {
			return false, fmt.Errorf("ingest %s: %w", in.UploadURL, err)
		}
		if first == nil {
			first = sub
		}
	}

	_, err = services.Submission.Review(ctx, entity.SystemUserID, first.ID, entity.ReviewDecision{
		Status:       entity.SubmissionStatusApproved,
		ApproverNote: strPtr("Clear and legible"),
	})
	if err != nil {
		return false, fmt.Errorf("review seed submission: %w", err)
	}
	return true, nil
}
