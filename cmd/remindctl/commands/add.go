package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/remindly/remind-api/internal/database"
	"github.com/remindly/remind-api/internal/models"
	"github.com/remindly/remind-api/internal/validation"
	"github.com/spf13/cobra"
)

// NewAddCmd creates the add command
func NewAddCmd() *cobra.Command {
	var (
		owner    string
		dueStr   string
		priority string
		timezone string
		tags     []string
		every    string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a reminder task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := validation.SanitizeText(strings.Join(args, " "))
			if title == "" {
				return fmt.Errorf("title cannot be empty")
			}

			dueAt, err := time.Parse(time.RFC3339, dueStr)
			if err != nil {
				return fmt.Errorf("--due must be RFC3339 (e.g. 2026-09-01T09:00:00Z): %w", err)
			}

			if err := validation.ValidatePriority(priority); err != nil {
				return err
			}

			pattern, err := parseRecurrenceFlag(every)
			if err != nil {
				return err
			}

			task := &models.Task{
				ID:          uuid.New(),
				OwnerID:     owner,
				Title:       title,
				DueAt:       dueAt.UTC(),
				Timezone:    timezone,
				Priority:    models.Priority(priority),
				Tags:        tags,
				Status:      models.TaskStatusPending,
				IsRecurring: pattern != nil,
				Recurrence:  pattern,
			}

			return withRepo(func(repo *database.TaskRepository) error {
				if err := repo.Create(context.Background(), task); err != nil {
					return fmt.Errorf("failed to create task: %w", err)
				}
				fmt.Println("Created task:")
				printTask(task)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "local", "Owner ID for the task")
	cmd.Flags().StringVar(&dueStr, "due", "", "Due time, RFC3339 (required)")
	cmd.Flags().StringVar(&priority, "priority", "medium", "Priority: low, medium, high or urgent")
	cmd.Flags().StringVar(&timezone, "timezone", "UTC", "IANA timezone the due time was given in")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&every, "every", "", "Recurrence, e.g. daily, daily:3, weekly:mon,wed, monthly:15")
	_ = cmd.MarkFlagRequired("due")

	return cmd
}
