package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/remindly/remind-api/internal/database"
	"github.com/remindly/remind-api/internal/models"
	"github.com/spf13/cobra"
)

// NewDueCmd creates the due command
func NewDueCmd() *cobra.Command {
	var windowMinutes int

	cmd := &cobra.Command{
		Use:   "due",
		Short: "Show pending tasks due within the detection window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if windowMinutes < 1 {
				return fmt.Errorf("--window must be at least 1 minute")
			}

			return withRepo(func(repo *database.TaskRepository) error {
				now := time.Now().UTC()
				end := now.Add(time.Duration(windowMinutes) * time.Minute)

				tasks, err := repo.GetDueBetween(context.Background(), now, end, models.TaskStatusPending)
				if err != nil {
					return fmt.Errorf("failed to query due tasks: %w", err)
				}

				if len(tasks) == 0 {
					fmt.Printf("No tasks due in the next %d minute(s)\n", windowMinutes)
					return nil
				}

				fmt.Printf("%d task(s) due by %s:\n", len(tasks), end.Format(time.RFC3339))
				for _, task := range tasks {
					printTask(task)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&windowMinutes, "window", 5, "Look-ahead window in minutes")

	return cmd
}
