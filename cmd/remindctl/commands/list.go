package commands

import (
	"context"
	"fmt"

	"github.com/remindly/remind-api/internal/database"
	"github.com/remindly/remind-api/internal/models"
	"github.com/remindly/remind-api/internal/validation"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var (
		owner  string
		status string
		tag    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statusFilter *models.TaskStatus
			if status != "" {
				if err := validation.ValidateTaskStatus(status); err != nil {
					return err
				}
				s := models.TaskStatus(status)
				statusFilter = &s
			}

			return withRepo(func(repo *database.TaskRepository) error {
				tasks, err := repo.ListByOwner(context.Background(), owner, statusFilter, tag)
				if err != nil {
					return fmt.Errorf("failed to list tasks: %w", err)
				}

				if len(tasks) == 0 {
					fmt.Println("No tasks found")
					return nil
				}

				fmt.Printf("%d task(s):\n", len(tasks))
				for _, task := range tasks {
					printTask(task)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "local", "Owner ID to list tasks for")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status: pending, completed or cancelled")
	cmd.Flags().StringVar(&tag, "tag", "", "Filter by tag")

	return cmd
}
