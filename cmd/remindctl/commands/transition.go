package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/remindly/remind-api/internal/database"
	"github.com/remindly/remind-api/internal/recurrence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewCompleteCmd creates the complete command
func NewCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task completed (recurring tasks get their next occurrence)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}

			return withController(func(ctrl *recurrence.Controller) error {
				completed, next, err := ctrl.Complete(context.Background(), id)
				if err != nil {
					return err
				}
				fmt.Println("Completed:")
				printTask(completed)
				if next != nil {
					fmt.Println("Next occurrence:")
					printTask(next)
				}
				return nil
			})
		},
	}
}

// NewSkipCmd creates the skip command
func NewSkipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip <task-id>",
		Short: "Skip the current occurrence without completing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}

			return withController(func(ctrl *recurrence.Controller) error {
				skipped, next, err := ctrl.Skip(context.Background(), id)
				if err != nil {
					return err
				}
				fmt.Println("Skipped:")
				printTask(skipped)
				if next != nil {
					fmt.Println("Next occurrence:")
					printTask(next)
				}
				return nil
			})
		},
	}
}

// NewSnoozeCmd creates the snooze command
func NewSnoozeCmd() *cobra.Command {
	var minutes int

	cmd := &cobra.Command{
		Use:   "snooze <task-id>",
		Short: "Push a pending task's due time forward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			if minutes < 1 {
				return fmt.Errorf("--minutes must be at least 1")
			}

			return withController(func(ctrl *recurrence.Controller) error {
				snoozed, err := ctrl.Snooze(context.Background(), id, time.Duration(minutes)*time.Minute)
				if err != nil {
					return err
				}
				fmt.Println("Snoozed:")
				printTask(snoozed)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&minutes, "minutes", 10, "How many minutes to delay from the current due time")

	return cmd
}

func withController(fn func(ctrl *recurrence.Controller) error) error {
	return withRepo(func(repo *database.TaskRepository) error {
		ctrl := recurrence.NewController(repo, recurrence.SystemClock(), zap.NewNop())
		return fn(ctrl)
	})
}
