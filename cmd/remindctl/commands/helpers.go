package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/remindly/remind-api/internal/config"
	"github.com/remindly/remind-api/internal/database"
	"github.com/remindly/remind-api/internal/models"
)

// withRepo connects to the database and hands the repository to fn, closing
// the connection afterwards.
func withRepo(fn func(repo *database.TaskRepository) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	return fn(database.NewTaskRepository(db))
}

// parseRecurrenceFlag turns a --every flag value into a recurrence pattern.
// Accepted forms:
//
//	daily            every day
//	daily:3          every 3 days
//	weekly:mon,wed   mondays and wednesdays
//	monthly:15       the 15th of every month
//	yearly           every year
func parseRecurrenceFlag(value string) (*models.RecurrencePattern, error) {
	if value == "" {
		return nil, nil
	}

	parts := strings.SplitN(value, ":", 2)
	pattern := &models.RecurrencePattern{
		Frequency: models.Frequency(parts[0]),
		Interval:  1,
	}

	if len(parts) == 2 && parts[1] != "" {
		switch pattern.Frequency {
		case models.FrequencyDaily:
			interval, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, fmt.Errorf("invalid daily interval %q", parts[1])
			}
			pattern.Interval = interval
		case models.FrequencyWeekly:
			days, err := parseWeekdays(parts[1])
			if err != nil {
				return nil, err
			}
			pattern.DaysOfWeek = days
		case models.FrequencyMonthly, models.FrequencyYearly:
			day, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, fmt.Errorf("invalid day of month %q", parts[1])
			}
			pattern.DayOfMonth = day
		}
	}

	if err := pattern.Validate(); err != nil {
		return nil, err
	}
	return pattern, nil
}

var weekdayNames = map[string]int{
	"mon": 0, "tue": 1, "wed": 2, "thu": 3, "fri": 4, "sat": 5, "sun": 6,
}

func parseWeekdays(value string) ([]int, error) {
	var days []int
	for _, name := range strings.Split(value, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if day, ok := weekdayNames[name]; ok {
			days = append(days, day)
			continue
		}
		day, err := strconv.Atoi(name)
		if err != nil || day < 0 || day > 6 {
			return nil, fmt.Errorf("invalid weekday %q (use mon..sun or 0..6)", name)
		}
		days = append(days, day)
	}
	return days, nil
}

func printTask(task *models.Task) {
	fmt.Printf("  %s  [%s]  %s\n", task.ID, task.Status, task.Title)
	fmt.Printf("    due: %s  priority: %s", task.DueAt.Format("2006-01-02 15:04 MST"), task.Priority)
	if task.IsRecurring && task.Recurrence != nil {
		fmt.Printf("  repeats: %s", task.Recurrence.Frequency)
	}
	fmt.Println()
	if len(task.Tags) > 0 {
		fmt.Printf("    tags: %s\n", strings.Join(task.Tags, ", "))
	}
}
