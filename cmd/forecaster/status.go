package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"FinSight/internal/model"
	"FinSight/internal/notifier"
	"FinSight/internal/recorder"
	"FinSight/internal/registry"
)

var flagHistory int

var statusCmd = &cobra.Command{
	Use:   "status [user]",
	Short: "Show model readiness, the cached training result and recent training runs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&flagHistory, "history", 5, "Number of recent training runs to list")
	rootCmd.AddCommand(statusCmd)
}

type statusReport struct {
	User       string                 `json:"user"`
	Ready      bool                   `json:"ready"`
	LastResult *model.TrainingSummary `json:"last_result,omitempty"`
	Runs       []runView              `json:"runs,omitempty"`
}

type runView struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Started  string `json:"started_at"`
	Duration string `json:"duration"`
	Rows     int    `json:"rows"`
	Error    string `json:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	key := registry.CohortKey
	if len(args) == 1 {
		key = args[0]
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	rep := statusReport{User: registry.DisplayName(key), Ready: a.registry.Ready(key)}
	if last, ok, err := a.registry.LastResult(cmd.Context(), key); err != nil {
		log.Warnf("read cached result: %v", err)
	} else if ok {
		rep.LastResult = last
	}

	runs, err := a.registry.Recorder.RecentRuns(key, flagHistory)
	if err != nil {
		return fmt.Errorf("read training history: %w", err)
	}
	for _, r := range runs {
		rep.Runs = append(rep.Runs, viewRun(r))
	}
	// The history survives restarts while the in-memory cache does not.
	if rep.LastResult == nil {
		for _, r := range runs {
			if r.Status == recorder.StatusSuccess {
				rep.LastResult = r.Summary
				break
			}
		}
	}

	return render(rep, func() string {
		var sb strings.Builder
		sb.WriteString(notifier.FormatStatus(rep.User, rep.Ready, rep.LastResult))
		if len(rep.Runs) > 0 {
			sb.WriteString("\nRecent runs:\n")
			for _, r := range rep.Runs {
				fmt.Fprintf(&sb, "  %s  %-7s  %5d rows  %8s  %s\n", r.Started, r.Status, r.Rows, r.Duration, r.Error)
			}
		}
		return sb.String()
	})
}

func viewRun(r recorder.TrainingRun) runView {
	return runView{
		ID:       r.ID,
		Status:   r.Status,
		Started:  r.StartedAt.Format("2006-01-02 15:04"),
		Duration: r.Duration().Round(100 * time.Millisecond).String(),
		Rows:     r.Rows,
		Error:    r.Error,
	}
}
