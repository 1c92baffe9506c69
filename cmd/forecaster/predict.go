package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"FinSight/internal/bundle"
	"FinSight/internal/collector"
	"FinSight/internal/model"
	"FinSight/internal/notifier"
	"FinSight/internal/predictor"
)

var (
	flagKind string
	flagDays int
)

var predictCmd = &cobra.Command{
	Use:   "predict <user>",
	Short: "Forecast daily income or expense over a horizon",
	Args:  cobra.ExactArgs(1),
	RunE:  runPredict,
}

var riskCmd = &cobra.Command{
	Use:   "risk <user>",
	Short: "Assess the risk level of a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runRisk,
}

var insightsCmd = &cobra.Command{
	Use:   "insights <user>",
	Short: "Generate a financial insight report",
	Args:  cobra.ExactArgs(1),
	RunE:  runInsights,
}

func init() {
	predictCmd.Flags().StringVarP(&flagKind, "kind", "k", string(model.ForecastExpense), "Forecast kind: income or expense")
	predictCmd.Flags().IntVar(&flagDays, "days", 0, "Forecast horizon in days (default from config)")
	rootCmd.AddCommand(predictCmd, riskCmd, insightsCmd)
}

// loadUser resolves the bundle serving user and builds the user's current snapshot.
func loadUser(ctx context.Context, user string) (*bundle.Bundle, model.Snapshot, func(), error) {
	a, err := newApp(ctx)
	if err != nil {
		return nil, model.Snapshot{}, nil, err
	}
	b, err := a.registry.Resolve(user)
	if err != nil {
		a.Close()
		return nil, model.Snapshot{}, nil, err
	}
	tbl, err := a.collector.Collect(ctx, user)
	if err != nil {
		a.Close()
		return nil, model.Snapshot{}, nil, err
	}
	log.Debugf("bundle %s serves %s (%d transactions)", b.ID, user, tbl.Len())
	return b, collector.BuildSnapshot(tbl, user), a.Close, nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	days := flagDays
	if days == 0 {
		days = cfg.Model.HorizonDays
	}
	if err := predictor.ValidateHorizon(days); err != nil {
		return err
	}

	b, snap, done, err := loadUser(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer done()

	p := predictor.New()
	var res *model.PredictionResult
	switch model.ForecastKind(strings.ToLower(flagKind)) {
	case model.ForecastIncome:
		res, err = p.PredictIncome(b, snap, days)
	case model.ForecastExpense:
		res, err = p.PredictExpense(b, snap, days)
	default:
		return fmt.Errorf("unknown forecast kind %q", flagKind)
	}
	if err != nil {
		return err
	}
	return render(res, func() string { return formatPrediction(args[0], res) })
}

func formatPrediction(user string, res *model.PredictionResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s forecast for %s, next %d days\n\n", res.Kind, user, res.PeriodDays)
	for _, d := range res.DailyPredictions {
		fmt.Fprintf(&sb, "  %s  %10.2f\n", d.Date.Format("2006-01-02"), d.PredictedValue)
	}
	fmt.Fprintf(&sb, "\nTotal: %.2f (confidence %s)", res.Total, model.ConfidenceMedium)
	return sb.String()
}

func runRisk(cmd *cobra.Command, args []string) error {
	b, snap, done, err := loadUser(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer done()

	a, err := predictor.New().AssessRisk(b, snap)
	if err != nil {
		return err
	}
	return render(a, func() string { return notifier.FormatRisk(args[0], a) })
}

func runInsights(cmd *cobra.Command, args []string) error {
	b, snap, done, err := loadUser(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer done()

	report, err := predictor.New().GenerateInsights(b, snap)
	if err != nil {
		return err
	}
	return render(report, func() string { return notifier.FormatInsights(args[0], report) })
}
