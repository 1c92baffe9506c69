package main

import (
	"github.com/spf13/cobra"

	"FinSight/internal/notifier"
	"FinSight/internal/registry"
)

var trainCmd = &cobra.Command{
	Use:   "train [user]",
	Short: "Train and save the models of a user, or of the whole cohort when no user is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	key := registry.CohortKey
	if len(args) == 1 {
		key = args[0]
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.registry.Train(cmd.Context(), key)
	if err != nil {
		return err
	}
	return render(summary, func() string { return notifier.FormatTrainingSummary(registry.DisplayName(key), summary) })
}
