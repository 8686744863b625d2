package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackwatch/internal/output"
)

var lifecycleWeek string

var lifecycleCmd = &cobra.Command{
	Use:   "lifecycle",
	Short: "Sentiment by trainee stage",
	Long: `Break a week's sentiment down by trainee lifecycle stage: new
joiners, intermediate trainees and those about to graduate.

Examples:
  feedbackwatch lifecycle --week 2025-03-03`,
	RunE: runLifecycle,
}

func init() {
	lifecycleCmd.Flags().StringVar(&lifecycleWeek, "week", "", "Week start date, YYYY-MM-DD (default: current week)")
	rootCmd.AddCommand(lifecycleCmd)
}

func runLifecycle(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(true)
	if err != nil {
		return err
	}
	defer e.close()

	svc, err := e.service()
	if err != nil {
		return err
	}
	w, err := parseWeek(lifecycleWeek)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stages, err := svc.Lifecycle(ctx, w)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return output.WriteJSON(out, stages)
	}

	fmt.Fprintln(out, output.Section("Lifecycle: "+w.Label()))
	fmt.Fprintln(out)
	tbl := output.NewTable("Stage", "Sentiment", "Positive", "Negative", "Volume")
	for _, s := range stages {
		tbl.AddRow(s.Stage.String(), output.DistributionBar(s.Distribution, 20),
			fmt.Sprintf("%.0f%%", s.Positive), fmt.Sprintf("%.0f%%", s.Negative), fmt.Sprint(s.Volume))
	}
	tbl.Fprint(out)
	return nil
}
