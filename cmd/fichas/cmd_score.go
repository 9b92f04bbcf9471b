package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fichas/internal/format"
)

var scoreFlags struct {
	strict bool
}

var scoreCmd = &cobra.Command{
	Use:   "score <record.json|->",
	Short: "Score a ficha with the domain rule battery",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreFlags.strict, "strict", false, "Fail when the score is below the configured threshold")
}

func runScore(cmd *cobra.Command, args []string) error {
	rec, err := readRecord(args[0])
	if err != nil {
		return err
	}
	rep := app.Scorer.Score(rec)
	fmt.Fprintln(cmd.OutOrStdout(), format.Report(rep, tableMode))
	if scoreFlags.strict && !rep.Passed(app.Config.Threshold) {
		return fmt.Errorf("score %.2f below threshold %.2f", rep.Score, app.Config.Threshold)
	}
	return nil
}
