package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fichas/internal/format"
)

var runsFlags struct {
	base string
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored fusion runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.Flags().StringVar(&runsFlags.base, "base", "", "Only runs for this document base name")
	runsCmd.AddCommand(runsShowCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	st, err := app.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()
	runs, err := st.ListRuns(runsFlags.base)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs stored.")
		return nil
	}
	fmt.Fprintln(out, format.Runs(runs, tableMode))
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	st, err := app.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()
	run, err := st.GetRun(args[0])
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), run)
}
