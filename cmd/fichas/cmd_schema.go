package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fichas/internal/format"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the template fields and their merge strategies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		strategy := func(field string) string {
			st, _ := app.Engine.Strategy(field)
			return string(st)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Schema: %s (%d fields)\n", app.Schema.Name(), app.Schema.Len())
		fmt.Fprintln(out, format.Schema(app.Schema, strategy, tableMode))
		return nil
	},
}
