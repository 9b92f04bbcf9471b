package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fichas/internal/conform"
	"fichas/internal/format"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <record.json|->",
	Short: "Check a ficha against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	rec, err := readRecord(args[0])
	if err != nil {
		return err
	}
	problems := conform.Verify(app.Schema, rec)
	out := cmd.OutOrStdout()
	if len(problems) == 0 {
		fmt.Fprintln(out, "OK")
		return nil
	}
	fmt.Fprintln(out, format.Problems(problems, tableMode))
	return fmt.Errorf("%d schema problems", len(problems))
}
