package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fichas/internal/format"
	"fichas/internal/pipeline"
)

var fuseFlags struct {
	dir    string
	base   string
	out    string
	save   bool
	gate   bool
	strict bool
}

var fuseCmd = &cobra.Command{
	Use:   "fuse",
	Short: "Fuse the <base>_parte<N>.json chunk responses of one document",
	Long: `Loads every <base>_parte<N>.json file in --dir, fuses the partials into one
ficha, completes mandatory boilerplate, and prints the record as JSON.
The quality report and schema problems go to stderr.`,
	RunE: runFuse,
}

func init() {
	f := fuseCmd.Flags()
	f.StringVar(&fuseFlags.dir, "dir", ".", "Directory holding the chunk responses")
	f.StringVar(&fuseFlags.base, "base", "", "Document base name (required)")
	f.StringVarP(&fuseFlags.out, "output", "o", "", "Write the fused record here instead of stdout")
	f.BoolVar(&fuseFlags.save, "save", false, "Store the run in the run DB")
	f.BoolVar(&fuseFlags.gate, "gate", false, "Withhold partial fields that fail their rule (overrides config)")
	f.BoolVar(&fuseFlags.strict, "strict", false, "Fail when the score is below the configured threshold")

	_ = fuseCmd.MarkFlagRequired("base")
}

func runFuse(cmd *cobra.Command, _ []string) error {
	chunks, err := pipeline.LoadChunks(cmd.Context(), fuseFlags.dir, fuseFlags.base, app.Config.Parallel)
	if err != nil {
		return err
	}
	in := app.Input()
	if cmd.Flags().Changed("gate") {
		in.Gate = fuseFlags.gate
	}
	res, err := pipeline.Run(cmd.Context(), in, chunks)
	if err != nil {
		return err
	}

	if fuseFlags.out != "" {
		f, err := os.Create(fuseFlags.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		if err := writeJSONClose(f, res.Record); err != nil {
			return fmt.Errorf("write record %s: %w", fuseFlags.out, err)
		}
	} else if err := writeJSON(cmd.OutOrStdout(), res.Record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	diag := cmd.ErrOrStderr()
	fmt.Fprintf(diag, "Chunks: %d (%d excluded)\n", len(chunks), len(res.Excluded))
	for _, x := range res.Excluded {
		fmt.Fprintf(diag, "  excluded %s: %s\n", x.Chunk, format.Truncate(x.Reason, 80))
	}
	fmt.Fprintln(diag, format.Report(res.Report, tableMode))
	if len(res.Problems) > 0 {
		fmt.Fprintln(diag, format.Problems(res.Problems, tableMode))
	}

	if fuseFlags.save {
		st, err := app.OpenStore()
		if err != nil {
			return err
		}
		defer st.Close()
		run, err := res.ToRun(fuseFlags.base, app.Schema.Name())
		if err != nil {
			return err
		}
		id, err := st.SaveRun(run)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		fmt.Fprintf(diag, "Saved run %s\n", id)
	}

	if fuseFlags.strict && !res.Report.Passed(app.Config.Threshold) {
		return fmt.Errorf("score %.2f below threshold %.2f", res.Report.Score, app.Config.Threshold)
	}
	return nil
}
