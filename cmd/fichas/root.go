// fichas fuses per-chunk extractions of a public-aid document into one ficha
// and checks it against the template and the domain rules.
//
// Usage:
//
//	fichas fuse --dir=<chunks> --base=<name> [-o <record.json>] [--save]
//	fichas verify <record.json>
//	fichas score <record.json> [--strict]
//	fichas schema
//	fichas runs [--base=<name>] | fichas runs show <id>
//	fichas serve
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fichas/internal/config"
	"fichas/internal/format"
	"fichas/internal/logging"
	"fichas/internal/wiring"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	config    string
	db        string
	logLevel  string
	logFormat string
	format    string
}

// Set by setup before any subcommand runs.
var (
	app       *wiring.Runtime
	tableMode format.Mode
)

var rootCmd = &cobra.Command{
	Use:   "fichas",
	Short: "Fuse and validate public-aid fichas",
	Long: "fichas reconciles the partial JSON extractions produced per text chunk\n" +
		"into one canonical ficha, completes mandatory boilerplate, and reports\n" +
		"schema problems and rule-based quality scores.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.config, "config", "", "Config file (YAML or JSON)")
	f.StringVar(&rootFlags.db, "db", "", "Run store DB path (overrides config)")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	f.StringVar(&rootFlags.logFormat, "log-format", "", "Log format: text or json (overrides config)")
	f.StringVar(&rootFlags.format, "format", "table", "Table format: table or markdown")

	rootCmd.AddCommand(fuseCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if rootFlags.config != "" {
		c, err := config.LoadFromPath(rootFlags.config)
		if err != nil {
			return err
		}
		cfg = c
	}
	if rootFlags.db != "" {
		cfg.DB = rootFlags.db
	}
	if rootFlags.logLevel != "" {
		cfg.Log.Level = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		cfg.Log.Format = rootFlags.logFormat
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logging.Init(level, cfg.Log.Format, cmd.ErrOrStderr())

	mode, err := format.ParseMode(rootFlags.format)
	if err != nil {
		return err
	}
	tableMode = mode

	rt, err := wiring.Build(cfg)
	if err != nil {
		return err
	}
	app = rt
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
