package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"srccompiler/internal/config"
	"srccompiler/internal/logging"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "srccompiler",
		Short: "Compile heterogeneous extracts into canonical landing tables",
		Long: `srccompiler reads CSV, XLSX and PDF extracts, maps their headers to
canonical fields, quarantines rows that miss required fields and appends the
rest to the configured landing tables.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (.yaml, .yml or .json)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose (debug) logging")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newValidateCmd(opts))
	root.AddCommand(newProbeCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig loads and lints the configuration. Warnings are printed to w;
// error-severity issues fail.
func loadConfig(cmd *cobra.Command, opts *rootOptions, w io.Writer) (*config.Config, error) {
	if opts.configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(opts.configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	issues := config.Validate(*cfg)
	for _, iss := range issues {
		_, _ = fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if err := config.Err(issues); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(opts *rootOptions) (*zap.Logger, error) {
	return logging.New(opts.verbose)
}
