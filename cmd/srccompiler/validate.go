package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Lint the configuration and exit",
		Long: `Load the configuration with environment overrides applied and report
every issue. Exits non-zero when an error-severity issue is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid: %s (%d files, store %s)\n",
				opts.configPath, len(cfg.Files), cfg.Store.Kind)
			return nil
		},
	}
}
