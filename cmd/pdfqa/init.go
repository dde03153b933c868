package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pdf-qa-rag/internal/config"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(opts.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite it", opts.configPath)
			}
			if err := config.Save(opts.configPath, config.Default()); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			cmd.Printf("Wrote default configuration to %s\n", opts.configPath)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}
