package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/metalagman/preserve/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func initCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a preserve workspace",
		Long:  "Initialize a preserve workspace by creating the .preserve directory and installing a default config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := stateDir()
			if err != nil {
				return err
			}
			log.Info().Str("dir", dir).Msg("creating state directory")
			for _, sub := range []string{"runs", "locks"} {
				if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
					return fmt.Errorf("create %s dir: %w", sub, err)
				}
			}

			configPath := opts.configPath
			if _, err := os.Stat(configPath); err == nil {
				log.Info().Str("path", configPath).Msg("config already exists, skipping")
			} else {
				log.Info().Str("path", configPath).Msg("installing default config")
				if err := config.Save(configPath, config.Default()); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "preserve initialized successfully")
			return nil
		},
	}
}
