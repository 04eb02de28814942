package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/metalagman/preserve/internal/logging"
	"github.com/spf13/cobra"
)

const stateDirName = ".preserve"

var defaultConfigPath = filepath.Join(stateDirName, "config.json")

type rootOptions struct {
	configPath string
	debug      bool
	logFormat  string
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "preserve",
		Short:         "preserve checks that minimized programs keep their original diagnostic",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadDotEnv(".env"); err != nil {
				return err
			}
			logging.InitWriter(cmd.ErrOrStderr(), opts.debug, opts.logFormat)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", logging.FormatConsole, "log format: console or json")

	cmd.AddCommand(initCmd(opts))
	cmd.AddCommand(runCmd(opts))
	cmd.AddCommand(checkCmd(opts))
	cmd.AddCommand(reportCmd(opts))
	cmd.AddCommand(runsCmd(opts))
	cmd.AddCommand(locCmd(opts))
	cmd.AddCommand(serveCmd(opts))
	return cmd
}

// loadDotEnv loads path into the environment when it exists. Variables that
// are already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
}
