// Package cli implements the ironlog-device command tree.
package cli

import (
	"github.com/meltforce/ironlog/internal/config"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	EnvFile    string
	Verbose    bool
	Version    string
}

// NewRootCommand creates the root command for ironlog-device.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{Version: version}

	cmd := &cobra.Command{
		Use:           "ironlog-device",
		Short:         "ironlog on-device runtime",
		Long:          "Log workouts, get weight suggestions and sync training history with an ironlog server.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(opts.EnvFile)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to device config file (optional; IRONLOG_DEVICE_* env vars also apply)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before the config")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewDaemonCommand(opts))
	cmd.AddCommand(NewWorkoutCommand(opts))
	cmd.AddCommand(NewSuggestCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewMCPCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}
