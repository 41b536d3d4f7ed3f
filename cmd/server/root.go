package main

import (
	"github.com/spf13/cobra"

	"photoshare/backend/internal/config"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

// NewRootCmd creates the root command for the photoshare CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photoshare",
		Short: "Photo sharing API server",
		Long: `photoshare serves the REST API of a photo sharing service: accounts,
profiles and a shared feed of photo cards that users can like.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded into the environment")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

func configOptions(cmd *cobra.Command) config.Options {
	return config.Options{
		ConfigFile: configFile,
		DotEnv:     envFile,
		Flags:      cmd.Flags(),
	}
}
