// Package cli implements the datalake command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"datalake/internal/config"
	"datalake/internal/logging"
	"datalake/pkg/version"
)

// app carries global flags and the loaded configuration into subcommands.
type app struct {
	cfgFile  string
	envFile  string
	logLevel string
	input    string
	output   string

	cfg *config.Config
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "datalake",
		Short: "Build a song-play star schema from raw JSON logs",
		Long: `datalake reads a song catalog and a usage event log stored as JSON files
(locally or on S3), derives the songs, artists, users, time and songplays
tables, and writes them as partitioned Parquet files or into a SQL database.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "",
		"config file (default: ./datalake.yaml)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env",
		"dotenv file with DATALAKE_* overrides; ignored when missing")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.input, "input", "",
		"input base location (directory or s3:// prefix)")
	root.PersistentFlags().StringVar(&a.output, "output", "",
		"output base location for the lake sink")

	root.AddCommand(
		newRunCmd(a),
		newValidateCmd(a),
		newGenCmd(a),
		newInspectCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) initConfig() error {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: a.cfgFile, EnvFile: a.envFile})
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.input != "" {
		cfg.Input.Base = a.input
	}
	if a.output != "" {
		cfg.Output.Base = a.output
	}
	a.cfg = cfg

	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.Info())
		},
	}
}
