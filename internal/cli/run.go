package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"datalake/internal/config"
	"datalake/internal/logging"
	"datalake/internal/pipeline"
)

type runFlags struct {
	kind       string
	dsn        string
	songplayID string
	timezone   string
	workers    int
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the job: read raw data, derive the star schema, write all tables",
		Long: `Run reads song_data and log_data from the input location, derives the
songs, artists, users, time and songplays tables and replaces them in the
configured output. Tables are written in that order; a failure stops the run.

Example:
  datalake run --input s3a://udacity-dend/ --output s3://my-lake/sparkify
  datalake run --input ./data --output-kind sqlite --dsn ./sparkify.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, a.cfg, f)
		},
	}
	cmd.Flags().StringVar(&f.kind, "output-kind", "", "output kind: lake, postgres, sqlite, mysql, mssql")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "database DSN for SQL output kinds")
	cmd.Flags().StringVar(&f.songplayID, "songplay-id", "", "songplay id generator: sequence or uuidv7")
	cmd.Flags().StringVar(&f.timezone, "timezone", "", "timezone for time table derivation (default UTC)")
	cmd.Flags().IntVar(&f.workers, "read-workers", 0, "files decoded concurrently per dataset")
	return cmd
}

func (f *runFlags) apply(cfg *config.Config) {
	if f.kind != "" {
		cfg.Output.Kind = f.kind
	}
	if f.dsn != "" {
		cfg.Output.DSN = f.dsn
	}
	if f.songplayID != "" {
		cfg.Transform.SongplayID = f.songplayID
	}
	if f.timezone != "" {
		cfg.Transform.Timezone = f.timezone
	}
	if f.workers > 0 {
		cfg.Runtime.ReadWorkers = f.workers
	}
}

func runRun(cmd *cobra.Command, cfg *config.Config, f *runFlags) error {
	f.apply(cfg)

	for _, iss := range config.Validate(cfg) {
		if iss.Severity == config.SeverityWarning {
			logging.Warn().Str("path", iss.Path).Msg(iss.Message)
		}
	}

	flush, err := setupMetrics(cfg)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.FromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	logging.Info().
		Str("job", cfg.Job).
		Str("input", cfg.Input.Base).
		Str("output_kind", cfg.Output.Kind).
		Msg("starting run")

	res, err := p.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("run interrupted: %w", err)
		}
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS\tPARTITIONS\tELAPSED")
	for _, t := range res.Tables {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", t.Name, t.Rows, t.Partitions, t.Elapsed.Round(time.Millisecond))
	}
	return tw.Flush()
}

// cmdContext returns the command context, or Background when run outside
// Execute.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
