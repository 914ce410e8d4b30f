package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"datalake/internal/blob/store"
	"datalake/internal/datagen"
)

func newGenCmd(a *app) *cobra.Command {
	c := datagen.DefaultConfig()
	var (
		to    string
		start string
	)
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Write a synthetic song catalog and event log",
		Long: `Gen writes song_data and log_data in the layout run expects, so the job
can be exercised without the original datasets.

Example:
  datalake gen --to ./data --songs 500 --days 30
  datalake run --input ./data --output ./lake`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				to = a.cfg.Input.Base
			}
			if to == "" {
				return fmt.Errorf("gen: --to or --input is required")
			}
			if start != "" {
				t, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("gen: --start: %w", err)
				}
				c.Start = t
			}

			b, err := store.Open(to, a.cfg.S3())
			if err != nil {
				return err
			}
			sum, err := datagen.Generate(cmdContext(cmd), b, c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"wrote %d song files and %d log files (%d events, %d plays, %d matching the catalog) to %s\n",
				sum.SongFiles, sum.LogFiles, sum.Events, sum.Plays, sum.MatchedPlays, b)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&to, "to", "", "destination location (default: configured input base)")
	fl.StringVar(&start, "start", "", "first log day, YYYY-MM-DD (default 2018-11-01)")
	fl.IntVar(&c.Songs, "songs", c.Songs, "catalog tracks")
	fl.IntVar(&c.Artists, "artists", c.Artists, "catalog artists")
	fl.IntVar(&c.Users, "users", c.Users, "distinct users")
	fl.IntVar(&c.Days, "days", c.Days, "log files, one per day")
	fl.IntVar(&c.EventsPerDay, "events-per-day", c.EventsPerDay, "events per log file")
	fl.Float64Var(&c.PlayRatio, "play-ratio", c.PlayRatio, "fraction of events that are plays")
	fl.Float64Var(&c.MissRatio, "miss-ratio", c.MissRatio, "fraction of plays not in the catalog")
	fl.Uint64Var(&c.Seed, "seed", c.Seed, "random seed; 0 picks one")
	return cmd
}
