package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"datalake/internal/blob/store"
	"datalake/internal/starschema"
	"datalake/internal/storage"
	"datalake/internal/storage/lake"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [table...]",
		Short: "Print per-partition row counts of lake tables",
		Long: `Inspect reads the Parquet files a lake run produced and prints one line per
partition. With no arguments every star-schema table is listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Output.Kind != "lake" {
				return fmt.Errorf("inspect: only lake output can be inspected, got %q", a.cfg.Output.Kind)
			}
			if a.cfg.Output.Base == "" {
				return fmt.Errorf("inspect: --output or output.base is required")
			}
			b, err := store.Open(a.cfg.Output.Base, a.cfg.S3())
			if err != nil {
				return err
			}

			tables := args
			if len(tables) == 0 {
				tables = starschema.Order
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TABLE\tPARTITION\tROWS")
			for _, name := range tables {
				files, err := lake.Read(cmdContext(cmd), b, name)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintf(tw, "%s\t(no data)\t0\n", name)
					continue
				}
				total := 0
				for _, f := range files {
					total += f.Table.Len()
					fmt.Fprintf(tw, "%s\t%s\t%d\n", name, partitionLabel(f.Partition), f.Table.Len())
				}
				if len(files) > 1 {
					fmt.Fprintf(tw, "%s\t(total)\t%d\n", name, total)
				}
			}
			return tw.Flush()
		},
	}
}

func partitionLabel(pv []storage.PartitionValue) string {
	if len(pv) == 0 {
		return "-"
	}
	parts := make([]string, len(pv))
	for i, p := range pv {
		v := p.Value
		if !p.Valid {
			v = "null"
		}
		parts[i] = p.Column + "=" + v
	}
	return strings.Join(parts, "/")
}
