package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"datalake/internal/config"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Lint the configuration and exit",
		Long: `Validate loads the configuration exactly as run would, prints every
issue found and exits non-zero when any of them is an error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			issues := config.Validate(a.cfg)
			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintln(out, "config OK")
				return nil
			}
			for _, iss := range issues {
				fmt.Fprintf(out, "%-7s %s: %s\n", iss.Severity, iss.Path, iss.Message)
			}
			if config.HasErrors(issues) {
				return errors.New("configuration has errors")
			}
			return nil
		},
	}
}
