package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/temcen/vendex/pkg/models"
)

func newProfilesCommand(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the configured weight profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := root.engine()
			if err != nil {
				return err
			}

			profiles := engine.Profiles()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), profiles, true)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PROFILE\tDEFAULT\tEFFECTIVE WEIGHTS\tDESCRIPTION")
			for _, p := range profiles {
				isDefault := ""
				if p.Default {
					isDefault = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, isDefault, formatWeights(p.Effective), p.Description)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print profiles as JSON")
	return cmd
}

func formatWeights(weights map[models.Criterion]float64) string {
	parts := make([]string, 0, len(models.Criteria))
	for _, c := range models.Criteria {
		if w := weights[c]; w > 0 {
			parts = append(parts, fmt.Sprintf("%s=%.1f", c, w))
		}
	}
	return strings.Join(parts, " ")
}
