package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"supportflow/internal/api"
	"supportflow/internal/workflow"
)

func newStagesCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stages",
		Short: "List the stage catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalog, err := workflow.LoadCatalog(cfg)
			if err != nil {
				return err
			}
			listing := api.FromCatalog(catalog)
			if jsonOut {
				return writeJSON(cmd, listing)
			}

			rows := make([][]string, 0, len(listing.Stages))
			for _, s := range listing.Stages {
				name := stageLabel(s.Name)
				if s.Entry {
					name += " (entry)"
				}
				next := stageLabel(s.Next)
				if s.Terminal {
					next = "end"
				}
				branch := "-"
				if s.Condition != "" {
					branch = fmt.Sprintf("%s, else %s", s.Condition, stageLabel(s.Otherwise))
				}
				rows = append(rows, []string{
					name,
					s.Mode,
					strings.Join(s.Abilities, ", "),
					s.Provider,
					next,
					branch,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable("",
				[]string{"Stage", "Mode", "Abilities", "Provider", "Next", "Condition"},
				rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	return cmd
}
