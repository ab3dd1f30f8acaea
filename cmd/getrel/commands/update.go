package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/3leaps/getrel/internal/log"
	"github.com/3leaps/getrel/pkg/reconcile"
)

var updateAll bool

var updateCmd = &cobra.Command{
	Use:   "update [project...]",
	Short: "Update installed projects to their selected release",
	Long: `Update runs the full pipeline for the named projects, or for every
configured project with --all. Each project succeeds or fails on its own;
one broken release never blocks the rest of the batch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		names := args
		if updateAll {
			names = a.Projects.Names()
		}
		if len(names) == 0 {
			return fmt.Errorf("nothing to update: name projects or pass --all")
		}

		out := cmd.OutOrStdout()
		failures := 0
		for _, name := range names {
			res, err := a.Apply(cmd.Context(), name)
			if err != nil {
				failures++
				log.Error("update failed", "project", name, "err", err)
				fmt.Fprintf(out, "%-20s failed: %v\n", name, err)
				continue
			}
			switch res.Plan.Action {
			case reconcile.ActionNone:
				fmt.Fprintf(out, "%-20s up to date\n", name)
			default:
				fmt.Fprintf(out, "%-20s updated to %s\n", name, res.Plan.Release.Version)
			}
		}
		if failures > 0 {
			return fmt.Errorf("%d of %d projects failed", failures, len(names))
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateAll, "all", false, "Update every configured project")
	rootCmd.AddCommand(updateCmd)
}
