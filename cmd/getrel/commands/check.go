package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/3leaps/getrel/pkg/reconcile"
)

var checkCmd = &cobra.Command{
	Use:   "check [project...]",
	Short: "Check for available updates without installing anything",
	Long: `Check reconciles each project's installed state against the source and
reports what an update run would do. Nothing is downloaded or modified
apart from refreshed cache validators.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		names := args
		if len(names) == 0 {
			names = a.Projects.Names()
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no projects configured")
			return nil
		}

		out := cmd.OutOrStdout()
		failures := 0
		for _, name := range names {
			res, err := a.Check(cmd.Context(), name)
			if err != nil {
				failures++
				fmt.Fprintf(out, "%-20s failed: %v\n", name, err)
				continue
			}
			switch res.Plan.Action {
			case reconcile.ActionNone:
				version := ""
				if res.State != nil {
					version = " (" + res.State.InstalledVersion + ")"
				}
				fmt.Fprintf(out, "%-20s up to date%s\n", name, version)
			case reconcile.ActionUpdate:
				from := "not installed"
				if res.State != nil && res.State.InstalledVersion != "" {
					from = res.State.InstalledVersion
				}
				fmt.Fprintf(out, "%-20s %s -> %s\n", name, from, res.Plan.Release.Version)
			default:
				failures++
				fmt.Fprintf(out, "%-20s failed: %v\n", name, res.Plan.Reason)
			}
		}
		if failures > 0 {
			return fmt.Errorf("%d of %d projects failed", failures, len(names))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
