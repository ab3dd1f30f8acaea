package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured projects and their installed versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		names := a.Projects.Names()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no projects configured")
			return nil
		}

		out := cmd.OutOrStdout()
		for _, name := range names {
			proj, err := a.Projects.Get(name)
			if err != nil {
				return err
			}
			installed := "not installed"
			if st, err := a.Store.Load(name); err == nil && st != nil {
				installed = st.InstalledVersion
			}
			fmt.Fprintf(out, "%-20s %-15s %s\n", name, installed, proj.URL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
