package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <project>",
	Short: "Show a project's configuration and installed state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		name := args[0]
		proj, err := a.Projects.Get(name)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "project:  %s\n", name)
		fmt.Fprintf(out, "url:      %s\n", proj.URL)
		if proj.Source != "" {
			fmt.Fprintf(out, "source:   %s\n", proj.Source)
		}
		release := proj.Release
		if release == "" {
			release = "latest"
		}
		fmt.Fprintf(out, "release:  %s\n", release)
		fmt.Fprintf(out, "match:    %s\n", proj.Match)

		st, err := a.Store.Load(name)
		if err != nil {
			return err
		}
		if st == nil {
			fmt.Fprintln(out, "state:    not installed")
			return nil
		}
		fmt.Fprintf(out, "version:  %s\n", st.InstalledVersion)
		fmt.Fprintf(out, "dir:      %s\n", st.InstallDir)
		if !st.LastCheck.IsZero() {
			fmt.Fprintf(out, "checked:  %s\n", st.LastCheck.Format("2006-01-02 15:04:05 MST"))
		}
		for _, f := range st.InstalledFiles {
			fmt.Fprintf(out, "  file:   %s\n", f)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
