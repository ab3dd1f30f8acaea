package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeKeepConfig bool

var removeCmd = &cobra.Command{
	Use:   "remove <project>",
	Short: "Remove a project's installed files, links and state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		name := args[0]
		if _, err := a.Projects.Get(name); err != nil {
			return err
		}
		if err := a.Remove(name); err != nil {
			return err
		}
		if !removeKeepConfig {
			a.Projects.Delete(name)
			if err := a.Projects.Save(); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s removed\n", name)
		return nil
	},
	Args: cobra.ExactArgs(1),
}

func init() {
	removeCmd.Flags().BoolVar(&removeKeepConfig, "keep-config", false, "Keep the projects.toml entry")
	rootCmd.AddCommand(removeCmd)
}
