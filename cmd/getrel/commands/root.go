// Package commands implements the getrel CLI.
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/3leaps/getrel/internal/app"
	"github.com/3leaps/getrel/internal/log"
)

// Global flags.
var (
	verbose bool
	quiet   bool
	noInput bool
)

var rootCmd = &cobra.Command{
	Use:   "getrel",
	Short: "Install and update software releases",
	Long: `getrel locates, downloads and installs software releases published on
GitHub or plain download pages, and keeps track of what it installed so
updates are a single command.

Quick start:
  getrel install acme/tool --match 'tool-{os}-{arch}.tar.gz'
  getrel check
  getrel update --all`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Configure(log.Options{Verbose: verbose, Quiet: quiet})
	},
}

// Execute runs the root command with signal handling.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return rootCmd.ExecuteContext(ctx)
}

// newApp builds the pipeline, wiring the interactive asset chooser unless
// --no-input asked for unattended behavior.
func newApp() (*app.App, error) {
	a, err := app.New()
	if err != nil {
		return nil, err
	}
	if !noInput {
		a.ChooseAsset = promptAsset(os.Stdin, os.Stderr)
	}
	return a, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noInput, "no-input", false, "Never prompt; fail instead of asking")
}
