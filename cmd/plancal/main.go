package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appLog "plancal/internal/log"
)

// version is set at build time using -ldflags.
var version = "0.1.0-dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "plancal",
		Short: "Personal task-to-calendar scheduler",
		Long: `plancal turns a list of tasks (deadline, duration, priority, optional
fixed start and repeat rule) into a calendar of time blocks inside your
working hours.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if logLevel == "" {
				return nil
			}
			lvl, err := appLog.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			appLog.SetLevel(lvl)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")

	root.AddCommand(newServeCommand(&logLevel))
	root.AddCommand(newPlanCommand())
	return root
}
