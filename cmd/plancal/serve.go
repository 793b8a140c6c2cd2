package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"plancal/internal/config"
	appLog "plancal/internal/log"
	"plancal/internal/planner"
	"plancal/internal/refresh"
	"plancal/internal/taskfile"
	"plancal/internal/web"
)

func newServeCommand(logLevel *string) *cobra.Command {
	var (
		configPath string
		listen     string
		tasksPath  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with periodic re-optimization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config %s: %w", configPath, err)
			}

			// CLI flags override the config file when provided.
			if listen != "" {
				conf.Listen = listen
			}
			if tasksPath != "" {
				conf.TasksFile = tasksPath
			}
			if *logLevel == "" {
				lvl, err := appLog.ParseLevel(conf.LogLevel)
				if err != nil {
					return err
				}
				appLog.SetLevel(lvl)
			}

			opts, err := conf.Planner()
			if err != nil {
				return err
			}

			appLog.Info("plancal starting", "version", version)
			appLog.Info("effective config",
				"listen", conf.Listen,
				"timezone", opts.Location.String(),
				"work_start", opts.WorkStart.String(),
				"work_end", opts.WorkEnd.String(),
				"slot", opts.Slot,
				"horizon_days", opts.HorizonDays,
				"refresh", conf.RefreshCron,
				"tasks_file", conf.TasksFile,
			)

			sched := planner.New(opts)
			if conf.TasksFile != "" {
				f, err := taskfile.Load(conf.TasksFile)
				if err != nil {
					return err
				}
				if _, err := f.Apply(sched); err != nil {
					return err
				}
			}

			runner, err := refresh.New(conf.RefreshCron, opts.Location, sched)
			if err != nil {
				return err
			}
			runner.RunNow()

			// Root context with cancellation on SIGINT/SIGTERM.
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			go func() {
				select {
				case sig := <-sigCh:
					appLog.Info("signal received, shutting down", "signal", sig.String())
					cancel()
				case <-ctx.Done():
				}
			}()

			runner.Start()
			serveErr := web.NewServer(conf, sched).ListenAndServe(ctx)
			cancel()

			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			runner.Stop(stopCtx)

			appLog.Info("plancal exiting")
			return serveErr
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "/etc/plancal/config.yaml", "Path to config file")
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	cmd.Flags().StringVar(&tasksPath, "tasks", "", "YAML task file to seed at start (overrides config if set)")
	return cmd
}
