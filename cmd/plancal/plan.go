package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"plancal/internal/config"
	"plancal/internal/model"
	"plancal/internal/planner"
	"plancal/internal/taskfile"
)

func newPlanCommand() *cobra.Command {
	var opts struct {
		ConfigPath string
		TasksPath  string
		Day        string
		Today      string
	}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a task file once and print the agenda",
		Long: `Plan loads a YAML task file, runs one optimize pass and prints the
resulting blocks as a table. With --day only that date is printed.`,
		Example: `  plancal plan --tasks tasks.yaml
  plancal plan --tasks tasks.yaml --day 2026-01-20 --today 2026-01-15`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := config.DefaultConfig()
			if opts.ConfigPath != "" {
				loaded, err := config.Load(opts.ConfigPath)
				if err != nil {
					return fmt.Errorf("load config %s: %w", opts.ConfigPath, err)
				}
				conf = loaded
			}
			po, err := conf.Planner()
			if err != nil {
				return err
			}

			var schedOpts []planner.Option
			if opts.Today != "" {
				today, err := time.ParseInLocation(model.DateLayout, opts.Today, po.Location)
				if err != nil {
					return fmt.Errorf("--today: %w %q", planner.ErrInvalidDate, opts.Today)
				}
				schedOpts = append(schedOpts, planner.WithClock(planner.FixedClock(today)))
			}
			sched := planner.New(po, schedOpts...)

			f, err := taskfile.Load(opts.TasksPath)
			if err != nil {
				return err
			}
			if _, err := f.Apply(sched); err != nil {
				return err
			}
			rep := sched.Optimize()

			blocks := sched.AgendaAll()
			if opts.Day != "" {
				day, err := time.ParseInLocation(model.DateLayout, opts.Day, po.Location)
				if err != nil {
					return fmt.Errorf("--day: %w %q", planner.ErrInvalidDate, opts.Day)
				}
				blocks = sched.AgendaFor(day)
			}
			return printPlan(cmd.OutOrStdout(), blocks, rep)
		},
	}

	cmd.Flags().StringVar(&opts.TasksPath, "tasks", "", "YAML task file")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Config file for working hours, slot and horizon (defaults if unset)")
	cmd.Flags().StringVar(&opts.Day, "day", "", "Only print blocks on this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Today, "today", "", "Plan as if today were this date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("tasks")
	return cmd
}

func printPlan(out io.Writer, blocks []model.ScheduledBlock, rep planner.Report) error {
	if len(blocks) == 0 {
		_, _ = fmt.Fprintln(out, "No blocks scheduled.")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "DATE\tSTART\tEND\tTASK\tTITLE\tFIXED")
		for _, b := range blocks {
			fixed := ""
			if b.Fixed {
				fixed = "yes"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				b.Start.Format(model.DateLayout),
				b.Start.Format("15:04"),
				b.End.Format("15:04"),
				b.TaskID,
				b.Title,
				fixed,
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(rep.Shortfalls) > 0 {
		_, _ = fmt.Fprintln(out, "\nNot fully scheduled:")
		for _, sf := range rep.Shortfalls {
			_, _ = fmt.Fprintf(out, "  - %d %s (due %s): %s missing\n",
				sf.TaskID, sf.Title, sf.Deadline.Format(model.DateLayout), sf.Missing)
		}
	}
	if len(rep.Conflicts) > 0 {
		_, _ = fmt.Fprintln(out, "\nConflicts:")
		for _, c := range rep.Conflicts {
			_, _ = fmt.Fprintf(out, "  - %s\n", c)
		}
	}
	return nil
}
