package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"classlaunch/internal/config"
	"classlaunch/internal/journal"
	"classlaunch/internal/launch"
	appLog "classlaunch/internal/log"
	"classlaunch/internal/runner"
	"classlaunch/internal/schedule"
)

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the timetable and open classes as they come up (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.Duration("lead-time", config.DefaultLeadTime, "open a class this long before it starts")
	f.Duration("poll-interval", config.DefaultPollInterval, "re-evaluation period (>= 1s)")
	f.String("launcher", config.LauncherSystem, "how to open links: system, chrome, dry-run")
	f.String("journal", "", "SQLite file remembering today's launches across restarts")
	f.String("fallback-url", config.DefaultFallbackURL, "page opened for classes without a link")
	_ = a.v.BindPFlag("lead_time", f.Lookup("lead-time"))
	_ = a.v.BindPFlag("poll_interval", f.Lookup("poll-interval"))
	_ = a.v.BindPFlag("launcher", f.Lookup("launcher"))
	_ = a.v.BindPFlag("journal", f.Lookup("journal"))
	_ = a.v.BindPFlag("fallback_url", f.Lookup("fallback-url"))
	return cmd
}

func (a *app) run(ctx context.Context) error {
	s := a.settings
	appLog.Info("classlaunch starting", "version", version)

	table, created, err := config.EnsureTimetable(a.fs, s.Timetable)
	if err != nil {
		return err
	}
	if created {
		appLog.Info("edit the timetable and restart to use your own classes", "path", s.Timetable)
	}

	appLog.Info("effective config",
		"timetable", s.Timetable,
		"classes", len(table),
		"lead_time", s.LeadTime,
		"poll_interval", s.PollInterval,
		"launcher", s.Launcher,
		"journal", s.Journal,
	)

	launcher, err := launch.New(ctx, s.Launcher)
	if err != nil {
		return err
	}
	if c, ok := launcher.(launch.Closer); ok {
		defer c.Close()
	}

	opts := schedule.Options{
		LeadTime: s.LeadTime,
		Fallback: launch.Fallback(s.FallbackURL),
	}
	if s.Journal != "" {
		j, err := journal.Open(ctx, s.Journal)
		if err != nil {
			return err
		}
		defer j.Close()
		if n, err := j.Prune(ctx, time.Now().Add(-journal.DefaultRetention)); err != nil {
			appLog.Error("journal prune failed", err)
		} else if n > 0 {
			appLog.Debug("journal pruned", "rows", n)
		}
		opts.Journal = j
	}

	sched := schedule.New(table, launcher, opts)
	return runner.New(sched, s.PollInterval).Run(ctx)
}
