package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"classlaunch/internal/config"
	"classlaunch/internal/journal"
	"classlaunch/internal/launch"
	"classlaunch/internal/model"
	"classlaunch/internal/schedule"
)

func (a *app) agendaCmd() *cobra.Command {
	var day, date string
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Print a day's classes with their launch times",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			when, err := agendaDate(time.Now(), day, date)
			if err != nil {
				return err
			}
			return a.agenda(cmd.Context(), cmd.OutOrStdout(), when)
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "weekday to show (mon..sun); the next such day")
	cmd.Flags().StringVar(&date, "date", "", "date to show (YYYY-MM-DD)")
	cmd.MarkFlagsMutuallyExclusive("day", "date")
	return cmd
}

// agendaDate resolves --day/--date relative to now. With neither set it
// returns now.
func agendaDate(now time.Time, day, date string) (time.Time, error) {
	switch {
	case date != "":
		t, err := time.ParseInLocation("2006-01-02", date, now.Location())
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q: %w", date, err)
		}
		return t, nil
	case day != "":
		wd, err := model.ParseWeekday(day)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --day: %w", err)
		}
		diff := (int(wd) - int(now.Weekday()) + 7) % 7
		return now.AddDate(0, 0, diff), nil
	default:
		return now, nil
	}
}

func (a *app) agenda(ctx context.Context, w io.Writer, when time.Time) error {
	s := a.settings
	table, err := config.LoadTimetable(a.fs, s.Timetable)
	if err != nil {
		return err
	}

	opened := map[string]time.Time{}
	if s.Journal != "" {
		j, err := journal.Open(ctx, s.Journal)
		if err != nil {
			return err
		}
		defer j.Close()
		recs, err := j.History(ctx, model.DayKey(when))
		if err != nil {
			return err
		}
		for _, r := range recs {
			opened[r.Event] = r.FiredAt
		}
	}

	agenda := schedule.BuildAgenda(table, when)
	return writeAgenda(w, when, agenda, s.LeadTime, s.FallbackURL, opened)
}

func writeAgenda(w io.Writer, when time.Time, agenda []model.TodayOccurrence, lead time.Duration, fallback string, opened map[string]time.Time) error {
	fmt.Fprintf(w, "%s (%s)\n", model.DayKey(when), when.Weekday())
	if len(agenda) == 0 {
		fmt.Fprintln(w, "No classes.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tOPENS\tCLASS\tLINK\tSTATUS")
	for _, occ := range agenda {
		link := occ.Resource
		if link == "" {
			link = launch.FallbackLocator(fallback, occ.Name, occ.FireAt.Hour(), occ.FireAt.Minute())
		}
		status := "-"
		if at, ok := opened[occ.Name]; ok {
			status = "opened " + at.Format("15:04")
		}
		opens := occ.FireAt.Add(-lead)
		fmt.Fprintf(tw, "%s\t%d:%02d\t%s\t%s\t%s\n", occ.Clock(), opens.Hour(), opens.Minute(), occ.Name, link, status)
	}
	return tw.Flush()
}
