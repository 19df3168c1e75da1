package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"classlaunch/internal/config"
	"classlaunch/internal/ics"
	appLog "classlaunch/internal/log"
)

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Write the timetable as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := config.LoadTimetable(a.fs, a.settings.Timetable)
			if err != nil {
				return err
			}
			body := ics.Export(table, ics.ExportOptions{})
			if out == "" || out == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			if err := afero.WriteFile(a.fs, out, []byte(body), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			appLog.Info("timetable exported", "path", out, "classes", len(table))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "import-ics <file.ics>",
		Short: "Replace the timetable with the weekly classes of an iCalendar file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := afero.ReadFile(a.fs, args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			classes, err := ics.ParseICS(body)
			if err != nil {
				return err
			}
			table := ics.ToTimetable(classes)
			if len(table) == 0 {
				return errors.New("no weekly classes found in " + args[0])
			}

			path := a.settings.Timetable
			if !force {
				if _, err := a.fs.Stat(path); err == nil {
					return fmt.Errorf("%s already exists; use --force to replace it", path)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}
			if err := config.SaveTimetable(a.fs, path, table); err != nil {
				return err
			}
			appLog.Info("timetable imported", "path", path, "classes", len(table))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing timetable")
	return cmd
}
