package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"classlaunch/internal/config"
	appLog "classlaunch/internal/log"
)

const version = "0.3.0"

// app carries what every subcommand needs.
type app struct {
	v        *viper.Viper
	fs       afero.Fs
	cfgFile  string
	settings *config.Settings
}

func main() {
	a := &app{v: config.NewViper(), fs: afero.NewOsFs()}
	root := a.rootCmd()

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := root.ExecuteContext(ctx); err != nil {
		var ce *config.ConfigError
		if errors.As(err, &ce) {
			appLog.Error("invalid configuration", err)
			fmt.Fprintln(os.Stderr, "classlaunch: cannot start with this configuration:", err)
		} else {
			appLog.Error("classlaunch failed", err)
		}
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "classlaunch",
		Short: "Open class links a few minutes before each class starts",
		Long: `classlaunch reads a weekly timetable and, while running, opens each
class's link a fixed lead time before it starts. Every class opens at most
once per day.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadSettings()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "settings file (YAML); optional")
	pf.String("timetable", config.DefaultTimetablePath, "timetable file (YAML or JSON)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	_ = a.v.BindPFlag("timetable", pf.Lookup("timetable"))
	_ = a.v.BindPFlag("log_level", pf.Lookup("log-level"))

	run := a.runCmd()
	root.RunE = run.RunE
	root.Flags().AddFlagSet(run.Flags())

	root.AddCommand(run, a.agendaCmd(), a.exportCmd(), a.importCmd())
	return root
}

func (a *app) loadSettings() error {
	s, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	appLog.SetLevel(appLog.ParseLevel(s.LogLevel))
	a.settings = s
	return nil
}
