package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classlaunch/internal/config"
	"classlaunch/internal/model"
)

func TestAgendaDate(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) // Monday

	got, err := agendaDate(now, "", "")
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = agendaDate(now, "mon", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19", model.DayKey(got))

	got, err = agendaDate(now, "Sun", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-25", model.DayKey(got))

	got, err = agendaDate(now, "", "2026-10-21")
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, got.Weekday())

	_, err = agendaDate(now, "someday", "")
	assert.Error(t, err)
	_, err = agendaDate(now, "", "21/10/2026")
	assert.Error(t, err)
}

func TestWriteAgenda(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	agenda := []model.TodayOccurrence{
		{Name: "Mathematics", FireAt: day.Add(9 * time.Hour)},
		{Name: "Physics", Resource: "https://meet.example/phys", FireAt: day.Add(10 * time.Hour)},
	}
	opened := map[string]time.Time{"Mathematics": day.Add(8*time.Hour + 55*time.Minute)}

	var buf bytes.Buffer
	require.NoError(t, writeAgenda(&buf, day, agenda, 5*time.Minute, "https://alarm.example/", opened))

	out := buf.String()
	assert.Contains(t, out, "2026-10-19 (Monday)")
	assert.Contains(t, out, "8:55")
	assert.Contains(t, out, "https://alarm.example/?className=Mathematics&timing=9:00")
	assert.Contains(t, out, "opened 08:55")
	assert.Contains(t, out, "https://meet.example/phys")
}

func TestWriteAgendaEmpty(t *testing.T) {
	var buf bytes.Buffer
	day := time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC)
	require.NoError(t, writeAgenda(&buf, day, nil, 5*time.Minute, "", nil))
	assert.Contains(t, buf.String(), "No classes.")
}

func newTestApp(t *testing.T) (*app, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	a := &app{v: config.NewViper(), fs: fs}
	return a, fs
}

func TestExportImportCommands(t *testing.T) {
	a, fs := newTestApp(t)
	require.NoError(t, config.SaveTimetable(fs, "tt.yaml", config.DefaultTimetable()))

	root := a.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"export-ics", "--timetable", "tt.yaml", "-o", "class.ics"})
	require.NoError(t, root.Execute())

	body, err := afero.ReadFile(fs, "class.ics")
	require.NoError(t, err)
	assert.Contains(t, string(body), "SUMMARY:Physics")

	// Refuses to overwrite without --force.
	a2 := &app{v: config.NewViper(), fs: fs}
	root = a2.rootCmd()
	root.SetArgs([]string{"import-ics", "--timetable", "tt.yaml", "class.ics"})
	assert.Error(t, root.Execute())

	a3 := &app{v: config.NewViper(), fs: fs}
	root = a3.rootCmd()
	root.SetArgs([]string{"import-ics", "--timetable", "copy.yaml", "class.ics"})
	require.NoError(t, root.Execute())

	got, err := config.LoadTimetable(fs, "copy.yaml")
	require.NoError(t, err)
	assert.ElementsMatch(t, config.DefaultTimetable().Names(), got.Names())
	phys, ok := got.Lookup("Physics")
	require.True(t, ok)
	assert.Equal(t, "https://meet.google.com/", phys.Resource)
	assert.Len(t, phys.Occurrences, 2)
}
