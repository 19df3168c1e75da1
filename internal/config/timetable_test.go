package config

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classlaunch/internal/model"
)

const sampleYAML = `
Math:
  link: https://meet.example.com/math
  times:
    - day: mon
      time: "10:00"
    - day: wed
      time: 9:30
Art:
  times:
    - day: Mon
      time: "08:05"
`

func TestParseTimetablePreservesOrder(t *testing.T) {
	t.Parallel()
	table, err := ParseTimetable("tt.yaml", []byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, table, 2)

	assert.Equal(t, []string{"Math", "Art"}, table.Names())
	assert.Equal(t, "https://meet.example.com/math", table[0].Resource)
	assert.Equal(t, []model.Occurrence{
		{Weekday: time.Monday, Hour: 10, Minute: 0},
		{Weekday: time.Wednesday, Hour: 9, Minute: 30},
	}, table[0].Occurrences)
	assert.Equal(t, "", table[1].Resource)
	assert.Equal(t, model.Occurrence{Weekday: time.Monday, Hour: 8, Minute: 5}, table[1].Occurrences[0])
}

func TestParseTimetableJSON(t *testing.T) {
	t.Parallel()
	body := `{
  "Chemistry": {"link": null, "times": [{"day": "fri", "time": "13:00"}]},
  "Biology": {"link": "https://lab.example.com", "times": []}
}`
	table, err := ParseTimetable("tt.json", []byte(body))
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, "Chemistry", table[0].Name)
	assert.Equal(t, "", table[0].Resource)
	assert.Equal(t, time.Friday, table[0].Occurrences[0].Weekday)
	assert.Equal(t, "https://lab.example.com", table[1].Resource)
	assert.Empty(t, table[1].Occurrences)
}

func TestParseTimetableDuplicateLastWins(t *testing.T) {
	t.Parallel()
	body := `
Math:
  times: [{day: mon, time: "10:00"}]
Art:
  times: [{day: tue, time: "11:00"}]
Math:
  link: https://second.example.com
  times: [{day: fri, time: "12:00"}]
`
	table, err := ParseTimetable("tt.yaml", []byte(body))
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, []string{"Math", "Art"}, table.Names())
	assert.Equal(t, "https://second.example.com", table[0].Resource)
	assert.Equal(t, time.Friday, table[0].Occurrences[0].Weekday)
}

func TestParseTimetableErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "empty", body: ""},
		{name: "syntax", body: "Math: [unterminated"},
		{name: "not a mapping", body: "- Math\n- Art\n"},
		{name: "event not a mapping", body: "Math: 42\n", field: "Math"},
		{name: "missing times", body: "Math:\n  link: x\n", field: "Math.times"},
		{name: "times wrong type", body: "Math:\n  times: soon\n", field: "Math"},
		{name: "missing day", body: "Math:\n  times: [{time: \"10:00\"}]\n", field: "Math.times[0].day"},
		{name: "missing time", body: "Math:\n  times: [{day: mon}]\n", field: "Math.times[0].time"},
		{name: "bad day", body: "Math:\n  times: [{day: someday, time: \"10:00\"}]\n", field: "Math.times[0].day"},
		{name: "bad time", body: "Math:\n  times: [{day: mon, time: \"25:00\"}]\n", field: "Math.times[0].time"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseTimetable("tt.yaml", []byte(tt.body))
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "tt.yaml", ce.Path)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestEnsureTimetableFirstRunRoundTrip(t *testing.T) {
	t.Parallel()
	fsys := afero.NewMemMapFs()
	path := "/home/student/.config/classlaunch/timetable.yaml"

	first, created, err := EnsureTimetable(fsys, path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, DefaultTimetable(), first)

	info, err := fsys.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, created, err := EnsureTimetable(fsys, path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)
}

func TestLoadTimetableMissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadTimetable(afero.NewMemMapFs(), "/missing.yaml")
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveTimetableQuotesAwkwardNames(t *testing.T) {
	t.Parallel()
	fsys := afero.NewMemMapFs()
	table := model.Timetable{
		{Name: "yes", Occurrences: []model.Occurrence{{Weekday: time.Sunday, Hour: 0, Minute: 0}}},
		{Name: "101", Resource: "https://x.example.com/?a=1&b=2", Occurrences: []model.Occurrence{{Weekday: time.Saturday, Hour: 23, Minute: 59}}},
	}
	require.NoError(t, SaveTimetable(fsys, "/tt.yaml", table))

	got, err := LoadTimetable(fsys, "/tt.yaml")
	require.NoError(t, err)
	assert.Equal(t, table, got)
}

func TestEnsureTimetableDefaultPathIsJSON(t *testing.T) {
	t.Parallel()
	fsys := afero.NewMemMapFs()
	assert.True(t, strings.HasSuffix(DefaultTimetablePath, ".json"))

	table, created, err := EnsureTimetable(fsys, DefaultTimetablePath)
	require.NoError(t, err)
	require.True(t, created)

	data, err := afero.ReadFile(fsys, DefaultTimetablePath)
	require.NoError(t, err)
	assert.True(t, json.Valid(data), "default timetable is written as JSON:\n%s", data)
	assert.Contains(t, string(data), `"link": "https://meet.google.com/"`)

	// Definition order survives the JSON file.
	math := strings.Index(string(data), `"Mathematics"`)
	phys := strings.Index(string(data), `"Physics"`)
	cs := strings.Index(string(data), `"Computer Science"`)
	assert.True(t, math < phys && phys < cs)

	again, err := LoadTimetable(fsys, DefaultTimetablePath)
	require.NoError(t, err)
	assert.Equal(t, table, again)
}

func TestLoadTimetableExistingJSONFile(t *testing.T) {
	t.Parallel()
	fsys := afero.NewMemMapFs()
	body := `{
  "History": {"link": null, "times": [{"day": "tue", "time": "8:00"}]},
  "Biology": {"link": "https://meet.example.com/bio?a=1&b=2", "times": [{"day": "fri", "time": "13:20"}]}
}`
	require.NoError(t, afero.WriteFile(fsys, DefaultTimetablePath, []byte(body), 0o600))

	table, created, err := EnsureTimetable(fsys, DefaultTimetablePath)
	require.NoError(t, err)
	assert.False(t, created, "an existing timetable is never replaced")
	assert.Equal(t, []string{"History", "Biology"}, table.Names())
	assert.Empty(t, table[0].Resource)
	assert.Equal(t, "https://meet.example.com/bio?a=1&b=2", table[1].Resource)

	require.NoError(t, SaveTimetable(fsys, DefaultTimetablePath, table))
	data, err := afero.ReadFile(fsys, DefaultTimetablePath)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
	assert.Contains(t, string(data), "a=1&b=2", "links are not HTML-escaped")
}
