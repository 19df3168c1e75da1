package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	appLog "classlaunch/internal/log"
	"classlaunch/internal/model"
)

// eventDoc is the on-disk shape of one class:
//
//	Math:
//	  link: https://meet.example.com/math
//	  times:
//	    - day: mon
//	      time: "10:00"
type eventDoc struct {
	Link  *string    `yaml:"link,omitempty" json:"link,omitempty"`
	Times *[]timeDoc `yaml:"times" json:"times"`
}

type timeDoc struct {
	Day  string `yaml:"day" json:"day"`
	Time string `yaml:"time" json:"time"`
}

// DefaultTimetable is written on first run so the user has something to edit.
func DefaultTimetable() model.Timetable {
	return model.Timetable{
		{
			Name: "Mathematics",
			Occurrences: []model.Occurrence{
				{Weekday: time.Monday, Hour: 9, Minute: 0},
				{Weekday: time.Wednesday, Hour: 9, Minute: 0},
				{Weekday: time.Friday, Hour: 11, Minute: 30},
			},
		},
		{
			Name:     "Physics",
			Resource: "https://meet.google.com/",
			Occurrences: []model.Occurrence{
				{Weekday: time.Tuesday, Hour: 10, Minute: 0},
				{Weekday: time.Thursday, Hour: 10, Minute: 0},
			},
		},
		{
			Name: "Computer Science",
			Occurrences: []model.Occurrence{
				{Weekday: time.Monday, Hour: 14, Minute: 15},
				{Weekday: time.Thursday, Hour: 13, Minute: 45},
			},
		},
	}
}

// EnsureTimetable loads the timetable at path.
//
// Behavior:
//   - If the file does not exist, DefaultTimetable is persisted there and
//     returned (created reports true).
//   - Otherwise the file is parsed; any structural problem is a *ConfigError.
func EnsureTimetable(fsys afero.Fs, path string) (table model.Timetable, created bool, err error) {
	if path == "" {
		return nil, false, &ConfigError{Path: path, Err: errors.New("timetable path is empty")}
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default timetable file.
			table := DefaultTimetable()
			if err := SaveTimetable(fsys, path, table); err != nil {
				return table, false, err
			}
			appLog.Info("wrote default timetable", "path", path, "events", len(table))
			return table, true, nil
		}
		return nil, false, &ConfigError{Path: path, Err: err}
	}

	table, err = ParseTimetable(path, data)
	return table, false, err
}

// LoadTimetable reads and parses the timetable at path. A missing file is
// an error here; use EnsureTimetable for first-run bootstrap.
func LoadTimetable(fsys afero.Fs, path string) (model.Timetable, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return ParseTimetable(path, data)
}

// ParseTimetable decodes a YAML (or JSON) timetable. Key order in the
// document becomes definition order. A repeated class name replaces the
// earlier definition in place.
func ParseTimetable(path string, data []byte) (model.Timetable, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &ConfigError{Path: path, Err: errors.New("timetable is empty")}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("line %d: expected a mapping of class name to definition", root.Line)}
	}

	table := make(model.Timetable, 0, len(root.Content)/2)
	index := make(map[string]int)

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode || keyNode.Value == "" {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("line %d: class name must be a non-empty string", keyNode.Line)}
		}
		name := keyNode.Value

		ev, err := decodeEvent(name, valNode)
		if err != nil {
			var ce *ConfigError
			if errors.As(err, &ce) {
				ce.Path = path
				return nil, ce
			}
			return nil, &ConfigError{Path: path, Field: name, Err: err}
		}

		if at, dup := index[name]; dup {
			appLog.Warn("duplicate class in timetable, last definition wins", "path", path, "class", name)
			table[at] = ev
			continue
		}
		index[name] = len(table)
		table = append(table, ev)
	}

	return table, nil
}

func decodeEvent(name string, node *yaml.Node) (model.Event, error) {
	if node.Kind != yaml.MappingNode {
		return model.Event{}, &ConfigError{Field: name, Err: fmt.Errorf("line %d: expected a mapping with link/times", node.Line)}
	}
	var raw eventDoc
	if err := node.Decode(&raw); err != nil {
		return model.Event{}, &ConfigError{Field: name, Err: err}
	}
	if raw.Times == nil {
		return model.Event{}, &ConfigError{Field: name + ".times", Err: errors.New("missing required field")}
	}

	ev := model.Event{Name: name}
	if raw.Link != nil {
		ev.Resource = *raw.Link
	}
	for i, td := range *raw.Times {
		field := fmt.Sprintf("%s.times[%d]", name, i)
		if td.Day == "" {
			return model.Event{}, &ConfigError{Field: field + ".day", Err: errors.New("missing required field")}
		}
		if td.Time == "" {
			return model.Event{}, &ConfigError{Field: field + ".time", Err: errors.New("missing required field")}
		}
		wd, err := model.ParseWeekday(td.Day)
		if err != nil {
			return model.Event{}, &ConfigError{Field: field + ".day", Err: err}
		}
		h, m, err := model.ParseClock(td.Time)
		if err != nil {
			return model.Event{}, &ConfigError{Field: field + ".time", Err: err}
		}
		ev.Occurrences = append(ev.Occurrences, model.Occurrence{Weekday: wd, Hour: h, Minute: m})
	}
	return ev, nil
}

func toEventDoc(ev model.Event) eventDoc {
	times := make([]timeDoc, 0, len(ev.Occurrences))
	for _, occ := range ev.Occurrences {
		times = append(times, timeDoc{
			Day:  model.WeekdayAbbrev(occ.Weekday),
			Time: fmt.Sprintf("%02d:%02d", occ.Hour, occ.Minute),
		})
	}
	doc := eventDoc{Times: &times}
	if ev.Resource != "" {
		link := ev.Resource
		doc.Link = &link
	}
	return doc
}

// MarshalTimetable encodes table as YAML, preserving definition order.
func MarshalTimetable(table model.Timetable) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, ev := range table {
		var val yaml.Node
		if err := val.Encode(toEventDoc(ev)); err != nil {
			return nil, err
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ev.Name}
		root.Content = append(root.Content, key, &val)
	}
	return yaml.Marshal(root)
}

// MarshalTimetableJSON encodes table as an indented JSON object in
// definition order.
func MarshalTimetableJSON(table model.Timetable) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, ev := range table {
		if i > 0 {
			buf.WriteString(",")
		}
		key, err := json.Marshal(ev.Name)
		if err != nil {
			return nil, err
		}

		var val bytes.Buffer
		enc := json.NewEncoder(&val)
		enc.SetEscapeHTML(false)
		enc.SetIndent("  ", "  ")
		if err := enc.Encode(toEventDoc(ev)); err != nil {
			return nil, err
		}

		buf.WriteString("\n  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(bytes.TrimRight(val.Bytes(), "\n"))
	}
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

// encodeTimetable picks JSON for *.json paths and YAML otherwise.
func encodeTimetable(path string, table model.Timetable) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return MarshalTimetableJSON(table)
	}
	return MarshalTimetable(table)
}

// SaveTimetable writes table to path, as JSON when path ends in .json and
// as YAML otherwise.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func SaveTimetable(fsys afero.Fs, path string, table model.Timetable) error {
	if path == "" {
		return errors.New("timetable path is empty")
	}

	data, err := encodeTimetable(path, table)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := afero.TempFile(fsys, dir, ".classlaunch-timetable-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer fsys.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := fsys.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return fsys.Rename(tmpName, path)
}
