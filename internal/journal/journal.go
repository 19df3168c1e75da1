// Package journal records class firings in a SQLite file so that a
// restarted process does not reopen a class it already opened today.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	appLog "classlaunch/internal/log"
	"classlaunch/internal/model"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// DefaultRetention is how long firings are kept before Prune drops them.
const DefaultRetention = 30 * 24 * time.Hour

type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout = 2000")
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = NORMAL")

	j := &Journal{db: db}
	if err := j.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal migrate: %w", err)
	}
	appLog.Debug("journal opened", "path", path)
	return j, nil
}

func (j *Journal) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = j.db.ExecContext(ctx, string(b))
	return err
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record stores a firing. A second firing of the same class on the same day
// is ignored.
func (j *Journal) Record(ctx context.Context, rec model.FireRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.FiredAt.IsZero() {
		rec.FiredAt = time.Now()
	}
	if rec.Day == "" {
		rec.Day = model.DayKey(rec.FiredAt)
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO fires(id, day, event, locator, fire_at, fired_at, err)
		 VALUES(?,?,?,?,?,?,?)
		 ON CONFLICT(day, event) DO NOTHING`,
		rec.ID, rec.Day, rec.Event, rec.Locator,
		rec.FireAt.Format(time.RFC3339), rec.FiredAt.Format(time.RFC3339Nano), nullStr(rec.Err),
	)
	return err
}

// FiredOn returns the classes fired on day (YYYY-MM-DD), oldest first.
func (j *Journal) FiredOn(ctx context.Context, day string) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT event FROM fires WHERE day = ? ORDER BY fired_at`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// History returns the firings recorded on day, oldest first.
func (j *Journal) History(ctx context.Context, day string) ([]model.FireRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, day, event, locator, fire_at, fired_at, err FROM fires WHERE day = ? ORDER BY fired_at`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FireRecord
	for rows.Next() {
		var (
			rec             model.FireRecord
			fireAt, firedAt string
			errStr          sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Day, &rec.Event, &rec.Locator, &fireAt, &firedAt, &errStr); err != nil {
			return nil, err
		}
		rec.FireAt, _ = time.Parse(time.RFC3339, fireAt)
		rec.FiredAt, _ = time.Parse(time.RFC3339Nano, firedAt)
		rec.Err = errStr.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune drops firings from days before the cutoff day. It returns the
// number of rows removed.
func (j *Journal) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM fires WHERE day < ?`, model.DayKey(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
