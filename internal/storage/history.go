package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"pomodoro/internal/core/model"
	"pomodoro/internal/platform"
)

const (
	historyFileName = "history.db"
	dateLayout      = "2006-01-02"
	retention       = 365 * 24 * time.Hour
)

// ErrInvalidDate indicates a date that is not YYYY-MM-DD or a month out of range.
var ErrInvalidDate = errors.New("invalid date")

var historyMigrations = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	mode TEXT NOT NULL CHECK(mode IN ('work','shortBreak','longBreak')),
	elapsed_seconds REAL NOT NULL,
	completed_at TEXT NOT NULL,
	date TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date);`,
}

// DayStat aggregates the work sessions completed on one day.
type DayStat struct {
	Date         string
	Count        int
	TotalMinutes float64
}

// History stores completed sessions.
type History struct {
	db  *sql.DB
	now func() time.Time
}

// HistoryPath returns the default history database location for appName.
func HistoryPath(appName string) (string, error) {
	dataDir, err := platform.DataDir(appName)
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, historyFileName), nil
}

// OpenHistory opens (creating if needed) the history database at path and
// drops sessions older than a year.
func OpenHistory(ctx context.Context, path string) (*History, error) {
	return openHistory(ctx, path, time.Now)
}

func openHistory(ctx context.Context, path string, now func() time.Time) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	history := &History{db: db, now: now}
	if err := history.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := history.prune(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return history, nil
}

// Close closes the database.
func (history *History) Close() error {
	if history == nil || history.db == nil {
		return nil
	}
	return history.db.Close()
}

// SaveSession records one completed session.
func (history *History) SaveSession(ctx context.Context, mode model.Mode, elapsed time.Duration) error {
	completedAt := history.now().UTC()
	_, err := history.db.ExecContext(ctx, `
INSERT INTO sessions(session_id, mode, elapsed_seconds, completed_at, date)
VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), string(mode), elapsed.Seconds(), completedAt.Format(time.RFC3339Nano), completedAt.Format(dateLayout))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// DailyStats returns the work sessions completed on date (YYYY-MM-DD).
func (history *History) DailyStats(ctx context.Context, date string) (DayStat, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return DayStat{}, fmt.Errorf("%w: %s", ErrInvalidDate, date)
	}
	stat := DayStat{Date: date}
	var totalSeconds float64
	err := history.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(elapsed_seconds), 0)
FROM sessions
WHERE date = ? AND mode = 'work'`, date).Scan(&stat.Count, &totalSeconds)
	if err != nil {
		return DayStat{}, fmt.Errorf("daily stats: %w", err)
	}
	stat.TotalMinutes = totalSeconds / 60
	return stat, nil
}

// RangeStats returns per-day work statistics between from and to inclusive.
// Days without sessions are omitted.
func (history *History) RangeStats(ctx context.Context, from, to string) ([]DayStat, error) {
	rows, err := history.db.QueryContext(ctx, `
SELECT date, COUNT(*), COALESCE(SUM(elapsed_seconds), 0)
FROM sessions
WHERE date >= ? AND date <= ? AND mode = 'work'
GROUP BY date
ORDER BY date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("range stats: %w", err)
	}
	defer rows.Close()

	var stats []DayStat
	for rows.Next() {
		var (
			stat         DayStat
			totalSeconds float64
		)
		if err := rows.Scan(&stat.Date, &stat.Count, &totalSeconds); err != nil {
			return nil, fmt.Errorf("scan range stats: %w", err)
		}
		stat.TotalMinutes = totalSeconds / 60
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// WeeklyStats returns the seven days starting at weekStart.
func (history *History) WeeklyStats(ctx context.Context, weekStart string) ([]DayStat, error) {
	start, err := time.Parse(dateLayout, weekStart)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, weekStart)
	}
	return history.RangeStats(ctx, weekStart, start.AddDate(0, 0, 6).Format(dateLayout))
}

// MonthlyStats returns every day of the given month.
func (history *History) MonthlyStats(ctx context.Context, year int, month time.Month) ([]DayStat, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", ErrInvalidDate, month)
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return history.RangeStats(ctx, start.Format(dateLayout), end.Format(dateLayout))
}

func (history *History) migrate(ctx context.Context) error {
	for i, migration := range historyMigrations {
		if _, err := history.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("apply history migration %d: %w", i+1, err)
		}
	}
	return nil
}

func (history *History) prune(ctx context.Context) error {
	cutoff := history.now().UTC().Add(-retention).Format(dateLayout)
	if _, err := history.db.ExecContext(ctx, `DELETE FROM sessions WHERE date < ?`, cutoff); err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}
