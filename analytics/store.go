package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store persists visits in SQLite.
type Store struct {
	db   *sql.DB
	hash hasher
}

// NewStore opens (creating if needed) the analytics database at dbPath and
// loads the installation's hashing salt.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("analytics: open db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("analytics: enable WAL: %w", err)
	}
	if err := s.ensureSchema(); err != nil {
		return fmt.Errorf("analytics: ensure schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		return fmt.Errorf("analytics: migrate: %w", err)
	}
	salt, err := s.GetSetting("hash_salt")
	if err != nil {
		return fmt.Errorf("analytics: read hash salt: %w", err)
	}
	if salt == "" {
		if salt, err = newSalt(); err != nil {
			return fmt.Errorf("analytics: generate salt: %w", err)
		}
		if err := s.SetSetting("hash_salt", salt); err != nil {
			return fmt.Errorf("analytics: store hash salt: %w", err)
		}
	}
	s.hash = hasher{salt: salt}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visitor_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			browser TEXT NOT NULL,
			os TEXT NOT NULL,
			device TEXT NOT NULL,
			path TEXT NOT NULL,
			referrer TEXT NOT NULL,
			ts INTEGER NOT NULL,
			day TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS bot_visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bot_name TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			path TEXT NOT NULL,
			ts INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_visits_ts ON visits(ts);
		CREATE INDEX IF NOT EXISTS idx_visits_path ON visits(path);
		CREATE INDEX IF NOT EXISTS idx_bot_visits_ts ON bot_visits(ts);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// currentSchemaVersion is the latest schema version. Increment when adding migrations.
const currentSchemaVersion = 1

func (s *Store) migrate() error {
	verStr, err := s.GetSetting("schema_version")
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	version := 0
	if verStr != "" {
		if version, err = strconv.Atoi(verStr); err != nil {
			return fmt.Errorf("parse schema version %q: %w", verStr, err)
		}
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported %d", version, currentSchemaVersion)
	}
	return s.SetSetting("schema_version", strconv.Itoa(currentSchemaVersion))
}

// GetSetting returns the value stored under key, or "" if there is none.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return val, err
}

// SetSetting upserts a setting.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// RecordVisit stores a human visit.
func (s *Store) RecordVisit(ctx context.Context, v Visit) error {
	ts := v.Timestamp.UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO visits
		(visitor_id, session_id, ip_hash, browser, os, device, path, referrer, ts, day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.VisitorID, v.SessionID, v.IPHash, v.Browser, v.OS, v.Device, v.Path, v.Referrer,
		ts.Unix(), ts.Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("analytics: record visit: %w", err)
	}
	return nil
}

// RecordBotVisit stores a crawler visit.
func (s *Store) RecordBotVisit(ctx context.Context, v BotVisit) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO bot_visits (bot_name, ip_hash, path, ts)
		VALUES (?, ?, ?, ?)`, v.BotName, v.IPHash, v.Path, v.Timestamp.UTC().Unix())
	if err != nil {
		return fmt.Errorf("analytics: record bot visit: %w", err)
	}
	return nil
}

const topN = 10

// Stats aggregates visits with from <= timestamp < to.
func (s *Store) Stats(ctx context.Context, from, to time.Time) (*Stats, error) {
	lo, hi := from.UTC().Unix(), to.UTC().Unix()
	stats := &Stats{
		Period:     from.UTC().Format("2006-01-02") + " to " + to.UTC().Format("2006-01-02"),
		TopPages:   []PageStat{},
		Browsers:   []DimensionStat{},
		Devices:    []DimensionStat{},
		Referrers:  []DimensionStat{},
		DailyViews: []DailyView{},
	}

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT visitor_id)
		FROM visits WHERE ts >= ? AND ts < ?`, lo, hi).Scan(&stats.TotalViews, &stats.UniqueVisitors)
	if err != nil {
		return nil, fmt.Errorf("analytics: count views: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bot_visits WHERE ts >= ? AND ts < ?`,
		lo, hi).Scan(&stats.BotViews)
	if err != nil {
		return nil, fmt.Errorf("analytics: count bot views: %w", err)
	}

	if err := s.query(ctx, `SELECT path, COUNT(*) AS n FROM visits WHERE ts >= ? AND ts < ?
		GROUP BY path ORDER BY n DESC, path LIMIT ?`, []any{lo, hi, topN}, func(rows *sql.Rows) error {
		var p PageStat
		if err := rows.Scan(&p.Path, &p.Views); err != nil {
			return err
		}
		stats.TopPages = append(stats.TopPages, p)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("analytics: top pages: %w", err)
	}

	for _, dim := range []struct {
		column string
		dst    *[]DimensionStat
	}{
		{"browser", &stats.Browsers},
		{"device", &stats.Devices},
		{"referrer", &stats.Referrers},
	} {
		q := `SELECT ` + dim.column + `, COUNT(*) AS n FROM visits WHERE ts >= ? AND ts < ?
			GROUP BY ` + dim.column + ` ORDER BY n DESC, ` + dim.column + ` LIMIT ?`
		dst := dim.dst
		if err := s.query(ctx, q, []any{lo, hi, topN}, func(rows *sql.Rows) error {
			var d DimensionStat
			if err := rows.Scan(&d.Name, &d.Count); err != nil {
				return err
			}
			*dst = append(*dst, d)
			return nil
		}); err != nil {
			return nil, fmt.Errorf("analytics: %s stats: %w", dim.column, err)
		}
	}

	if err := s.query(ctx, `SELECT day, COUNT(*) FROM visits WHERE ts >= ? AND ts < ?
		GROUP BY day ORDER BY day`, []any{lo, hi}, func(rows *sql.Rows) error {
		var d DailyView
		if err := rows.Scan(&d.Date, &d.Views); err != nil {
			return err
		}
		stats.DailyViews = append(stats.DailyViews, d)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("analytics: daily views: %w", err)
	}

	return stats, nil
}

func (s *Store) query(ctx context.Context, q string, args []any, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CleanupOldVisits removes visits and bot visits older than retentionDays.
func (s *Store) CleanupOldVisits(ctx context.Context, retentionDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM visits WHERE ts < ?`, cutoff); err != nil {
		return fmt.Errorf("analytics: cleanup visits: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bot_visits WHERE ts < ?`, cutoff); err != nil {
		return fmt.Errorf("analytics: cleanup bot visits: %w", err)
	}
	return nil
}

// StartCleanupScheduler runs CleanupOldVisits every interval until the
// returned stop function is called.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration, logger *zap.Logger) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.CleanupOldVisits(context.Background(), retentionDays); err != nil {
					logger.Error("analytics cleanup failed", zap.Error(err))
				}
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}
