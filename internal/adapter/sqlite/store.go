// Package sqlite provides the SQLite-backed persistence collaborator for
// single-node deployments. Both tables are insert-only; the pipeline never
// updates an existing row.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/couchcryptid/space-weather-ingest/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	source                TEXT NOT NULL,
	source_url            TEXT NOT NULL,
	issued_at             TEXT,
	fetched_at            TEXT NOT NULL,
	headline              TEXT,
	summary               TEXT,
	details               TEXT,
	confidence            TEXT,
	valid_start           TEXT NOT NULL,
	valid_end             TEXT NOT NULL,
	geomagnetic_level     TEXT,
	radio_blackout_level  TEXT,
	radiation_storm_level TEXT,
	raw_payload           BLOB,
	processing_errors     TEXT NOT NULL DEFAULT '[]',
	quality_score         REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_source_fetched ON reports (source, fetched_at);

CREATE TABLE IF NOT EXISTS fetch_logs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	source           TEXT NOT NULL,
	url              TEXT,
	success          INTEGER NOT NULL,
	response_time_ms INTEGER NOT NULL,
	data_points      INTEGER NOT NULL,
	error_message    TEXT,
	created_at       TEXT NOT NULL
);
`

// Store implements pipeline.Store on a local SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at path and applies the
// schema. WAL mode keeps the orchestrator's concurrent writers from
// serializing on the whole file.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport inserts one normalized report.
func (s *Store) SaveReport(ctx context.Context, report domain.NormalizedReport) error {
	procErrs, err := json.Marshal(report.ProcessingErrors)
	if err != nil {
		return fmt.Errorf("serialize processing errors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (
			source, source_url, issued_at, fetched_at,
			headline, summary, details, confidence,
			valid_start, valid_end,
			geomagnetic_level, radio_blackout_level, radiation_storm_level,
			raw_payload, processing_errors, quality_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(report.Source), report.SourceURL,
		nullableTime(report.IssuedAt), report.FetchedAt.Format(time.RFC3339),
		report.Headline, report.Summary, report.Details, report.Confidence,
		report.ValidStart.Format(time.RFC3339), report.ValidEnd.Format(time.RFC3339),
		string(report.GeomagneticLevel), string(report.RadioBlackoutLevel), string(report.RadiationStormLevel),
		report.RawPayload, string(procErrs), report.QualityScore,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// SaveFetchLog inserts one audit entry.
func (s *Store) SaveFetchLog(ctx context.Context, entry domain.FetchLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fetch_logs (
			source, url, success, response_time_ms, data_points, error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(entry.Source), entry.URL, boolToInt(entry.Success),
		entry.ResponseTimeMs, entry.DataPoints, entry.ErrorMessage,
		entry.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert fetch log: %w", err)
	}
	return nil
}

// RecentReports returns up to limit reports for a source, newest first.
// Used by the downstream report-generation layer, not the pipeline itself.
func (s *Store) RecentReports(ctx context.Context, src domain.Source, limit int) ([]domain.NormalizedReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, source_url, issued_at, fetched_at,
			headline, summary, details, confidence,
			valid_start, valid_end,
			geomagnetic_level, radio_blackout_level, radiation_storm_level,
			raw_payload, processing_errors, quality_score
		FROM reports WHERE source = ?
		ORDER BY fetched_at DESC LIMIT ?`,
		string(src), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.NormalizedReport
	for rows.Next() {
		var (
			r                                domain.NormalizedReport
			source, fetchedAt, vStart, vEnd  string
			gLevel, rLevel, sLevel, procErrs string
			issued                           sql.NullString
		)
		if err := rows.Scan(
			&source, &r.SourceURL, &issued, &fetchedAt,
			&r.Headline, &r.Summary, &r.Details, &r.Confidence,
			&vStart, &vEnd,
			&gLevel, &rLevel, &sLevel,
			&r.RawPayload, &procErrs, &r.QualityScore,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Source = domain.Source(source)
		r.GeomagneticLevel = domain.HazardLevel(gLevel)
		r.RadioBlackoutLevel = domain.HazardLevel(rLevel)
		r.RadiationStormLevel = domain.HazardLevel(sLevel)
		if issued.Valid {
			if t, err := time.Parse(time.RFC3339, issued.String); err == nil {
				r.IssuedAt = t
			}
		}
		if t, err := time.Parse(time.RFC3339, fetchedAt); err == nil {
			r.FetchedAt = t
		}
		if t, err := time.Parse(time.RFC3339, vStart); err == nil {
			r.ValidStart = t
		}
		if t, err := time.Parse(time.RFC3339, vEnd); err == nil {
			r.ValidEnd = t
		}
		if err := json.Unmarshal([]byte(procErrs), &r.ProcessingErrors); err != nil {
			return nil, fmt.Errorf("decode processing errors: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
