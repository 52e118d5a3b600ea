// Package postgres mirrors audit events into PostgreSQL for long-retention
// querying. The JSONL file remains the chain-verified source of truth.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"aegis/internal/audit"
)

// Store implements audit.Store on a PostgreSQL table.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL and ensures the audit table exists.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an existing connection; used by integration tests.
func NewWithDB(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_events (
			seq           BIGSERIAL PRIMARY KEY,
			id            UUID NOT NULL UNIQUE,
			ts            TIMESTAMPTZ NOT NULL,
			severity      SMALLINT NOT NULL,
			category      TEXT NOT NULL,
			action        TEXT NOT NULL,
			resource      TEXT,
			subject_id    TEXT,
			role          TEXT,
			success       BOOLEAN NOT NULL,
			message       TEXT NOT NULL,
			metadata      JSONB,
			integrity_tag TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_audit_events_ts ON audit_events (ts);
		CREATE INDEX IF NOT EXISTS idx_audit_events_subject ON audit_events (subject_id);
	`)
	if err != nil {
		return fmt.Errorf("migrate audit_events: %w", err)
	}
	return nil
}

// Append inserts one event.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	var metadata []byte
	if len(event.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events
			(id, ts, severity, category, action, resource, subject_id, role, success, message, metadata, integrity_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		event.ID, event.Timestamp, int(event.Severity), string(event.Category),
		event.Action, nullable(event.Resource), nullable(event.SubjectID),
		nullable(event.Role), event.Success, event.Message, metadata,
		nullable(event.IntegrityTag),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Query returns matching events in append order.
func (s *Store) Query(ctx context.Context, filter audit.Filter) ([]audit.Event, error) {
	query := `SELECT id, ts, severity, category, action, resource, subject_id, role, success, message, metadata, integrity_tag
		FROM audit_events WHERE TRUE`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.MinSeverity != nil {
		query += " AND severity >= " + arg(int(*filter.MinSeverity))
	}
	if filter.Category != "" {
		query += " AND category = " + arg(string(filter.Category))
	}
	if !filter.From.IsZero() {
		query += " AND ts >= " + arg(filter.From)
	}
	if !filter.To.IsZero() {
		query += " AND ts <= " + arg(filter.To)
	}
	if filter.SubjectID != "" {
		query += " AND subject_id = " + arg(filter.SubjectID)
	}
	if filter.Resource != "" {
		query += " AND resource = " + arg(filter.Resource)
	}
	query += " ORDER BY seq"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	return s.scan(ctx, query, args...)
}

// ReadAll returns every event in append order.
func (s *Store) ReadAll(ctx context.Context) ([]audit.Event, error) {
	return s.scan(ctx, `SELECT id, ts, severity, category, action, resource, subject_id, role, success, message, metadata, integrity_tag
		FROM audit_events ORDER BY seq`)
}

// PruneBefore deletes events older than the cutoff.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_events WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune audit events: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune audit events: %w", err)
	}
	return int(removed), nil
}

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) scan(ctx context.Context, query string, args ...any) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event                          audit.Event
			severity                       int
			category                       string
			resource, subjectID, role, tag sql.NullString
			metadata                       []byte
		)
		if err := rows.Scan(&event.ID, &event.Timestamp, &severity, &category,
			&event.Action, &resource, &subjectID, &role, &event.Success,
			&event.Message, &metadata, &tag); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Severity = audit.Severity(severity)
		event.Category = audit.Category(category)
		event.Resource = resource.String
		event.SubjectID = subjectID.String
		event.Role = role.String
		event.IntegrityTag = tag.String
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
