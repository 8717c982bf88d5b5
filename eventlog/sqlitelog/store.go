// Package sqlitelog is a SQLite-backed eventlog.Sink for host-side reboot
// analytics: every collected reboot event is kept as the raw serialized
// payload plus indexed columns decoded from it, so crash-loop history can
// be queried across device sessions.
package sqlitelog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"reboottrack/common"
	"reboottrack/eventlog"
)

const schema = `
CREATE TABLE IF NOT EXISTS reboot_events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	collected_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	reason       INTEGER NOT NULL,
	unexpected   INTEGER NOT NULL,
	crash_count  INTEGER NOT NULL,
	payload      BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reboot_events_unexpected ON reboot_events(unexpected);
`

// Store implements eventlog.Sink on a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the event database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitelog: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitelog: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores a serialized reboot event. The payload is decoded to fill
// the indexed columns; an undecodable payload is rejected rather than
// stored blind, since the analytics queries depend on the columns.
func (s *Store) Append(data []byte) error {
	ev, err := eventlog.UnmarshalEvent(data)
	if err != nil {
		return fmt.Errorf("sqlitelog: reject payload: %w", err)
	}

	unexpected := 0
	if ev.Unexpected {
		unexpected = 1
	}
	_, err = s.db.Exec(
		`INSERT INTO reboot_events (reason, unexpected, crash_count, payload) VALUES (?, ?, ?, ?)`,
		int64(ev.Reason), unexpected, int64(ev.CrashCount), data,
	)
	if err != nil {
		return fmt.Errorf("sqlitelog: insert event: %w", err)
	}
	return nil
}

// StoredEvent is one row of reboot history.
type StoredEvent struct {
	ID          int64
	CollectedAt time.Time
	Event       eventlog.RebootEvent
}

// Events returns all stored events, oldest first.
func (s *Store) Events(ctx context.Context) ([]StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, collected_at, payload FROM reboot_events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlitelog: query events: %w", err)
	}
	defer rows.Close()

	var out []StoredEvent
	for rows.Next() {
		var (
			se      StoredEvent
			payload []byte
		)
		if err := rows.Scan(&se.ID, &se.CollectedAt, &payload); err != nil {
			return nil, fmt.Errorf("sqlitelog: scan event: %w", err)
		}
		se.Event, err = eventlog.UnmarshalEvent(payload)
		if err != nil {
			return nil, fmt.Errorf("sqlitelog: event %d: %w", se.ID, err)
		}
		out = append(out, se)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitelog: iterate events: %w", err)
	}
	return out, nil
}

// Summary aggregates reboot history for crash-loop reporting.
type Summary struct {
	TotalBoots      int64
	UnexpectedBoots int64
	CurrentStreak   int64 // trailing run of unexpected boots
	LastReason      common.RebootReason
	LastCrashCount  uint32
	LastCollectedAt time.Time
	HasEvents       bool
}

// Summarize computes the crash-loop summary over the stored history.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(unexpected), 0) FROM reboot_events`).
		Scan(&sum.TotalBoots, &sum.UnexpectedBoots)
	if err != nil {
		return Summary{}, fmt.Errorf("sqlitelog: summarize: %w", err)
	}
	if sum.TotalBoots == 0 {
		return sum, nil
	}
	sum.HasEvents = true

	var reason int64
	var crashCount int64
	err = s.db.QueryRowContext(ctx,
		`SELECT reason, crash_count, collected_at FROM reboot_events ORDER BY id DESC LIMIT 1`).
		Scan(&reason, &crashCount, &sum.LastCollectedAt)
	if err != nil {
		return Summary{}, fmt.Errorf("sqlitelog: last event: %w", err)
	}
	sum.LastReason = common.RebootReason(reason)
	sum.LastCrashCount = uint32(crashCount)

	// Length of the trailing unexpected run: rows after the most recent
	// expected boot.
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reboot_events
		WHERE id > COALESCE((SELECT MAX(id) FROM reboot_events WHERE unexpected = 0), 0)`).
		Scan(&sum.CurrentStreak)
	if err != nil {
		return Summary{}, fmt.Errorf("sqlitelog: streak: %w", err)
	}
	return sum, nil
}
