// sim/eventlog/eventlog.go

// Package eventlog persists per-run transition and occupancy rows to SQLite
// so a run can be inspected after the fact with plain SQL. One database can
// hold many runs, keyed by run id.
package eventlog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/clinic-sim/clinic-sim/sim"
	"github.com/clinic-sim/clinic-sim/sim/trace"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	seed       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS transitions (
	run_id     TEXT NOT NULL,
	tick       INTEGER NOT NULL,
	patient_id INTEGER NOT NULL,
	class      TEXT NOT NULL,
	protocol   TEXT NOT NULL,
	from_state TEXT NOT NULL,
	to_state   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS occupancy (
	run_id    TEXT NOT NULL,
	tick      INTEGER NOT NULL,
	magnet_id TEXT NOT NULL,
	category  TEXT NOT NULL,
	ticks     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS counters (
	run_id TEXT NOT NULL,
	tick   INTEGER NOT NULL,
	name   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS transitions_run ON transitions (run_id, tick);
`

// Store is an open event-log database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. Use ":memory:" for
// an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open event log %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate event log %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// StartRun registers a new run row and returns its id.
func (s *Store) StartRun(seed int64) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO runs (id, started_at, seed) VALUES (?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), seed)
	if err != nil {
		return "", fmt.Errorf("register run: %w", err)
	}
	return id, nil
}

// Transitions loads every transition row for a run in tick order.
func (s *Store) Transitions(runID string) ([]trace.TransitionRecord, error) {
	rows, err := s.db.Query(
		`SELECT tick, patient_id, class, protocol, from_state, to_state
		 FROM transitions WHERE run_id = ? ORDER BY tick, patient_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()
	var out []trace.TransitionRecord
	for rows.Next() {
		var rec trace.TransitionRecord
		if err := rows.Scan(&rec.Tick, &rec.PatientID, &rec.Class, &rec.Protocol, &rec.From, &rec.To); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Occupancies loads every occupancy row for a run in tick order.
func (s *Store) Occupancies(runID string) ([]trace.OccupancyRecord, error) {
	rows, err := s.db.Query(
		`SELECT tick, magnet_id, category, ticks
		 FROM occupancy WHERE run_id = ? ORDER BY tick`, runID)
	if err != nil {
		return nil, fmt.Errorf("query occupancy: %w", err)
	}
	defer rows.Close()
	var out []trace.OccupancyRecord
	for rows.Next() {
		var rec trace.OccupancyRecord
		if err := rows.Scan(&rec.Tick, &rec.MagnetID, &rec.Category, &rec.Ticks); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Collector adapts a run id on this store to the simulation's collector
// interface. Insert failures are logged and swallowed: persistence problems
// must never stall the virtual clock.
type Collector struct {
	store *Store
	runID string
}

// NewCollector returns a collector writing rows under runID.
func (s *Store) NewCollector(runID string) *Collector {
	return &Collector{store: s, runID: runID}
}

func (c *Collector) exec(query string, args ...any) {
	if _, err := c.store.db.Exec(query, args...); err != nil {
		logrus.Warnf("event log write failed: %v", err)
	}
}

func (c *Collector) StateTransition(tick int64, p *sim.Patient, from, to sim.PatientState) {
	c.exec(`INSERT INTO transitions (run_id, tick, patient_id, class, protocol, from_state, to_state)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.runID, tick, p.ID, string(p.Class), p.Protocol, string(from), string(to))
}

func (c *Collector) Occupancy(tick int64, magnetID, category string, ticks int64) {
	c.exec(`INSERT INTO occupancy (run_id, tick, magnet_id, category, ticks) VALUES (?, ?, ?, ?, ?)`,
		c.runID, tick, magnetID, category, ticks)
}

func (c *Collector) PatientCompleted(tick int64, p *sim.Patient) {}

func (c *Collector) CountEvent(tick int64, name string) {
	c.exec(`INSERT INTO counters (run_id, tick, name) VALUES (?, ?, ?)`, c.runID, tick, name)
}
