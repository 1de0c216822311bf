// Package telemetry holds the mock telemetry dataset served to secondary
// intents: hosts with current metric values, open alerts, maintenance
// windows, and an audit log of handled requests.
package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/matijazezelj/monbot/pkg/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS hosts (
    id      TEXT PRIMARY KEY,
    type    TEXT NOT NULL,
    status  TEXT NOT NULL DEFAULT 'up',
    metrics TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    host       TEXT NOT NULL,
    severity   TEXT NOT NULL,
    message    TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS maintenance (
    host             TEXT PRIMARY KEY,
    start_at         DATETIME NOT NULL,
    end_at           DATETIME NOT NULL,
    duration_minutes INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS requests (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    session     TEXT NOT NULL,
    intent      TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    cached      INTEGER NOT NULL DEFAULT 0,
    created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alerts_severity ON alerts(severity);
CREATE INDEX IF NOT EXISTS idx_requests_session ON requests(session);
`

// Host is one monitored host in the mock dataset.
type Host struct {
	ID      string             `json:"id"`
	Type    models.DeviceType  `json:"type"`
	Status  string             `json:"status"`
	Metrics map[string]float64 `json:"metrics"`
}

// Alert is an open alert in the mock dataset.
type Alert struct {
	ID        int64           `json:"id"`
	Host      string          `json:"host"`
	Severity  models.Severity `json:"severity"`
	Message   string          `json:"message"`
	CreatedAt time.Time       `json:"created_at"`
}

// HostMatch is a host matching a metric condition, with its current value.
type HostMatch struct {
	Host
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

// RequestRecord is one audit-log row for a handled request.
type RequestRecord struct {
	ID          int64     `json:"id"`
	Session     string    `json:"session"`
	Intent      string    `json:"intent"`
	Fingerprint string    `json:"fingerprint"`
	Cached      bool      `json:"cached"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the SQLite-backed telemetry store.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the telemetry database.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &Store{db: db}, nil
}

// Init creates the schema if it doesn't exist.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertHost inserts or updates a host.
func (s *Store) UpsertHost(ctx context.Context, h Host) error {
	metrics, err := json.Marshal(h.Metrics)
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	if h.Status == "" {
		h.Status = "up"
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO hosts (id, type, status, metrics)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			status = excluded.status,
			metrics = excluded.metrics
	`, h.ID, string(h.Type), h.Status, string(metrics))
	return err
}

// Hosts returns all hosts sorted by ID.
func (s *Store) Hosts(ctx context.Context) ([]Host, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, type, status, metrics FROM hosts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // best-effort cleanup

	var hosts []Host
	for rows.Next() {
		h, err := scanHost(rows)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, *h)
	}
	return hosts, rows.Err()
}

// GetHost returns a host by ID, or nil if it doesn't exist.
func (s *Store) GetHost(ctx context.Context, id string) (*Host, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, type, status, metrics FROM hosts WHERE id = ?`, id)
	return scanHost(row)
}

func scanHost(row interface{ Scan(dest ...any) error }) (*Host, error) {
	var h Host
	var metrics string

	err := row.Scan(&h.ID, &h.Type, &h.Status, &metrics)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	_ = json.Unmarshal([]byte(metrics), &h.Metrics)
	if h.Metrics == nil {
		h.Metrics = make(map[string]float64)
	}
	return &h, nil
}

// HostNames returns all host IDs sorted.
func (s *Store) HostNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM hosts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // best-effort cleanup

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SearchHosts returns hosts whose current value for the metric satisfies the
// condition (operator is ">", "<" or "="), sorted by value descending.
func (s *Store) SearchHosts(ctx context.Context, metric, operator string, value float64) ([]HostMatch, error) {
	hosts, err := s.Hosts(ctx)
	if err != nil {
		return nil, err
	}

	var matches []HostMatch
	for _, h := range hosts {
		current, ok := h.Metrics[metric]
		if !ok {
			continue
		}
		keep := false
		switch operator {
		case ">":
			keep = current > value
		case "<":
			keep = current < value
		case "=":
			keep = current == value
		default:
			return nil, fmt.Errorf("unsupported operator %q", operator)
		}
		if keep {
			matches = append(matches, HostMatch{Host: h, Metric: metric, Value: current})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Value != matches[j].Value {
			return matches[i].Value > matches[j].Value
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

// AddAlert inserts an alert.
func (s *Store) AddAlert(ctx context.Context, a Alert) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (host, severity, message, created_at) VALUES (?, ?, ?, ?)
	`, a.Host, string(a.Severity), a.Message, a.CreatedAt.Format(time.RFC3339))
	return err
}

// Alerts returns all open alerts, most severe first, newest within a tier.
func (s *Store) Alerts(ctx context.Context) ([]Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, host, severity, message, created_at FROM alerts
		ORDER BY CASE severity
			WHEN 'high' THEN 0 WHEN 'average' THEN 1 WHEN 'warning' THEN 2 ELSE 3
		END, created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // best-effort cleanup

	var alerts []Alert
	for rows.Next() {
		var a Alert
		var createdAt string
		if err := rows.Scan(&a.ID, &a.Host, &a.Severity, &a.Message, &createdAt); err != nil {
			return nil, err
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// SetMaintenance stores a maintenance window for a host, replacing any
// existing window.
func (s *Store) SetMaintenance(ctx context.Context, w models.MaintenanceWindow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO maintenance (host, start_at, end_at, duration_minutes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(host) DO UPDATE SET
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			duration_minutes = excluded.duration_minutes
	`, w.Host, w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), w.DurationMinutes)
	return err
}

// Maintenance returns the maintenance window for a host, or nil.
func (s *Store) Maintenance(ctx context.Context, host string) (*models.MaintenanceWindow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT host, start_at, end_at, duration_minutes FROM maintenance WHERE host = ?
	`, host)

	var w models.MaintenanceWindow
	var start, end string
	err := row.Scan(&w.Host, &start, &end, &w.DurationMinutes)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	w.Start, _ = time.Parse(time.RFC3339, start)
	w.End, _ = time.Parse(time.RFC3339, end)
	return &w, nil
}

// MaintenanceWindows returns all maintenance windows ordered by host.
func (s *Store) MaintenanceWindows(ctx context.Context) ([]models.MaintenanceWindow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT host, start_at, end_at, duration_minutes FROM maintenance ORDER BY host
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // best-effort cleanup

	var windows []models.MaintenanceWindow
	for rows.Next() {
		var w models.MaintenanceWindow
		var start, end string
		if err := rows.Scan(&w.Host, &start, &end, &w.DurationMinutes); err != nil {
			return nil, err
		}
		w.Start, _ = time.Parse(time.RFC3339, start)
		w.End, _ = time.Parse(time.RFC3339, end)
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// RecordRequest appends one row to the request audit log.
func (s *Store) RecordRequest(ctx context.Context, r RequestRecord) error {
	cached := 0
	if r.Cached {
		cached = 1
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests (session, intent, fingerprint, cached, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.Session, r.Intent, r.Fingerprint, cached, r.CreatedAt.Format(time.RFC3339))
	return err
}

// RequestCount returns the total number of audited requests.
func (s *Store) RequestCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM requests`).Scan(&count)
	return count, err
}

// RequestCountByIntent returns audited request counts grouped by intent.
func (s *Store) RequestCountByIntent(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT intent, COUNT(*) FROM requests GROUP BY intent ORDER BY intent`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // best-effort cleanup

	counts := make(map[string]int)
	for rows.Next() {
		var intent string
		var c int
		if err := rows.Scan(&intent, &c); err != nil {
			return nil, err
		}
		counts[intent] = c
	}
	return counts, rows.Err()
}

// HostCount returns the number of hosts.
func (s *Store) HostCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hosts`).Scan(&count)
	return count, err
}

// AlertCount returns the number of open alerts.
func (s *Store) AlertCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&count)
	return count, err
}
