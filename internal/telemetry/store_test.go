package telemetry

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/matijazezelj/monbot/pkg/models"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatal(err)
	}
	store := &Store{db: db}
	if err := store.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := newTestStore(t)
	if err := store.SeedDefault(context.Background()); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestSeedDefault(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	count, err := store.HostCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 11 {
		t.Errorf("HostCount = %d, want 11", count)
	}

	alerts, err := store.AlertCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if alerts != 3 {
		t.Errorf("AlertCount = %d, want 3", alerts)
	}

	// Seeding again is a no-op on a populated store.
	if err := store.SeedDefault(ctx); err != nil {
		t.Fatal(err)
	}
	count, _ = store.HostCount(ctx)
	if count != 11 {
		t.Errorf("HostCount after reseed = %d, want 11", count)
	}
}

func TestGetHost(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	host, err := store.GetHost(ctx, "CORE_SW_01")
	if err != nil {
		t.Fatal(err)
	}
	if host == nil {
		t.Fatal("expected host, got nil")
	}
	if host.Type != models.DeviceSwitch {
		t.Errorf("Type = %q, want SWITCH", host.Type)
	}
	if host.Metrics["cpu"] != 85.3 {
		t.Errorf("cpu = %v, want 85.3", host.Metrics["cpu"])
	}

	missing, err := store.GetHost(ctx, "NOPE")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing host, got %v", missing)
	}
}

func TestSearchHosts(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	matches, err := store.SearchHosts(ctx, "cpu", ">", 80)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 3 {
		t.Fatalf("matches = %d, want 3", len(matches))
	}
	// Sorted by value descending.
	if matches[0].ID != "FLOOR_SW_02" || matches[0].Value != 91.6 {
		t.Errorf("matches[0] = %s/%v, want FLOOR_SW_02/91.6", matches[0].ID, matches[0].Value)
	}
	if matches[1].ID != "CORE_SW_01" {
		t.Errorf("matches[1] = %s, want CORE_SW_01", matches[1].ID)
	}
	if matches[2].ID != "AP_03" {
		t.Errorf("matches[2] = %s, want AP_03", matches[2].ID)
	}

	below, err := store.SearchHosts(ctx, "cpu", "<", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(below) != 1 || below[0].ID != "FLOOR_SW_05" {
		t.Errorf("below = %v, want [FLOOR_SW_05]", below)
	}

	if _, err := store.SearchHosts(ctx, "cpu", "!=", 50); err == nil {
		t.Error("expected error for unsupported operator")
	}
}

func TestAlertsOrderedBySeverity(t *testing.T) {
	store := seededStore(t)

	alerts, err := store.Alerts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 3 {
		t.Fatalf("alerts = %d, want 3", len(alerts))
	}
	if alerts[0].Severity != models.SeverityHigh {
		t.Errorf("alerts[0].Severity = %q, want high", alerts[0].Severity)
	}
	if alerts[2].Severity != models.SeverityWarning {
		t.Errorf("alerts[2].Severity = %q, want warning", alerts[2].Severity)
	}
}

func TestMaintenanceWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	w := models.MaintenanceWindow{
		Host: "WAN_ROUTER_01", Start: start, End: start.Add(2 * time.Hour), DurationMinutes: 120,
	}
	if err := store.SetMaintenance(ctx, w); err != nil {
		t.Fatal(err)
	}

	got, err := store.Maintenance(ctx, "WAN_ROUTER_01")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected window, got nil")
	}
	if !got.Start.Equal(start) {
		t.Errorf("Start = %v, want %v", got.Start, start)
	}
	if got.DurationMinutes != 120 {
		t.Errorf("DurationMinutes = %d, want 120", got.DurationMinutes)
	}

	// Replacing the window for the same host overwrites it.
	w.DurationMinutes = 30
	w.End = start.Add(30 * time.Minute)
	if err := store.SetMaintenance(ctx, w); err != nil {
		t.Fatal(err)
	}
	windows, err := store.MaintenanceWindows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) != 1 {
		t.Fatalf("windows = %d, want 1", len(windows))
	}
	if windows[0].DurationMinutes != 30 {
		t.Errorf("DurationMinutes = %d, want 30", windows[0].DurationMinutes)
	}
}

func TestRequestAuditLog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []RequestRecord{
		{Session: "s1", Intent: "metrics", Fingerprint: "metrics|device=CORE_SW_01", Cached: false},
		{Session: "s1", Intent: "metrics", Fingerprint: "metrics|device=CORE_SW_01", Cached: true},
		{Session: "s2", Intent: "alerts", Fingerprint: "alerts|", Cached: false},
	}
	for _, r := range records {
		if err := store.RecordRequest(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	total, err := store.RequestCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Errorf("RequestCount = %d, want 3", total)
	}

	byIntent, err := store.RequestCountByIntent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if byIntent["metrics"] != 2 {
		t.Errorf("metrics count = %d, want 2", byIntent["metrics"])
	}
	if byIntent["alerts"] != 1 {
		t.Errorf("alerts count = %d, want 1", byIntent["alerts"])
	}
}

func TestUpsertHost(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	h := Host{ID: "EDGE_01", Type: models.DeviceFirewall, Metrics: map[string]float64{"cpu": 10}}
	if err := store.UpsertHost(ctx, h); err != nil {
		t.Fatal(err)
	}

	h.Metrics["cpu"] = 55.5
	h.Status = "down"
	if err := store.UpsertHost(ctx, h); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetHost(ctx, "EDGE_01")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "down" {
		t.Errorf("Status = %q, want down", got.Status)
	}
	if got.Metrics["cpu"] != 55.5 {
		t.Errorf("cpu = %v, want 55.5", got.Metrics["cpu"])
	}

	count, _ := store.HostCount(ctx)
	if count != 1 {
		t.Errorf("HostCount = %d, want 1", count)
	}
}
