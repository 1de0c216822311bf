package cache

import (
	"testing"

	"github.com/matijazezelj/monbot/pkg/models"
)

func testCommand(fp string) models.Command {
	return models.Command{
		Intent:      models.IntentMetrics,
		Parameters:  map[string]string{"device": "CORE_SW_01"},
		Fingerprint: fp,
	}
}

func TestLookupMissThenHit(t *testing.T) {
	c := New()

	if _, ok := c.Lookup("metrics|device=CORE_SW_01"); ok {
		t.Fatal("empty cache returned a hit")
	}

	c.Store(testCommand("metrics|device=CORE_SW_01"), "result-a")

	entry, ok := c.Lookup("metrics|device=CORE_SW_01")
	if !ok {
		t.Fatal("expected hit after store")
	}
	if entry.Result != "result-a" {
		t.Errorf("Result = %v, want result-a", entry.Result)
	}
	if entry.Hits != 1 {
		t.Errorf("Hits = %d, want 1", entry.Hits)
	}

	entry, _ = c.Lookup("metrics|device=CORE_SW_01")
	if entry.Hits != 2 {
		t.Errorf("Hits = %d, want 2", entry.Hits)
	}
}

func TestStoreOverwrites(t *testing.T) {
	c := New()
	c.Store(testCommand("fp"), "old")
	c.Store(testCommand("fp"), "new")

	entry, ok := c.Lookup("fp")
	if !ok {
		t.Fatal("expected hit")
	}
	if entry.Result != "new" {
		t.Errorf("Result = %v, want new", entry.Result)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestClear(t *testing.T) {
	c := New()
	c.Store(testCommand("a"), 1)
	c.Store(testCommand("b"), 2)

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if _, ok := c.Lookup("a"); ok {
		t.Error("lookup hit after clear")
	}

	// Clearing an empty cache is a no-op.
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestStats(t *testing.T) {
	c := New()
	c.Store(testCommand("a"), 1)
	c.Store(testCommand("b"), 2)
	c.Lookup("a")
	c.Lookup("a")
	c.Lookup("b")

	s := c.Stats()
	if s.Entries != 2 {
		t.Errorf("Entries = %d, want 2", s.Entries)
	}
	if s.TotalHits != 3 {
		t.Errorf("TotalHits = %d, want 3", s.TotalHits)
	}

	if got := len(c.Entries()); got != 2 {
		t.Errorf("Entries() = %d, want 2", got)
	}
}
