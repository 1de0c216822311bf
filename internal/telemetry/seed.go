package telemetry

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/matijazezelj/monbot/pkg/models"
)

//go:embed seed_data.json
var seedDataJSON []byte

type seedDocument struct {
	Hosts map[string]struct {
		Type    models.DeviceType  `json:"type"`
		Status  string             `json:"status"`
		Metrics map[string]float64 `json:"metrics"`
	} `json:"hosts"`
	Alerts []struct {
		Host     string          `json:"host"`
		Severity models.Severity `json:"severity"`
		Message  string          `json:"message"`
	} `json:"alerts"`
}

// Seed loads a telemetry dataset into an empty store. A store that already
// has hosts is left untouched, so re-running the process keeps its data.
func (s *Store) Seed(ctx context.Context, data []byte) error {
	count, err := s.HostCount(ctx)
	if err != nil {
		return fmt.Errorf("counting hosts: %w", err)
	}
	if count > 0 {
		return nil
	}

	var doc seedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing telemetry dataset: %w", err)
	}

	for id, h := range doc.Hosts {
		if err := s.UpsertHost(ctx, Host{ID: id, Type: h.Type, Status: h.Status, Metrics: h.Metrics}); err != nil {
			return fmt.Errorf("seeding host %s: %w", id, err)
		}
	}
	for _, a := range doc.Alerts {
		if err := s.AddAlert(ctx, Alert{Host: a.Host, Severity: a.Severity, Message: a.Message}); err != nil {
			return fmt.Errorf("seeding alert for %s: %w", a.Host, err)
		}
	}
	return nil
}

// SeedDefault loads the bundled demo dataset into an empty store.
func (s *Store) SeedDefault(ctx context.Context) error {
	return s.Seed(ctx, seedDataJSON)
}
