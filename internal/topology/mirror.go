package topology

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/matijazezelj/monbot/pkg/models"
)

// SyncToMemgraph mirrors a topology and its compiled dependency edges into a
// Memgraph/Bolt endpoint for external visualization. The mirror is a full
// rewrite: all existing data is cleared and re-inserted.
func SyncToMemgraph(ctx context.Context, driver neo4j.DriverWithContext, topo models.Topology, deps []models.Dependency, logger *slog.Logger) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx) //nolint:errcheck // best-effort cleanup

	logger.Info("clearing memgraph data")
	if _, err := session.Run(ctx, "MATCH (n) DETACH DELETE n", nil); err != nil {
		return fmt.Errorf("clearing memgraph: %w", err)
	}

	for _, cypher := range []string{
		"CREATE INDEX ON :Device(name)",
		"CREATE INDEX ON :Device(type)",
	} {
		if _, err := session.Run(ctx, cypher, nil); err != nil {
			logger.Warn("creating index (may already exist)", "error", err)
		}
	}

	names := topo.Names()
	logger.Info("syncing devices to memgraph", "count", len(names))

	deviceParams := make([]map[string]any, 0, len(names))
	for _, name := range names {
		dev := topo.Devices[name]
		meta := make(map[string]any, len(dev.Metadata))
		for k, v := range dev.Metadata {
			meta[k] = v
		}
		deviceParams = append(deviceParams, map[string]any{
			"name":             dev.Name,
			"layer":            dev.Layer,
			"type":             string(dev.Type),
			"redundancy_group": dev.RedundancyGroup,
			"metadata":         meta,
		})
	}

	cypher := `
		UNWIND $devices AS d
		CREATE (:Device {
			name: d.name, layer: d.layer, type: d.type,
			redundancy_group: d.redundancy_group, metadata: d.metadata
		})
	`
	if _, err := session.Run(ctx, cypher, map[string]any{"devices": deviceParams}); err != nil {
		return fmt.Errorf("syncing devices: %w", err)
	}

	logger.Info("syncing dependencies to memgraph", "count", len(deps))

	depParams := make([]map[string]any, 0, len(deps))
	for _, d := range deps {
		depParams = append(depParams, map[string]any{"host": d.Host, "upstream": d.DependsOn})
	}

	cypher = `
		UNWIND $deps AS dep
		MATCH (a:Device {name: dep.host}), (b:Device {name: dep.upstream})
		CREATE (a)-[:DEPENDS_ON]->(b)
	`
	if _, err := session.Run(ctx, cypher, map[string]any{"deps": depParams}); err != nil {
		return fmt.Errorf("syncing dependencies: %w", err)
	}

	logger.Info("memgraph sync completed", "devices", len(deviceParams), "dependencies", len(depParams))
	return nil
}
