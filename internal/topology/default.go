package topology

import (
	_ "embed"
	"fmt"

	"github.com/matijazezelj/monbot/pkg/models"
)

//go:embed default_topology.json
var defaultTopologyJSON []byte

// Default returns the bundled demo topology: one WAN router, an HA pair of
// core switches, and eight access-layer devices.
func Default() (models.Topology, error) {
	topo, err := Parse(defaultTopologyJSON, "json")
	if err != nil {
		return models.Topology{}, fmt.Errorf("parsing bundled topology: %w", err)
	}
	return topo, nil
}
