package topology

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matijazezelj/monbot/pkg/models"
	"gopkg.in/yaml.v3"
)

// deviceDoc is the wire form of a device in an uploaded topology document.
// Pointer fields distinguish missing from zero.
type deviceDoc struct {
	Layer           *int              `json:"layer" yaml:"layer"`
	Type            string            `json:"type" yaml:"type"`
	ParentID        string            `json:"parent_id" yaml:"parent_id"`
	RedundancyGroup string            `json:"redundancy_group" yaml:"redundancy_group"`
	Metadata        map[string]string `json:"metadata" yaml:"metadata"`
}

// Parse decodes a topology document (a mapping from device name to device
// fields) and validates it. Malformed documents are rejected wholesale.
// Format is "json" or "yaml".
func Parse(data []byte, format string) (models.Topology, error) {
	doc := make(map[string]deviceDoc)

	switch format {
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return models.Topology{}, fmt.Errorf("parsing topology document: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return models.Topology{}, fmt.Errorf("parsing topology document: %w", err)
		}
	default:
		return models.Topology{}, fmt.Errorf("unsupported topology format %q (use: json, yaml)", format)
	}

	if len(doc) == 0 {
		return models.Topology{}, fmt.Errorf("topology document contains no devices")
	}

	topo := models.Topology{Devices: make(map[string]models.Device, len(doc))}
	for name, d := range doc {
		if name == "" {
			return models.Topology{}, fmt.Errorf("topology document contains a device with an empty name")
		}
		if d.Layer == nil {
			return models.Topology{}, &ValidationError{Device: name, Reason: "missing required field \"layer\""}
		}
		if d.Type == "" {
			return models.Topology{}, &ValidationError{Device: name, Reason: "missing required field \"type\""}
		}
		topo.Devices[name] = models.Device{
			Name:            name,
			Layer:           *d.Layer,
			Type:            models.DeviceType(d.Type),
			Parent:          d.ParentID,
			RedundancyGroup: d.RedundancyGroup,
			Metadata:        d.Metadata,
		}
	}

	if err := Validate(topo); err != nil {
		return models.Topology{}, err
	}
	return topo, nil
}

// Load reads and parses a topology document from disk, inferring the format
// from the file extension (.json, .yaml, .yml).
func Load(path string) (models.Topology, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path from config/flag
	if err != nil {
		return models.Topology{}, fmt.Errorf("reading %s: %w", path, err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		format = "json"
	}
	topo, err := Parse(data, format)
	if err != nil {
		return models.Topology{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return topo, nil
}
