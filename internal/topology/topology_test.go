package topology

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matijazezelj/monbot/pkg/models"
)

func device(name string, layer int, typ models.DeviceType, parent, group string) models.Device {
	return models.Device{Name: name, Layer: layer, Type: typ, Parent: parent, RedundancyGroup: group}
}

func testTopology(devices ...models.Device) models.Topology {
	t := models.Topology{Devices: make(map[string]models.Device, len(devices))}
	for _, d := range devices {
		t.Devices[d.Name] = d
	}
	return t
}

func TestValidateAcceptsDefault(t *testing.T) {
	topo, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if topo.Len() != 11 {
		t.Errorf("Len() = %d, want 11", topo.Len())
	}
	if err := Validate(topo); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		topo   models.Topology
		device string
		reason string
	}{
		{
			name:   "unknown type",
			topo:   testTopology(device("R1", 1, "TOASTER", "", "")),
			device: "R1",
			reason: "unknown device type",
		},
		{
			name:   "layer below one",
			topo:   testTopology(device("R1", 0, models.DeviceRouter, "", "")),
			device: "R1",
			reason: "layer must be >= 1",
		},
		{
			name: "missing parent",
			topo: testTopology(
				device("R1", 1, models.DeviceRouter, "", ""),
				device("S1", 2, models.DeviceSwitch, "GHOST", ""),
			),
			device: "S1",
			reason: "does not exist",
		},
		{
			name:   "self parent",
			topo:   testTopology(device("R1", 1, models.DeviceRouter, "R1", "")),
			device: "R1",
			reason: "its own parent",
		},
		{
			name: "parent not above",
			topo: testTopology(
				device("R1", 2, models.DeviceRouter, "", ""),
				device("S1", 2, models.DeviceSwitch, "R1", ""),
			),
			device: "S1",
			reason: "must be greater than parent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.topo)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if verr.Device != tt.device {
				t.Errorf("Device = %q, want %q", verr.Device, tt.device)
			}
			if !strings.Contains(verr.Reason, tt.reason) {
				t.Errorf("Reason = %q, want substring %q", verr.Reason, tt.reason)
			}
		})
	}
}

func TestResolveUpstreamSkipsPeers(t *testing.T) {
	// FW2's parent FW1 is in the same redundancy group; the dependency must
	// land on the shared upstream R1 instead.
	topo := testTopology(
		device("R1", 1, models.DeviceRouter, "", ""),
		device("FW1", 2, models.DeviceFirewall, "R1", "fw-ha"),
		device("FW2", 3, models.DeviceFirewall, "FW1", "fw-ha"),
	)
	if err := Validate(topo); err != nil {
		t.Fatal(err)
	}

	target, err := ResolveUpstream(topo, topo.Devices["FW2"])
	if err != nil {
		t.Fatal(err)
	}
	if target != "R1" {
		t.Errorf("upstream = %q, want R1", target)
	}

	// FW1's parent is outside the group, so it resolves directly.
	target, err = ResolveUpstream(topo, topo.Devices["FW1"])
	if err != nil {
		t.Fatal(err)
	}
	if target != "R1" {
		t.Errorf("upstream = %q, want R1", target)
	}
}

func TestResolveUpstreamGroupWithoutExit(t *testing.T) {
	topo := models.Topology{Devices: map[string]models.Device{
		"FW1": device("FW1", 1, models.DeviceFirewall, "", "fw-ha"),
		"FW2": device("FW2", 2, models.DeviceFirewall, "FW1", "fw-ha"),
	}}

	_, err := ResolveUpstream(topo, topo.Devices["FW2"])
	if err == nil {
		t.Fatal("expected error for redundancy group with no outside upstream")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if verr.Device != "FW2" {
		t.Errorf("Device = %q, want FW2", verr.Device)
	}
}

func TestParseJSON(t *testing.T) {
	data := []byte(`{
		"R1": {"layer": 1, "type": "ROUTER"},
		"S1": {"layer": 2, "type": "SWITCH", "parent_id": "R1", "metadata": {"vendor": "Cisco"}}
	}`)

	topo, err := Parse(data, "json")
	if err != nil {
		t.Fatal(err)
	}
	if topo.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", topo.Len())
	}
	s1 := topo.Devices["S1"]
	if s1.Parent != "R1" {
		t.Errorf("Parent = %q, want R1", s1.Parent)
	}
	if s1.Metadata["vendor"] != "Cisco" {
		t.Errorf("Metadata[vendor] = %q, want Cisco", s1.Metadata["vendor"])
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
R1:
  layer: 1
  type: ROUTER
S1:
  layer: 2
  type: SWITCH
  parent_id: R1
`)

	topo, err := Parse(data, "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if topo.Len() != 2 {
		t.Errorf("Len() = %d, want 2", topo.Len())
	}
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
	}{
		{"malformed json", `{"R1": `, "json"},
		{"empty document", `{}`, "json"},
		{"missing layer", `{"R1": {"type": "ROUTER"}}`, "json"},
		{"missing type", `{"R1": {"layer": 1}}`, "json"},
		{"unknown format", `{}`, "toml"},
		{"structural violation", `{"S1": {"layer": 2, "type": "SWITCH", "parent_id": "GHOST"}}`, "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data), tt.format); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadInfersFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topo.yaml")
	content := "R1:\n  layer: 1\n  type: ROUTER\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	topo, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if topo.Len() != 1 {
		t.Errorf("Len() = %d, want 1", topo.Len())
	}
}

func TestStoreReplaceKeepsPreviousOnError(t *testing.T) {
	topo, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(topo, "default")

	bad := testTopology(device("S1", 2, models.DeviceSwitch, "GHOST", ""))
	if err := store.Replace(bad, "upload"); err == nil {
		t.Fatal("expected error replacing with invalid topology")
	}

	if store.Source() != "default" {
		t.Errorf("Source() = %q, want default", store.Source())
	}
	if store.Current().Len() != 11 {
		t.Errorf("Len() = %d, want 11 (previous topology must survive)", store.Current().Len())
	}
}

func TestStoreReplaceFromDocument(t *testing.T) {
	topo, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(topo, "default")

	data := []byte(`{"R1": {"layer": 1, "type": "ROUTER"}}`)
	if err := store.ReplaceFromDocument(data, "json"); err != nil {
		t.Fatal(err)
	}
	if store.Current().Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Current().Len())
	}
	if store.Source() != "upload" {
		t.Errorf("Source() = %q, want upload", store.Source())
	}
}
