package models

import (
	"sort"
	"time"
)

// DeviceType represents the kind of network device in a topology.
type DeviceType string

// Device type constants for topology nodes.
const (
	DeviceRouter      DeviceType = "ROUTER"
	DeviceFirewall    DeviceType = "FIREWALL"
	DeviceSwitch      DeviceType = "SWITCH"
	DeviceAccessPoint DeviceType = "ACCESS_POINT"
)

// Valid reports whether t is one of the known device types.
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceRouter, DeviceFirewall, DeviceSwitch, DeviceAccessPoint:
		return true
	}
	return false
}

// Device is a single node in the device topology. Parent is the name of the
// upstream device; an empty Parent marks a root. Devices sharing a
// RedundancyGroup act as HA peers and never depend on each other.
type Device struct {
	Name            string            `json:"name" yaml:"name"`
	Layer           int               `json:"layer" yaml:"layer"`
	Type            DeviceType        `json:"type" yaml:"type"`
	Parent          string            `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	RedundancyGroup string            `json:"redundancy_group,omitempty" yaml:"redundancy_group,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Topology is the device graph, keyed by device name.
type Topology struct {
	Devices map[string]Device `json:"devices"`
}

// Names returns all device names in sorted order.
func (t Topology) Names() []string {
	names := make([]string, 0, len(t.Devices))
	for name := range t.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of devices.
func (t Topology) Len() int {
	return len(t.Devices)
}

// Severity is a trigger or alert severity level.
type Severity string

// Severity constants, ordered from most to least urgent.
const (
	SeverityHigh    Severity = "high"
	SeverityAverage Severity = "average"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Tag is a key/value label attached to a generated host.
type Tag struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// Host is one monitored host in the compiled configuration, 1:1 with a device.
type Host struct {
	Name      string            `json:"name"`
	Groups    []string          `json:"groups"`
	Templates []string          `json:"templates"`
	Tags      []Tag             `json:"tags"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// HostGroup is a named group of hosts. Kind records the grouping dimension
// (layer-type, vendor, location, ha).
type HostGroup struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Members []string `json:"members"`
}

// Trigger is a generated alerting rule referencing exactly one host.
type Trigger struct {
	Host       string   `json:"host"`
	Name       string   `json:"name"`
	Expression string   `json:"expression"`
	Severity   Severity `json:"severity"`
}

// Dependency is a directed edge: Host's availability depends on DependsOn.
type Dependency struct {
	Host      string `json:"host"`
	DependsOn string `json:"depends_on"`
}

// MonitoringConfig is the compiler output: a flat monitoring configuration
// derived purely from a Topology.
type MonitoringConfig struct {
	Hosts        []Host       `json:"hosts"`
	HostGroups   []HostGroup  `json:"host_groups"`
	Triggers     []Trigger    `json:"triggers"`
	Dependencies []Dependency `json:"dependencies"`
}

// Intent is the canonical category a free-text request is classified into.
type Intent string

// Intent constants in rule-priority order.
const (
	IntentTopologyConfig Intent = "topology_config"
	IntentMaintenance    Intent = "maintenance"
	IntentHostSearch     Intent = "host_search"
	IntentMetrics        Intent = "metrics"
	IntentAlerts         Intent = "alerts"
	IntentGraph          Intent = "graph"
	IntentUnknown        Intent = "unknown"
)

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentTopologyConfig, IntentMaintenance, IntentHostSearch,
		IntentMetrics, IntentAlerts, IntentGraph, IntentUnknown:
		return true
	}
	return false
}

// Command is a classified request: an intent, its extracted parameters, and
// the canonical fingerprint used as the cache key.
type Command struct {
	Intent      Intent            `json:"intent"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Fingerprint string            `json:"fingerprint"`
}

// MaintenanceWindow is a scheduled maintenance period for one host.
type MaintenanceWindow struct {
	Host            string    `json:"host"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}
