package compiler

import "github.com/matijazezelj/monbot/pkg/models"

// TriggerSpec is one row of the trigger rule table. Name and Expression are
// templates where "{host}" expands to the host name. When CoreSeverity is
// set, devices at or above the core layers (layer <= CoreLayerMax) get it
// instead of Severity.
type TriggerSpec struct {
	Name         string          `yaml:"name"`
	Expression   string          `yaml:"expression"`
	Severity     models.Severity `yaml:"severity"`
	CoreSeverity models.Severity `yaml:"core_severity,omitempty"`
}

// CoreLayerMax is the deepest layer still considered core infrastructure for
// severity escalation.
const CoreLayerMax = 2

// RuleTable drives trigger generation. Common rules apply to every device,
// PerType rules are keyed by device type, and Redundant rules apply to
// members of a redundancy group. Extending coverage to a new device type is
// a table change, not a code change.
type RuleTable struct {
	Common    []TriggerSpec                       `yaml:"common"`
	PerType   map[models.DeviceType][]TriggerSpec `yaml:"per_type"`
	Redundant []TriggerSpec                       `yaml:"redundant"`
}

// DefaultRules returns the built-in trigger rule table.
func DefaultRules() *RuleTable {
	baseline := []TriggerSpec{
		{
			Name:       "{host} CPU usage is high",
			Expression: "last(/{host}/system.cpu.util)>80",
			Severity:   models.SeverityWarning,
		},
		{
			Name:       "{host} memory usage is high",
			Expression: "last(/{host}/vm.memory.util)>90",
			Severity:   models.SeverityWarning,
		},
		{
			Name:       "{host} interface errors detected",
			Expression: "avg(/{host}/net.if.errors,5m)>10",
			Severity:   models.SeverityWarning,
		},
	}

	return &RuleTable{
		Common: []TriggerSpec{
			{
				Name:         "{host} is unreachable",
				Expression:   "nodata(/{host}/icmp.ping,5m)=1",
				Severity:     models.SeverityAverage,
				CoreSeverity: models.SeverityHigh,
			},
		},
		PerType: map[models.DeviceType][]TriggerSpec{
			models.DeviceRouter: baseline,
			models.DeviceSwitch: baseline,
			models.DeviceFirewall: append(append([]TriggerSpec{}, baseline...), TriggerSpec{
				Name:       "{host} connection count is high",
				Expression: "last(/{host}/fw.connections.active)>500000",
				Severity:   models.SeverityAverage,
			}),
			models.DeviceAccessPoint: {
				{
					Name:       "{host} client count is high",
					Expression: "last(/{host}/wlan.clients.connected)>120",
					Severity:   models.SeverityWarning,
				},
			},
		},
		Redundant: []TriggerSpec{
			{
				Name:       "HA failover detected - {host}",
				Expression: "change(/{host}/ha.role,1h)<>0",
				Severity:   models.SeverityWarning,
			},
		},
	}
}

type templateKey struct {
	vendor string
	typ    models.DeviceType
}

// templateTable maps (vendor, device type) to monitoring templates. Lookup
// falls back to ("default", type) and finally to ICMP-only.
var templateTable = map[templateKey][]string{
	{"Cisco", models.DeviceRouter}:          {"Template Cisco IOS-XE SNMP", "Template ICMP Ping"},
	{"Cisco", models.DeviceSwitch}:          {"Template Cisco Catalyst SNMP", "Template ICMP Ping"},
	{"Juniper", models.DeviceFirewall}:      {"Template Juniper SRX SNMP", "Template ICMP Ping"},
	{"default", models.DeviceRouter}:        {"Template Generic SNMP Router", "Template ICMP Ping"},
	{"default", models.DeviceSwitch}:        {"Template Generic SNMP Switch", "Template ICMP Ping"},
	{"default", models.DeviceFirewall}:      {"Template Generic SNMP Firewall", "Template ICMP Ping"},
	{"default", models.DeviceAccessPoint}:   {"Template Generic SNMP AP", "Template ICMP Ping"},
}

// templatesFor resolves the template list for a device.
func templatesFor(dev models.Device) []string {
	vendor := dev.Metadata["vendor"]
	if vendor != "" {
		if tpls, ok := templateTable[templateKey{vendor, dev.Type}]; ok {
			return tpls
		}
	}
	if tpls, ok := templateTable[templateKey{"default", dev.Type}]; ok {
		return tpls
	}
	return []string{"Template ICMP Ping"}
}
