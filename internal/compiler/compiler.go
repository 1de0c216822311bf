// Package compiler turns a device topology into a flat monitoring
// configuration: hosts, host groups, triggers and dependency edges. Compile
// is pure and deterministic — the same topology always yields an identical
// configuration.
package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matijazezelj/monbot/internal/topology"
	"github.com/matijazezelj/monbot/pkg/models"
)

// Compile builds a MonitoringConfig from the topology using the default rule
// table. Returns a *topology.ValidationError on structural violations.
func Compile(topo models.Topology) (*models.MonitoringConfig, error) {
	return CompileWith(topo, DefaultRules())
}

// CompileWith builds a MonitoringConfig using a custom trigger rule table.
func CompileWith(topo models.Topology, rules *RuleTable) (*models.MonitoringConfig, error) {
	if err := topology.Validate(topo); err != nil {
		return nil, err
	}

	names := topo.Names()
	cfg := &models.MonitoringConfig{}

	groups := collectGroups(topo, names)

	for _, name := range names {
		dev := topo.Devices[name]
		cfg.Hosts = append(cfg.Hosts, buildHost(dev))
		cfg.Triggers = append(cfg.Triggers, buildTriggers(dev, rules)...)
	}

	cfg.HostGroups = groups

	for _, name := range names {
		dev := topo.Devices[name]
		if dev.Parent == "" {
			continue
		}
		upstream, err := topology.ResolveUpstream(topo, dev)
		if err != nil {
			return nil, err
		}
		cfg.Dependencies = append(cfg.Dependencies, models.Dependency{
			Host:      dev.Name,
			DependsOn: upstream,
		})
	}

	return cfg, nil
}

// LayerTypeGroupName derives the deterministic group name for a
// (layer, type) bucket.
func LayerTypeGroupName(layer int, typ models.DeviceType) string {
	return fmt.Sprintf("Network/Layer%d/%s", layer, typ)
}

// kindRank fixes the ordering of group kinds in the output.
var kindRank = map[string]int{"layer-type": 0, "vendor": 1, "location": 2, "ha": 3}

func collectGroups(topo models.Topology, names []string) []models.HostGroup {
	type bucket struct {
		kind    string
		members []string
	}
	buckets := make(map[string]*bucket)

	add := func(groupName, kind, member string) {
		b, ok := buckets[groupName]
		if !ok {
			b = &bucket{kind: kind}
			buckets[groupName] = b
		}
		b.members = append(b.members, member)
	}

	for _, name := range names {
		dev := topo.Devices[name]
		add(LayerTypeGroupName(dev.Layer, dev.Type), "layer-type", name)
		if v := dev.Metadata["vendor"]; v != "" {
			add("Vendor/"+v, "vendor", name)
		}
		if l := dev.Metadata["location"]; l != "" {
			add("Location/"+l, "location", name)
		}
		if dev.RedundancyGroup != "" {
			add("HA/"+dev.RedundancyGroup, "ha", name)
		}
	}

	groupNames := make([]string, 0, len(buckets))
	for name := range buckets {
		groupNames = append(groupNames, name)
	}
	sort.Slice(groupNames, func(i, j int) bool {
		a, b := buckets[groupNames[i]], buckets[groupNames[j]]
		if a.kind != b.kind {
			return kindRank[a.kind] < kindRank[b.kind]
		}
		return groupNames[i] < groupNames[j]
	})

	out := make([]models.HostGroup, 0, len(groupNames))
	for _, name := range groupNames {
		b := buckets[name]
		sort.Strings(b.members)
		out = append(out, models.HostGroup{Name: name, Kind: b.kind, Members: b.members})
	}
	return out
}

func buildHost(dev models.Device) models.Host {
	host := models.Host{
		Name:      dev.Name,
		Templates: templatesFor(dev),
		Tags: []models.Tag{
			{Tag: "layer", Value: fmt.Sprintf("%d", dev.Layer)},
			{Tag: "type", Value: string(dev.Type)},
		},
		Metadata: dev.Metadata,
	}

	host.Groups = append(host.Groups, LayerTypeGroupName(dev.Layer, dev.Type))
	if v := dev.Metadata["vendor"]; v != "" {
		host.Groups = append(host.Groups, "Vendor/"+v)
		host.Tags = append(host.Tags, models.Tag{Tag: "vendor", Value: v})
	}
	if l := dev.Metadata["location"]; l != "" {
		host.Groups = append(host.Groups, "Location/"+l)
	}
	if dev.RedundancyGroup != "" {
		host.Groups = append(host.Groups, "HA/"+dev.RedundancyGroup)
	}
	if m := dev.Metadata["model"]; m != "" {
		host.Tags = append(host.Tags, models.Tag{Tag: "model", Value: m})
	}

	return host
}

func buildTriggers(dev models.Device, rules *RuleTable) []models.Trigger {
	var specs []TriggerSpec
	specs = append(specs, rules.Common...)
	specs = append(specs, rules.PerType[dev.Type]...)
	if dev.RedundancyGroup != "" {
		specs = append(specs, rules.Redundant...)
	}

	out := make([]models.Trigger, 0, len(specs))
	for _, spec := range specs {
		severity := spec.Severity
		if spec.CoreSeverity != "" && dev.Layer <= CoreLayerMax {
			severity = spec.CoreSeverity
		}
		out = append(out, models.Trigger{
			Host:       dev.Name,
			Name:       expand(spec.Name, dev.Name),
			Expression: expand(spec.Expression, dev.Name),
			Severity:   severity,
		})
	}
	return out
}

func expand(template, host string) string {
	return strings.ReplaceAll(template, "{host}", host)
}
