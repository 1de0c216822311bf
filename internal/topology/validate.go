package topology

import (
	"fmt"

	"github.com/matijazezelj/monbot/pkg/models"
)

// ValidationError reports a structural violation in a topology, naming the
// offending device.
type ValidationError struct {
	Device string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("device %q: %s", e.Device, e.Reason)
}

// Validate checks the structural invariants of a topology in one pass over
// the devices (sorted by name, so the first violation reported is stable):
// known device type, layer ≥ 1, parent exists, parent layer strictly below
// the child's, and no cycles in the parent relation.
func Validate(t models.Topology) error {
	for _, name := range t.Names() {
		dev := t.Devices[name]

		if !dev.Type.Valid() {
			return &ValidationError{Device: name, Reason: fmt.Sprintf("unknown device type %q", dev.Type)}
		}
		if dev.Layer < 1 {
			return &ValidationError{Device: name, Reason: fmt.Sprintf("layer must be >= 1, got %d", dev.Layer)}
		}
		if dev.Parent == "" {
			continue
		}
		if dev.Parent == name {
			return &ValidationError{Device: name, Reason: "device is its own parent"}
		}
		parent, ok := t.Devices[dev.Parent]
		if !ok {
			return &ValidationError{Device: name, Reason: fmt.Sprintf("parent %q does not exist", dev.Parent)}
		}
		if parent.Layer >= dev.Layer {
			return &ValidationError{
				Device: name,
				Reason: fmt.Sprintf("layer %d must be greater than parent %q layer %d", dev.Layer, dev.Parent, parent.Layer),
			}
		}
	}

	// Cycle detection over the parent relation. Layer ordering already rules
	// out cycles among fully layer-valid devices, but the walk keeps the
	// check independent of which violation is hit first.
	for _, name := range t.Names() {
		seen := map[string]bool{name: true}
		current := t.Devices[name].Parent
		for current != "" {
			if seen[current] {
				return &ValidationError{Device: name, Reason: fmt.Sprintf("cycle in parent chain at %q", current)}
			}
			seen[current] = true
			next, ok := t.Devices[current]
			if !ok {
				break
			}
			current = next.Parent
		}
	}

	return nil
}

// ResolveUpstream returns the dependency target for a device: its parent,
// unless the parent is an HA peer (same redundancy group), in which case the
// chain is followed upward until it leaves the group. Peers must never depend
// on each other.
func ResolveUpstream(t models.Topology, dev models.Device) (string, error) {
	target := dev.Parent
	for target != "" {
		upstream, ok := t.Devices[target]
		if !ok {
			return "", &ValidationError{Device: dev.Name, Reason: fmt.Sprintf("parent %q does not exist", target)}
		}
		if dev.RedundancyGroup == "" || upstream.RedundancyGroup != dev.RedundancyGroup {
			return target, nil
		}
		target = upstream.Parent
	}
	return "", &ValidationError{
		Device: dev.Name,
		Reason: fmt.Sprintf("redundancy group %q has no upstream outside the group", dev.RedundancyGroup),
	}
}
