package assist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matijazezelj/monbot/internal/telemetry"
	"github.com/matijazezelj/monbot/pkg/models"
)

const unknownMessage = "I could not map that request to a known command. " +
	"Try asking about topology configuration, maintenance, metrics, alerts, or graphs."

func topologyConfigMessage(cfg *models.MonitoringConfig) string {
	var b strings.Builder
	b.WriteString("Generated monitoring configuration from the current topology.\n")
	fmt.Fprintf(&b, "hosts: %d\n", len(cfg.Hosts))
	fmt.Fprintf(&b, "host groups: %d\n", len(cfg.HostGroups))
	fmt.Fprintf(&b, "triggers: %d\n", len(cfg.Triggers))
	fmt.Fprintf(&b, "dependencies: %d", len(cfg.Dependencies))
	return b.String()
}

func maintenanceMessage(w models.MaintenanceWindow) string {
	return fmt.Sprintf("Scheduled maintenance for %s: %s to %s (%d minutes). Alerts for this host are suppressed for the duration.",
		w.Host,
		w.Start.Format("2006-01-02 15:04"),
		w.End.Format("2006-01-02 15:04"),
		w.DurationMinutes)
}

func hostSearchMessage(hosts []HostView, metric, operator string, threshold float64) string {
	if len(hosts) == 0 {
		return fmt.Sprintf("No hosts found with %s %s %.0f%%.", metric, operator, threshold)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d host(s) with %s %s %.0f%%:\n", len(hosts), metric, operator, threshold)
	for i, h := range hosts {
		fmt.Fprintf(&b, "%s: %.1f%% (%s)", h.ID, h.Value, h.Tier)
		if i < len(hosts)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func metricsMessage(device string, metrics []MetricView) string {
	if len(metrics) == 0 {
		return fmt.Sprintf("No metrics recorded for %s.", device)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Current metrics for %s:\n", device)
	for i, m := range metrics {
		fmt.Fprintf(&b, "%s: %.1f%% (%s)", m.Name, m.Value, m.Tier)
		if i < len(metrics)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func alertsMessage(alerts []telemetry.Alert) string {
	if len(alerts) == 0 {
		return "No active alerts."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d active alert(s):\n", len(alerts))
	for i, a := range alerts {
		fmt.Fprintf(&b, "[%s] %s: %s", a.Severity, a.Host, a.Message)
		if i < len(alerts)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func graphMessage(device, metric string, hours int, points []telemetry.Point) string {
	peak := telemetry.Peak(points)
	return fmt.Sprintf("%s %s over the last %d hours: %d samples, peak %.1f%% at %s.",
		device, metric, hours, len(points), peak.Value, peak.Timestamp.Format("15:04"))
}

func sortedMetricNames(metrics map[string]float64) []string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
