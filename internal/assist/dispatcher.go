// Package assist dispatches classified commands: cache lookup first, then
// execution against the topology compiler or the telemetry store, then cache
// store. Responses use fixed templates.
package assist

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/matijazezelj/monbot/internal/compiler"
	"github.com/matijazezelj/monbot/internal/intent"
	"github.com/matijazezelj/monbot/internal/notify"
	"github.com/matijazezelj/monbot/internal/session"
	"github.com/matijazezelj/monbot/internal/telemetry"
	"github.com/matijazezelj/monbot/pkg/models"
)

// HostView is a host listed in a search result, colored by threshold tier.
type HostView struct {
	ID     string  `json:"id"`
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	Tier   string  `json:"tier"`
}

// MetricView is one metric of a host, colored by threshold tier.
type MetricView struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Tier  string  `json:"tier"`
}

// Result is the structured payload produced for one request. Error carries a
// reported (non-fatal) input error such as a topology validation failure;
// results with a non-empty Error are never cached.
type Result struct {
	Command     models.Command            `json:"command"`
	Cached      bool                      `json:"cached"`
	Message     string                    `json:"message"`
	Error       string                    `json:"error,omitempty"`
	Config      *models.MonitoringConfig  `json:"config,omitempty"`
	Hosts       []HostView                `json:"hosts,omitempty"`
	Metrics     []MetricView              `json:"metrics,omitempty"`
	Alerts      []telemetry.Alert         `json:"alerts,omitempty"`
	History     []telemetry.Point         `json:"history,omitempty"`
	Maintenance *models.MaintenanceWindow `json:"maintenance,omitempty"`
}

// Thresholds are the red/yellow display boundaries for metric coloring.
type Thresholds struct {
	Red    float64
	Yellow float64
}

// Dispatcher executes commands for sessions.
type Dispatcher struct {
	store      *telemetry.Store
	rules      []intent.Rule
	llm        *intent.LLMClient
	notifier   notify.Notifier
	thresholds Thresholds
	logger     *slog.Logger

	now func() time.Time

	// execCount counts real executions (cache misses); used by tests to
	// verify that cache hits skip recomputation.
	execCount int
}

// New creates a Dispatcher. llm and notifier may be nil.
func New(store *telemetry.Store, rules []intent.Rule, llm *intent.LLMClient, notifier notify.Notifier, thresholds Thresholds, logger *slog.Logger) *Dispatcher {
	if thresholds.Red == 0 {
		thresholds.Red = 90
	}
	if thresholds.Yellow == 0 {
		thresholds.Yellow = 80
	}
	return &Dispatcher{
		store:      store,
		rules:      rules,
		llm:        llm,
		notifier:   notifier,
		thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle processes one request for a session: classify, consult the session
// cache, execute on miss, store, and record the request in the audit log.
func (d *Dispatcher) Handle(ctx context.Context, sess *session.Session, text string) (*Result, error) {
	sess.Touch()

	cmd := d.resolve(ctx, sess, text)

	if entry, ok := sess.Cache.Lookup(cmd.Fingerprint); ok {
		cached, okType := entry.Result.(*Result)
		if okType {
			d.audit(ctx, sess, cmd, true)
			copied := *cached
			copied.Cached = true
			return &copied, nil
		}
		// An entry of the wrong shape means the cache was populated by an
		// incompatible writer; treat as a miss and overwrite below.
	}

	res, err := d.execute(ctx, sess, cmd)
	if err != nil {
		return nil, err
	}

	if res.Error == "" {
		sess.Cache.Store(cmd, res)
	}
	d.audit(ctx, sess, cmd, false)
	return res, nil
}

// ClearCache flushes the session command cache. Idempotent.
func (d *Dispatcher) ClearCache(sess *session.Session) {
	sess.Cache.Clear()
}

func (d *Dispatcher) resolve(ctx context.Context, sess *session.Session, text string) models.Command {
	hostNames, err := d.store.HostNames(ctx)
	if err != nil {
		d.logger.Warn("listing host names for entity matching", "error", err)
	}
	names := append(sess.Topology.Current().Names(), hostNames...)

	classifier := intent.New(d.rules, func() []string { return names })
	resolver := intent.NewResolver(classifier, d.llm, d.logger)
	return resolver.Resolve(ctx, text)
}

func (d *Dispatcher) audit(ctx context.Context, sess *session.Session, cmd models.Command, cached bool) {
	err := d.store.RecordRequest(ctx, telemetry.RequestRecord{
		Session:     sess.ID,
		Intent:      string(cmd.Intent),
		Fingerprint: cmd.Fingerprint,
		Cached:      cached,
	})
	if err != nil {
		d.logger.Warn("recording request", "error", err)
	}
}

func (d *Dispatcher) execute(ctx context.Context, sess *session.Session, cmd models.Command) (*Result, error) {
	d.execCount++
	res := &Result{Command: cmd}

	switch cmd.Intent {
	case models.IntentTopologyConfig:
		d.executeTopologyConfig(sess, res)
	case models.IntentMaintenance:
		if err := d.executeMaintenance(ctx, sess, cmd, res); err != nil {
			return nil, err
		}
	case models.IntentHostSearch:
		if err := d.executeHostSearch(ctx, cmd, res); err != nil {
			return nil, err
		}
	case models.IntentMetrics:
		if err := d.executeMetrics(ctx, cmd, res); err != nil {
			return nil, err
		}
	case models.IntentAlerts:
		if err := d.executeAlerts(ctx, res); err != nil {
			return nil, err
		}
	case models.IntentGraph:
		if err := d.executeGraph(ctx, cmd, res); err != nil {
			return nil, err
		}
	default:
		res.Message = unknownMessage
	}

	return res, nil
}

func (d *Dispatcher) executeTopologyConfig(sess *session.Session, res *Result) {
	cfg, err := compiler.Compile(sess.Topology.Current())
	if err != nil {
		res.Error = err.Error()
		res.Message = fmt.Sprintf("Topology validation failed: %v", err)
		return
	}
	res.Config = cfg
	res.Message = topologyConfigMessage(cfg)
}

func (d *Dispatcher) executeMaintenance(ctx context.Context, sess *session.Session, cmd models.Command, res *Result) error {
	device := cmd.Parameters["device"]
	if device == "" {
		device = intent.DefaultMaintenanceDevice
	}
	duration, err := strconv.Atoi(cmd.Parameters["duration_minutes"])
	if err != nil || duration <= 0 {
		duration = 60
	}

	start := d.now()
	window := models.MaintenanceWindow{
		Host:            device,
		Start:           start,
		End:             start.Add(time.Duration(duration) * time.Minute),
		DurationMinutes: duration,
	}
	if err := d.store.SetMaintenance(ctx, window); err != nil {
		return fmt.Errorf("storing maintenance window: %w", err)
	}

	res.Maintenance = &window
	res.Message = maintenanceMessage(window)

	if d.notifier != nil {
		event := notify.Event{
			Source:    "monbot",
			EventType: notify.EventMaintenanceScheduled,
			Session:   sess.ID,
			Message:   fmt.Sprintf("Maintenance scheduled for %s (%d minutes)", device, duration),
			Details: map[string]string{
				"device":           device,
				"duration_minutes": strconv.Itoa(duration),
			},
			Timestamp: d.now(),
		}
		if err := d.notifier.Send(ctx, event); err != nil {
			d.logger.Warn("sending maintenance notification", "error", err)
		}
	}
	return nil
}

func (d *Dispatcher) executeHostSearch(ctx context.Context, cmd models.Command, res *Result) error {
	metric := cmd.Parameters["metric"]
	operator := cmd.Parameters["operator"]
	threshold, err := strconv.ParseFloat(cmd.Parameters["threshold"], 64)
	if err != nil {
		threshold = 80
	}

	matches, err := d.store.SearchHosts(ctx, metric, operator, threshold)
	if err != nil {
		return fmt.Errorf("searching hosts: %w", err)
	}

	for _, m := range matches {
		res.Hosts = append(res.Hosts, HostView{
			ID:     m.ID,
			Metric: m.Metric,
			Value:  m.Value,
			Tier:   telemetry.Tier(m.Value, d.thresholds.Red, d.thresholds.Yellow),
		})
	}
	res.Message = hostSearchMessage(res.Hosts, metric, operator, threshold)
	return nil
}

func (d *Dispatcher) executeMetrics(ctx context.Context, cmd models.Command, res *Result) error {
	device := cmd.Parameters["device"]
	host, err := d.store.GetHost(ctx, device)
	if err != nil {
		return fmt.Errorf("getting host %s: %w", device, err)
	}
	if host == nil {
		res.Message = fmt.Sprintf("Host %s was not found.", device)
		return nil
	}

	for _, name := range sortedMetricNames(host.Metrics) {
		value := host.Metrics[name]
		res.Metrics = append(res.Metrics, MetricView{
			Name:  name,
			Value: value,
			Tier:  telemetry.Tier(value, d.thresholds.Red, d.thresholds.Yellow),
		})
	}
	res.Message = metricsMessage(device, res.Metrics)
	return nil
}

func (d *Dispatcher) executeAlerts(ctx context.Context, res *Result) error {
	alerts, err := d.store.Alerts(ctx)
	if err != nil {
		return fmt.Errorf("listing alerts: %w", err)
	}
	res.Alerts = alerts
	res.Message = alertsMessage(alerts)
	return nil
}

func (d *Dispatcher) executeGraph(ctx context.Context, cmd models.Command, res *Result) error {
	device := cmd.Parameters["device"]
	metric := cmd.Parameters["metric"]
	hours, err := strconv.Atoi(cmd.Parameters["hours"])
	if err != nil || hours <= 0 {
		hours = 24
	}

	base := 50.0
	host, err := d.store.GetHost(ctx, device)
	if err != nil {
		return fmt.Errorf("getting host %s: %w", device, err)
	}
	if host != nil {
		if v, ok := host.Metrics[metric]; ok {
			base = v
		}
	}

	res.History = telemetry.History(device, metric, base, hours, d.now())
	res.Message = graphMessage(device, metric, hours, res.History)
	return nil
}
