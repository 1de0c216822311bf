// Package intent classifies free-text requests into canonical commands. The
// classifier is an ordered rule table over keyword signals; parameters are
// extracted per intent and folded into a deterministic fingerprint that
// serves as the command cache key.
package intent

import (
	"sort"
	"strings"

	"github.com/matijazezelj/monbot/pkg/models"
)

// DefaultMaintenanceDevice is assumed when a maintenance request names no
// recognizable device.
const DefaultMaintenanceDevice = "WAN_ROUTER_01"

// Classifier maps request text to a Command. It is pure: the only state is
// the rule table and the name sets used for entity matching.
type Classifier struct {
	rules      []Rule
	knownNames func() []string
}

// New creates a Classifier. knownNames supplies the current device/host
// identifiers for entity extraction; it may be nil.
func New(rules []Rule, knownNames func() []string) *Classifier {
	if knownNames == nil {
		knownNames = func() []string { return nil }
	}
	return &Classifier{rules: rules, knownNames: knownNames}
}

// Classify maps text to a Command with a fully populated fingerprint. Two
// requests that classify to the same intent with the same normalized
// parameters share a fingerprint; unmatched requests degrade to
// IntentUnknown fingerprinted on the normalized text alone.
func (c *Classifier) Classify(text string) models.Command {
	lower := strings.ToLower(text)

	for _, rule := range c.rules {
		if !ruleMatches(rule, lower) {
			continue
		}
		device := c.extractDevice(text)
		if rule.RequireDevice && device == "" {
			continue
		}

		params := c.extractParams(rule.Intent, text, lower, device)
		return models.Command{
			Intent:      rule.Intent,
			Parameters:  params,
			Fingerprint: Fingerprint(rule.Intent, params),
		}
	}

	normalized := NormalizeText(text)
	return models.Command{
		Intent:      models.IntentUnknown,
		Parameters:  map[string]string{"query": normalized},
		Fingerprint: string(models.IntentUnknown) + "|" + normalized,
	}
}

func ruleMatches(rule Rule, lower string) bool {
	for _, group := range rule.Match {
		found := false
		for _, keyword := range group {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (c *Classifier) extractParams(in models.Intent, text, lower, device string) map[string]string {
	params := map[string]string{}

	switch in {
	case models.IntentMaintenance:
		if device == "" {
			device = DefaultMaintenanceDevice
		}
		params["device"] = device
		params["duration_minutes"] = itoa(extractDuration(lower))
	case models.IntentHostSearch:
		params["metric"] = extractMetric(lower)
		params["operator"] = extractOperator(lower)
		params["threshold"] = itoa(extractThreshold(text))
	case models.IntentMetrics:
		params["device"] = device
	case models.IntentGraph:
		if device == "" {
			device = DefaultMaintenanceDevice
		}
		params["device"] = device
		params["metric"] = extractMetric(lower)
		params["hours"] = "24"
	case models.IntentTopologyConfig, models.IntentAlerts:
		// No parameters.
	}

	return params
}

// Fingerprint derives the canonical cache key for an intent and its
// normalized parameters: intent id plus sorted key=value pairs.
func Fingerprint(in models.Intent, params map[string]string) string {
	if len(params) == 0 {
		return string(in) + "|"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return string(in) + "|" + strings.Join(pairs, ",")
}

// NormalizeText lower-cases and whitespace-collapses request text. It is the
// fingerprint basis for unknown requests: verbatim-equivalent phrasings
// collapse, paraphrases do not.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
