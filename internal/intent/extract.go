package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// deviceTokenRe matches uppercase identifier-like tokens (CORE_SW_01 style)
// used as a fallback when no known name appears in the text.
var deviceTokenRe = regexp.MustCompile(`[A-Z][A-Z0-9_-]{2,}`)

// extractDevice finds a device identifier in the text: the longest known
// name contained case-insensitively wins, otherwise the first uppercase
// identifier token. Returns "" when nothing matches.
func (c *Classifier) extractDevice(text string) string {
	lower := strings.ToLower(text)

	best := ""
	for _, name := range c.knownNames() {
		if name == "" {
			continue
		}
		if !strings.Contains(lower, strings.ToLower(name)) {
			continue
		}
		if len(name) > len(best) || (len(name) == len(best) && name < best) {
			best = name
		}
	}
	if best != "" {
		return best
	}

	return deviceTokenRe.FindString(text)
}

var durationRe = regexp.MustCompile(`(\d+)\s*(時間|hours?|hrs?|分|minutes?|mins?)`)

// extractDuration returns the first integer adjacent to a time-unit word,
// in minutes. Defaults to 60.
func extractDuration(lower string) int {
	m := durationRe.FindStringSubmatch(lower)
	if m == nil {
		return 60
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 60
	}
	if strings.HasPrefix(m[2], "時間") || strings.HasPrefix(m[2], "hour") || strings.HasPrefix(m[2], "hr") {
		n *= 60
	}
	return n
}

var thresholdRe = regexp.MustCompile(`(\d+)\s*%?`)

// extractThreshold returns the first integer token, defaulting to 80.
func extractThreshold(text string) int {
	m := thresholdRe.FindStringSubmatch(text)
	if m == nil {
		return 80
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 80
	}
	return n
}

// metricVocab maps keyword signals to canonical metric names. Ordered so
// extraction is deterministic when several keywords appear.
var metricVocab = []struct{ keyword, metric string }{
	{"cpu", "cpu"},
	{"メモリ", "memory"},
	{"memory", "memory"},
	{"ディスク", "disk"},
	{"disk", "disk"},
	{"トラフィック", "traffic"},
	{"traffic", "traffic"},
}

// extractMetric maps the text to a canonical metric name, defaulting to cpu.
func extractMetric(lower string) string {
	for _, v := range metricVocab {
		if strings.Contains(lower, v.keyword) {
			return v.metric
		}
	}
	return "cpu"
}

var belowWords = []string{"未満", "以下", "below", "under", "less", "<"}

// extractOperator returns "<" for below-style phrasing, ">" otherwise.
func extractOperator(lower string) string {
	for _, w := range belowWords {
		if strings.Contains(lower, w) {
			return "<"
		}
	}
	return ">"
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
