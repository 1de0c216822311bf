package intent

import (
	"reflect"
	"testing"

	"github.com/matijazezelj/monbot/pkg/models"
)

func testClassifier() *Classifier {
	names := []string{
		"WAN_ROUTER_01", "CORE_SW_01", "CORE_SW_02",
		"FLOOR_SW_01", "AP_01",
	}
	return New(DefaultRules(), func() []string { return names })
}

func TestClassify(t *testing.T) {
	c := testClassifier()

	tests := []struct {
		text   string
		intent models.Intent
		params map[string]string
	}{
		{
			text:   "ネットワークトポロジーから監視設定を作って",
			intent: models.IntentTopologyConfig,
			params: map[string]string{},
		},
		{
			text:   "generate monitoring config from the topology",
			intent: models.IntentTopologyConfig,
			params: map[string]string{},
		},
		{
			text:   "WAN_ROUTER_01を2時間メンテナンスモードにして",
			intent: models.IntentMaintenance,
			params: map[string]string{"device": "WAN_ROUTER_01", "duration_minutes": "120"},
		},
		{
			text:   "schedule maintenance for 30 minutes",
			intent: models.IntentMaintenance,
			params: map[string]string{"device": "WAN_ROUTER_01", "duration_minutes": "30"},
		},
		{
			text:   "CPU80%超えてるサーバー教えて",
			intent: models.IntentHostSearch,
			params: map[string]string{"metric": "cpu", "operator": ">", "threshold": "80"},
		},
		{
			text:   "which hosts have memory above 90",
			intent: models.IntentHostSearch,
			params: map[string]string{"metric": "memory", "operator": ">", "threshold": "90"},
		},
		{
			text:   "CORE_SW_01のメトリクス見せて",
			intent: models.IntentMetrics,
			params: map[string]string{"device": "CORE_SW_01"},
		},
		{
			text:   "CORE_SW_01の状態を見せて",
			intent: models.IntentMetrics,
			params: map[string]string{"device": "CORE_SW_01"},
		},
		{
			text:   "アラート見せて",
			intent: models.IntentAlerts,
			params: map[string]string{},
		},
		{
			text:   "any open problems?",
			intent: models.IntentAlerts,
			params: map[string]string{},
		},
		{
			text:   "CORE_SW_01のCPU推移をグラフで",
			intent: models.IntentGraph,
			params: map[string]string{"device": "CORE_SW_01", "metric": "cpu", "hours": "24"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd := c.Classify(tt.text)
			if cmd.Intent != tt.intent {
				t.Fatalf("intent = %q, want %q", cmd.Intent, tt.intent)
			}
			if !reflect.DeepEqual(cmd.Parameters, tt.params) {
				t.Errorf("params = %v, want %v", cmd.Parameters, tt.params)
			}
			if cmd.Fingerprint != Fingerprint(tt.intent, tt.params) {
				t.Errorf("fingerprint = %q", cmd.Fingerprint)
			}
		})
	}
}

func TestClassifyEquivalentPhrasingsShareFingerprint(t *testing.T) {
	c := testClassifier()

	a := c.Classify("CORE_SW_01のメトリクス見せて")
	b := c.Classify("CORE_SW_01の状態を見せて")

	if a.Fingerprint != b.Fingerprint {
		t.Errorf("fingerprints differ: %q vs %q", a.Fingerprint, b.Fingerprint)
	}
	if a.Fingerprint != "metrics|device=CORE_SW_01" {
		t.Errorf("fingerprint = %q, want metrics|device=CORE_SW_01", a.Fingerprint)
	}
}

func TestClassifyUnknown(t *testing.T) {
	c := testClassifier()

	cmd := c.Classify("  Hello   THERE ")
	if cmd.Intent != models.IntentUnknown {
		t.Fatalf("intent = %q, want unknown", cmd.Intent)
	}
	if cmd.Parameters["query"] != "hello there" {
		t.Errorf("query = %q, want %q", cmd.Parameters["query"], "hello there")
	}
	if cmd.Fingerprint != "unknown|hello there" {
		t.Errorf("fingerprint = %q", cmd.Fingerprint)
	}

	// Whitespace and case variants collapse; paraphrases do not.
	other := c.Classify("hello there")
	if other.Fingerprint != cmd.Fingerprint {
		t.Errorf("normalized variants differ: %q vs %q", other.Fingerprint, cmd.Fingerprint)
	}
	para := c.Classify("hi there")
	if para.Fingerprint == cmd.Fingerprint {
		t.Error("paraphrase unexpectedly shares a fingerprint")
	}
}

func TestClassifyMetricsWithoutDeviceFallsThrough(t *testing.T) {
	c := New(DefaultRules(), nil)

	// The metrics rule requires a device; without one the request degrades
	// to unknown rather than producing an unanchored command.
	cmd := c.Classify("状態を見せて")
	if cmd.Intent != models.IntentUnknown {
		t.Errorf("intent = %q, want unknown", cmd.Intent)
	}
}

func TestFingerprintSortsParameters(t *testing.T) {
	fp := Fingerprint(models.IntentGraph, map[string]string{
		"metric": "cpu", "device": "CORE_SW_01", "hours": "24",
	})
	if fp != "graph|device=CORE_SW_01,hours=24,metric=cpu" {
		t.Errorf("fingerprint = %q", fp)
	}

	if fp := Fingerprint(models.IntentAlerts, nil); fp != "alerts|" {
		t.Errorf("empty-param fingerprint = %q", fp)
	}
}

func TestExtractDevice(t *testing.T) {
	c := New(nil, func() []string { return []string{"CORE_SW", "CORE_SW_01"} })

	// Longest known name wins.
	if got := c.extractDevice("core_sw_01の状態"); got != "CORE_SW_01" {
		t.Errorf("device = %q, want CORE_SW_01", got)
	}

	// Unknown names fall back to the uppercase token pattern.
	bare := New(nil, nil)
	if got := bare.extractDevice("please check EDGE_FW_99 now"); got != "EDGE_FW_99" {
		t.Errorf("device = %q, want EDGE_FW_99", got)
	}
	if got := bare.extractDevice("nothing here"); got != "" {
		t.Errorf("device = %q, want empty", got)
	}
}

func TestExtractDuration(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"2時間メンテナンス", 120},
		{"30分だけ", 30},
		{"for 2 hours", 120},
		{"for 45 minutes", 45},
		{"メンテナンスして", 60},
	}
	for _, tt := range tests {
		if got := extractDuration(tt.text); got != tt.want {
			t.Errorf("extractDuration(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestExtractThreshold(t *testing.T) {
	if got := extractThreshold("CPU90%超え"); got != 90 {
		t.Errorf("threshold = %d, want 90", got)
	}
	if got := extractThreshold("cpu高いやつ"); got != 80 {
		t.Errorf("threshold = %d, want 80 (default)", got)
	}
}

func TestExtractMetricAndOperator(t *testing.T) {
	if got := extractMetric("メモリ使用率"); got != "memory" {
		t.Errorf("metric = %q, want memory", got)
	}
	if got := extractMetric("何か"); got != "cpu" {
		t.Errorf("metric = %q, want cpu (default)", got)
	}
	if got := extractOperator("50%以下のホスト"); got != "<" {
		t.Errorf("operator = %q, want <", got)
	}
	if got := extractOperator("80%超え"); got != ">" {
		t.Errorf("operator = %q, want >", got)
	}
}

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules("testdata/rules.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(rules))
	}
	if rules[0].Intent != models.IntentMaintenance {
		t.Errorf("rules[0].Intent = %q, want maintenance", rules[0].Intent)
	}

	c := New(rules, nil)
	if cmd := c.Classify("アラート見せて"); cmd.Intent != models.IntentAlerts {
		t.Errorf("intent = %q, want alerts", cmd.Intent)
	}
}

func TestLoadRulesRejectsInvalidIntent(t *testing.T) {
	if _, err := LoadRules("testdata/rules_invalid.yaml"); err == nil {
		t.Error("expected error for unknown intent")
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	if _, err := LoadRules("testdata/nope.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
