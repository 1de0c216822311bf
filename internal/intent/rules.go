package intent

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/matijazezelj/monbot/pkg/models"
)

// Rule is one row of the ordered classification table. A rule matches when
// every Match group contributes at least one keyword found in the request
// (case-insensitive substring, which also covers Japanese keywords). Rules
// are evaluated top to bottom; the first match wins.
type Rule struct {
	Intent        models.Intent `yaml:"intent"`
	Match         [][]string    `yaml:"match"`
	RequireDevice bool          `yaml:"require_device"`
}

// RuleSet is the YAML file form of the classification table.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultRules returns the built-in classification table. Keyword sets carry
// both Japanese and English signals for each intent.
func DefaultRules() []Rule {
	return []Rule{
		{
			Intent: models.IntentTopologyConfig,
			Match: [][]string{
				{"トポロジー", "topology"},
				{"設定", "監視", "configure", "monitor"},
			},
		},
		{
			Intent: models.IntentMaintenance,
			Match: [][]string{
				{"メンテナンス", "maintenance"},
			},
		},
		{
			Intent: models.IntentHostSearch,
			Match: [][]string{
				{"cpu", "メモリ", "memory", "ディスク", "disk"},
				{"超え", "高い", "以上", "exceed", "above", "over", ">"},
			},
		},
		{
			Intent: models.IntentMetrics,
			Match: [][]string{
				{"メトリクス", "状態", "metrics", "status"},
			},
			RequireDevice: true,
		},
		{
			Intent: models.IntentAlerts,
			Match: [][]string{
				{"アラート", "障害", "問題", "alert", "incident", "problem"},
			},
		},
		{
			Intent: models.IntentGraph,
			Match: [][]string{
				{"グラフ", "推移", "トレンド", "graph", "trend", "history"},
			},
		},
	}
}

// LoadRules reads a classification table from a YAML file, replacing the
// built-in table wholesale.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path from config
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(set.Rules) == 0 {
		return nil, fmt.Errorf("%s contains no rules", path)
	}

	for i, r := range set.Rules {
		if !r.Intent.Valid() || r.Intent == models.IntentUnknown {
			return nil, fmt.Errorf("%s: rule %d has invalid intent %q", path, i, r.Intent)
		}
		if len(r.Match) == 0 {
			return nil, fmt.Errorf("%s: rule %d (%s) has no match groups", path, i, r.Intent)
		}
	}

	return set.Rules, nil
}
