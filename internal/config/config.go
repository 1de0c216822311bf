package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Storage    StorageConfig    `mapstructure:"storage"`
	Data       DataConfig       `mapstructure:"data"`
	Intent     IntentConfig     `mapstructure:"intent"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Server     ServerConfig     `mapstructure:"server"`
}

type StorageConfig struct {
	Path     string         `mapstructure:"path"`
	Memgraph MemgraphConfig `mapstructure:"memgraph"`
}

type MemgraphConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type DataConfig struct {
	Topology  string `mapstructure:"topology"`
	Telemetry string `mapstructure:"telemetry"`
}

type IntentConfig struct {
	Rules string    `mapstructure:"rules"`
	LLM   LLMConfig `mapstructure:"llm"`
}

type LLMConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type ThresholdsConfig struct {
	Red    float64 `mapstructure:"red"`
	Yellow float64 `mapstructure:"yellow"`
}

type NotifyConfig struct {
	Webhook WebhookConfig `mapstructure:"webhook"`
	Stdout  StdoutConfig  `mapstructure:"stdout"`
}

type WebhookConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type StdoutConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ServerConfig struct {
	Listen     string `mapstructure:"listen"`
	ReadOnly   bool   `mapstructure:"read_only"`
	APIToken   string `mapstructure:"api_token"`
	CORSOrigin string `mapstructure:"cors_origin"`
}

// Load reads the configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".monbot"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("monbot")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MONBOT")
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("storage.path", "./data/monbot.db")
	viper.SetDefault("storage.memgraph.enabled", false)
	viper.SetDefault("storage.memgraph.uri", "bolt://localhost:7687")
	viper.SetDefault("intent.llm.enabled", false)
	viper.SetDefault("intent.llm.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("intent.llm.model", "gemma-3-12b-it")
	viper.SetDefault("intent.llm.timeout", "10s")
	viper.SetDefault("thresholds.red", 90)
	viper.SetDefault("thresholds.yellow", 80)
	viper.SetDefault("notify.stdout.enabled", true)
	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.read_only", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
