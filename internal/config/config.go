// Package config loads service settings from an optional YAML file, .env and the environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all service settings
type Config struct {
	HTTPPort     int    `mapstructure:"http_port"`
	GRPCPort     int    `mapstructure:"grpc_port"`
	MetricsPort  int    `mapstructure:"metrics_port"`
	PolicyDir    string `mapstructure:"policy_dir"` // Empty uses the built-in corpus
	TopK         int    `mapstructure:"top_k"`
	MaxPassages  int    `mapstructure:"max_passages"`
	MaxSentences int    `mapstructure:"max_sentences"`

	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Features  FeatureConfig   `mapstructure:"features"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	CSVPath string `mapstructure:"csv_path"` // Empty keeps events in memory only
}

type AuthConfig struct {
	DemoToken string `mapstructure:"demo_token"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type FeatureConfig struct {
	AgentOps bool `mapstructure:"agentops"`
}

var defaults = map[string]interface{}{
	"http_port":          8080,
	"grpc_port":          50051,
	"metrics_port":       9090,
	"policy_dir":         "",
	"top_k":              3,
	"max_passages":       2,
	"max_sentences":      2,
	"log.level":          "info",
	"log.pretty":         false,
	"telemetry.enabled":  true,
	"telemetry.csv_path": ".telemetry/telemetry.csv",
	"auth.demo_token":    "demo-token-odyssey360",
	"auth.jwt_secret":    "",
	"features.agentops":  true,
}

// Environment names that do not follow the key_with_underscores rule
var envAliases = map[string]string{
	"features.agentops": "FEATURE_AGENTOPS",
	"auth.demo_token":   "DEMO_TOKEN",
	"auth.jwt_secret":   "JWT_SECRET",
}

// Load reads configPath (optional) and the environment. envFiles are loaded
// into the process environment first; with none given, ".env" is tried.
// Missing env files are ignored.
func Load(configPath string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading env file %s: %w", f, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks port ranges and ranking limits
func (c *Config) Validate() error {
	var errs []error
	for name, port := range map[string]int{"http_port": c.HTTPPort, "grpc_port": c.GRPCPort, "metrics_port": c.MetricsPort} {
		if port < 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s out of range: %d", name, port))
		}
	}
	if c.TopK < 1 {
		errs = append(errs, fmt.Errorf("top_k must be positive: %d", c.TopK))
	}
	if c.MaxPassages < 0 || c.MaxSentences < 0 {
		errs = append(errs, fmt.Errorf("max_passages and max_sentences must not be negative"))
	}
	return errors.Join(errs...)
}
