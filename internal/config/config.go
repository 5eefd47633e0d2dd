package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models lexline.yml.
type Config struct {
	Firm struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"firm"`
	Deadlines struct {
		// Days allowed for a '34' decision after submission.
		Decision34Days int `yaml:"decision_34_days"`
		// Days allowed for a '46' decision after the '34' decision
		// (financial executions only).
		Decision46Days int `yaml:"decision_46_days"`
	} `yaml:"deadlines"`
	Monitor struct {
		Interval string `yaml:"interval"`
	} `yaml:"monitor"`
	Server struct {
		JWTSecret              string `yaml:"jwt_secret"`
		AllowLegacyActorHeader bool   `yaml:"allow_legacy_actor_header"`
	} `yaml:"server"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; run lx init or copy a lexline.yml", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Firm.ID == "" {
		return fmt.Errorf("config.firm.id is required")
	}
	if c.Deadlines.Decision34Days <= 0 {
		return fmt.Errorf("config.deadlines.decision_34_days must be positive")
	}
	if c.Deadlines.Decision46Days <= 0 {
		return fmt.Errorf("config.deadlines.decision_46_days must be positive")
	}
	if c.Monitor.Interval != "" {
		if _, err := time.ParseDuration(c.Monitor.Interval); err != nil {
			return fmt.Errorf("config.monitor.interval: %w", err)
		}
	}
	return nil
}

// MonitorInterval returns the parsed monitor interval, defaulting to hourly.
// Legal deadlines are measured in days, so a coarse tick is enough.
func (c *Config) MonitorInterval() time.Duration {
	if c.Monitor.Interval == "" {
		return time.Hour
	}
	d, err := time.ParseDuration(c.Monitor.Interval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// Decision34Window returns the statutory window for the '34' decision.
func (c *Config) Decision34Window() time.Duration {
	return time.Duration(c.Deadlines.Decision34Days) * 24 * time.Hour
}

// Decision46Window returns the statutory window for the '46' decision.
func (c *Config) Decision46Window() time.Duration {
	return time.Duration(c.Deadlines.Decision46Days) * 24 * time.Hour
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "lexline.yml")
}

// Default returns the default Config struct for a firm.
func Default(firmID string) *Config {
	var cfg Config
	cfg.Firm.ID = firmID
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, firmID))).Decode(&cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault(firmID string) string {
	return fmt.Sprintf(defaultTemplate, firmID)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `firm:
  id: %s
  name: ""

deadlines:
  decision_34_days: 3
  decision_46_days: 6

monitor:
  interval: 1h

server:
  jwt_secret: ""
  allow_legacy_actor_header: true
`
