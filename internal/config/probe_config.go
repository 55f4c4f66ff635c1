package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProbeConfig holds all configuration for the probe agent
type ProbeConfig struct {
	Probe   ProbeSettings  `yaml:"probe"`
	Server  UplinkSettings `yaml:"server"`
	Buffer  BufferSettings `yaml:"buffer"`
	Logging LoggingConfig  `yaml:"logging"`
}

// ProbeSettings contains probe-specific settings
type ProbeSettings struct {
	ID           string        `yaml:"id"`
	Site         string        `yaml:"site"`
	ReadInterval time.Duration `yaml:"read_interval"`
}

// UplinkSettings contains connection settings for the hub
type UplinkSettings struct {
	URL                  string        `yaml:"url"`
	AuthToken            string        `yaml:"auth_token"`
	ConnectTimeout       time.Duration `yaml:"connect_timeout"`
	ReconnectInterval    time.Duration `yaml:"reconnect_interval"`
	MaxReconnectInterval time.Duration `yaml:"max_reconnect_interval"`
	PingInterval         time.Duration `yaml:"ping_interval"`
	PongTimeout          time.Duration `yaml:"pong_timeout"`
}

// BufferSettings contains settings for the reading buffer
type BufferSettings struct {
	Size       int  `yaml:"size"`
	DropOldest bool `yaml:"drop_oldest"`
}

// LoadProbeConfig loads probe agent configuration from a YAML file
func LoadProbeConfig(path string) (*ProbeConfig, error) {
	yamlData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var config ProbeConfig
	if err := yaml.Unmarshal(yamlData, &config); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}
	config.ApplyDefaults()
	config.OverrideFromEnv()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &config, nil
}

// ApplyDefaults sets default values for any unset fields
func (c *ProbeConfig) ApplyDefaults() {
	if c.Probe.ReadInterval == 0 {
		c.Probe.ReadInterval = 30 * time.Second
	}
	if c.Server.ConnectTimeout == 0 {
		c.Server.ConnectTimeout = 10 * time.Second
	}
	if c.Server.ReconnectInterval == 0 {
		c.Server.ReconnectInterval = 1 * time.Second
	}
	if c.Server.MaxReconnectInterval == 0 {
		c.Server.MaxReconnectInterval = 5 * time.Minute
	}
	if c.Server.PingInterval == 0 {
		c.Server.PingInterval = 30 * time.Second
	}
	if c.Server.PongTimeout == 0 {
		c.Server.PongTimeout = 10 * time.Second
	}
	if c.Buffer.Size == 0 {
		c.Buffer.Size = 1000
		c.Buffer.DropOldest = true
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// OverrideFromEnv overrides config values from environment variables
func (c *ProbeConfig) OverrideFromEnv() {
	if v := os.Getenv("PROBE_ID"); v != "" {
		c.Probe.ID = v
	}
	if v := os.Getenv("PROBE_SITE"); v != "" {
		c.Probe.Site = v
	}
	if v := os.Getenv("SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("SERVER_AUTH_TOKEN"); v != "" {
		c.Server.AuthToken = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks if the configuration is valid
func (c *ProbeConfig) Validate() error {
	if c.Probe.ID == "" {
		return fmt.Errorf("probe ID is required")
	}
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}
	if !strings.HasPrefix(c.Server.URL, "ws://") && !strings.HasPrefix(c.Server.URL, "wss://") {
		return fmt.Errorf("server URL must start with ws:// or wss://")
	}
	if c.Server.AuthToken == "" {
		return fmt.Errorf("server auth token is required")
	}
	if c.Probe.ReadInterval < 1*time.Second {
		return fmt.Errorf("read interval must be at least 1 second")
	}
	if c.Buffer.Size < 10 || c.Buffer.Size > 100000 {
		return fmt.Errorf("buffer size must be between 10 and 100000")
	}
	return nil
}

// String returns a safe string representation (hides auth token)
func (c *ProbeConfig) String() string {
	return fmt.Sprintf("ProbeConfig{Probe: %+v, Server: [URL=%s, Token=%s], Buffer: %+v, Logging: %+v}",
		c.Probe,
		c.Server.URL,
		maskToken(c.Server.AuthToken),
		c.Buffer,
		c.Logging,
	)
}
