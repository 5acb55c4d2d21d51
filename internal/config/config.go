// Package config provides configuration management for crossdrop.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/crossdrop/internal/fileutil"
)

// Config represents the application configuration.
type Config struct {
	Version     int           `yaml:"version"`
	Home        string        `yaml:"home"`
	Source      NetworkConfig `yaml:"source"`
	Destination NetworkConfig `yaml:"destination"`
	Token       TokenConfig   `yaml:"token"`
	Axelar      AxelarConfig  `yaml:"axelar"`
	Deploy      DeployConfig  `yaml:"deploy"`
	Tx          TxConfig      `yaml:"tx"`
	Watch       WatchConfig   `yaml:"watch"`
	Server      ServerConfig  `yaml:"server"`
	Output      OutputConfig  `yaml:"output"`
	Logging     LoggingConfig `yaml:"logging"`
}

// NetworkConfig describes one side of the airdrop: the chain and the
// Airdrop contract deployed on it.
type NetworkConfig struct {
	Name         string   `yaml:"name"`
	AxelarName   string   `yaml:"axelar_name"`
	ChainID      int64    `yaml:"chain_id"`
	RPC          string   `yaml:"rpc"`
	FallbackRPCs []string `yaml:"fallback_rpcs,omitempty"`
	Contract     string   `yaml:"contract"`
}

// TokenConfig defines the ERC-20 token being airdropped on the source chain.
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals int    `yaml:"decimals"`
}

// AxelarConfig defines the gas-fee estimation settings.
type AxelarConfig struct {
	APIURL        string        `yaml:"api_url"`
	Environment   string        `yaml:"environment"`
	GasToken      string        `yaml:"gas_token"`
	GasLimit      uint64        `yaml:"gas_limit"`
	GasMultiplier float64       `yaml:"gas_multiplier"`
	Timeout       time.Duration `yaml:"timeout"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	RateLimit     float64       `yaml:"rate_limit"`
}

// DeployConfig defines the Airdrop contract deployment settings.
type DeployConfig struct {
	Network    string `yaml:"network"`
	Gateway    string `yaml:"gateway"`
	GasService string `yaml:"gas_service"`
	Artifact   string `yaml:"artifact"`
}

// TxConfig defines transaction submission settings.
type TxConfig struct {
	Keystore       string        `yaml:"keystore"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	ReceiptTimeout time.Duration `yaml:"receipt_timeout"`
	GasMargin      float64       `yaml:"gas_margin"` // multiplier applied to estimated gas
}

// WatchConfig defines destination polling settings.
type WatchConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ServerConfig defines the status server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file on top of Defaults.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the config file path under home.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DefaultHome returns the default crossdrop home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crossdrop"
	}
	return filepath.Join(home, ".crossdrop")
}

// ExpandHome resolves a leading "~/" against the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// GetHome returns the crossdrop home directory path.
func (c *Config) GetHome() string {
	return ExpandHome(c.Home)
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return ExpandHome(c.Logging.File)
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// ColorEnabled reports whether notifications may use ANSI colour.
func (c *Config) ColorEnabled() bool {
	return c.Output.Color != "never"
}
