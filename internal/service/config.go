package service

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete server configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Tables TableDefaults  `hcl:"tables,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Address        string `hcl:"address,optional"`
	Port           int    `hcl:"port,optional"`
	LogLevel       string `hcl:"log_level,optional"`
	DatabasePath   string `hcl:"database_path,optional"`
	RequestTimeout int    `hcl:"request_timeout_ms,optional"`
}

// TableDefaults bounds what CreateTable accepts and fills omitted values.
type TableDefaults struct {
	SmallBlind    int `hcl:"small_blind,optional"`
	BigBlind      int `hcl:"big_blind,optional"`
	StartingChips int `hcl:"starting_chips,optional"`
	MaxTables     int `hcl:"max_tables,optional"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:        "localhost",
			Port:           8080,
			LogLevel:       "info",
			DatabasePath:   "holdem.db",
			RequestTimeout: 5000,
		},
		Tables: TableDefaults{
			SmallBlind:    5,
			BigBlind:      10,
			StartingChips: 1000,
			MaxTables:     100,
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.DatabasePath == "" {
		config.Server.DatabasePath = defaults.Server.DatabasePath
	}
	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = defaults.Server.RequestTimeout
	}
	if config.Tables.SmallBlind == 0 {
		config.Tables.SmallBlind = defaults.Tables.SmallBlind
	}
	if config.Tables.BigBlind == 0 {
		config.Tables.BigBlind = defaults.Tables.BigBlind
	}
	if config.Tables.StartingChips == 0 {
		config.Tables.StartingChips = defaults.Tables.StartingChips
	}
	if config.Tables.MaxTables == 0 {
		config.Tables.MaxTables = defaults.Tables.MaxTables
	}

	return &config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Tables.SmallBlind <= 0 {
		return fmt.Errorf("default small blind must be positive")
	}
	if c.Tables.BigBlind <= c.Tables.SmallBlind {
		return fmt.Errorf("default big blind must be greater than small blind")
	}
	if c.Tables.StartingChips < c.Tables.BigBlind {
		return fmt.Errorf("default starting chips must cover the big blind")
	}
	if c.Tables.MaxTables <= 0 {
		return fmt.Errorf("max tables must be positive")
	}
	return nil
}

// GetServerAddress returns the address:port string to listen on.
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// OverrideAddress applies an address override from the command line. A
// bare host keeps the configured port; host:port replaces both.
func (c *Config) OverrideAddress(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		c.Server.Address = addr
		return nil
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port in address %q", addr)
	}
	c.Server.Address = host
	c.Server.Port = p
	return nil
}
