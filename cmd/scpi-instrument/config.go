package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scpi-protocol/scpi-go/pkg/commands"
	"github.com/scpi-protocol/scpi-go/pkg/examples"
)

// Config holds the instrument configuration.
type Config struct {
	Type           string         `yaml:"type"`
	Port           int            `yaml:"port"`
	LogLevel       string         `yaml:"log_level"`
	ProtocolLog    string         `yaml:"protocol_log"`
	MDNS           bool           `yaml:"mdns"`
	Interface      string         `yaml:"interface"`
	MaxConnections int            `yaml:"max_connections"`
	IdleTimeout    time.Duration  `yaml:"idle_timeout"`
	Identity       IdentityConfig `yaml:"identity"`

	ConfigFile  string `yaml:"-"`
	Interactive bool   `yaml:"-"`
}

// IdentityConfig overrides the *IDN? fields of the simulated instrument.
type IdentityConfig struct {
	Manufacturer string `yaml:"manufacturer"`
	Model        string `yaml:"model"`
	Serial       string `yaml:"serial"`
	Firmware     string `yaml:"firmware"`
}

func (c IdentityConfig) identity() commands.Identity {
	return commands.Identity{
		Manufacturer: c.Manufacturer,
		Model:        c.Model,
		Serial:       c.Serial,
		Firmware:     c.Firmware,
	}
}

func defaultConfig() Config {
	return Config{
		Type:     "psu",
		Port:     5025,
		LogLevel: "info",
	}
}

// registerFlags binds the command-line flags to cfg. The current values
// of cfg are the flag defaults.
func registerFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Type, "type", cfg.Type, "Instrument type: psu, dmm")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "Configuration file path (YAML)")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Listen port")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.ProtocolLog, "protocol-log", cfg.ProtocolLog, "Write protocol events to this file")
	fs.BoolVar(&cfg.MDNS, "mdns", cfg.MDNS, "Advertise the instrument via mDNS")
	fs.StringVar(&cfg.Interface, "interface", cfg.Interface, "Network interface for mDNS (default: all)")
	fs.IntVar(&cfg.MaxConnections, "max-connections", cfg.MaxConnections, "Maximum concurrent connections (0 = unlimited)")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "Close idle connections after this long (0 = never)")
	fs.BoolVar(&cfg.Interactive, "interactive", cfg.Interactive, "Start the interactive console")

	fs.StringVar(&cfg.Identity.Manufacturer, "manufacturer", cfg.Identity.Manufacturer, "Manufacturer reported by *IDN?")
	fs.StringVar(&cfg.Identity.Model, "model", cfg.Identity.Model, "Model reported by *IDN?")
	fs.StringVar(&cfg.Identity.Serial, "serial", cfg.Identity.Serial, "Serial number reported by *IDN?")
}

// parseConfig parses args. Values from the -config file apply first;
// flags given on the command line override them.
func parseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	registerFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.ConfigFile == "" {
		return cfg, nil
	}

	file, err := loadConfigFile(cfg.ConfigFile)
	if err != nil {
		return cfg, err
	}
	file.ConfigFile = cfg.ConfigFile
	file.Interactive = cfg.Interactive

	// Re-apply explicitly set flags on top of the file.
	set := make(map[string]string)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = f.Value.String() })
	fileFlags := flag.NewFlagSet(fs.Name(), flag.ContinueOnError)
	registerFlags(fileFlags, &file)
	for name, value := range set {
		if err := fileFlags.Set(name, value); err != nil {
			return cfg, err
		}
	}
	return file, nil
}

// loadConfigFile reads a YAML configuration. Missing keys keep their
// defaults.
func loadConfigFile(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	known := false
	for _, k := range examples.Kinds() {
		if k == cfg.Type {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown instrument type: %s", cfg.Type)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", cfg.Port)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", cfg.LogLevel)
	}
	if cfg.MaxConnections < 0 {
		return fmt.Errorf("max connections must not be negative")
	}
	return nil
}
