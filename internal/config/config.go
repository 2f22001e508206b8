// Package config loads the service configuration file: log level, health
// watch interval and the connection profiles registered at startup. A missing
// file is not an error and yields defaults with no profiles; a file that
// exists but cannot be parsed or validated fails startup.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ctacke/DataNav/pkg/dbcapabilities"
	"github.com/ctacke/DataNav/pkg/model"
)

const (
	DefaultLogLevel       = "INFO"
	DefaultHealthInterval = 30 * time.Second
)

var logLevels = map[string]bool{
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
	"FATAL": true,
}

type Config struct {
	Service     ServiceConfig `yaml:"service"`
	Connections []Profile     `yaml:"connections"`
}

type ServiceConfig struct {
	LogLevel       string `yaml:"logLevel"`
	HealthInterval string `yaml:"healthInterval"`
}

// Profile describes one connection registered at startup. Either url carries
// the whole dial target (scheme picks the provider) or the discrete fields
// do; when both are present the discrete fields win for whatever they set.
// Connect requests a dial attempt at startup; a failed attempt leaves the
// session registered but idle.
type Profile struct {
	Name     string            `yaml:"name"`
	Provider string            `yaml:"provider,omitempty"`
	URL      string            `yaml:"url,omitempty"`
	Host     string            `yaml:"host,omitempty"`
	Port     int               `yaml:"port,omitempty"`
	Username string            `yaml:"username,omitempty"`
	Password string            `yaml:"password,omitempty"`
	UseTLS   bool              `yaml:"tls,omitempty"`
	Database string            `yaml:"database,omitempty"`
	Connect  bool              `yaml:"connect,omitempty"`
	Options  map[string]string `yaml:"options,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			LogLevel:       DefaultLogLevel,
			HealthInterval: DefaultHealthInterval.String(),
		},
	}
}

// Load reads and validates the configuration file at path. An empty path or
// a file that does not exist yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Service.LogLevel == "" {
		c.Service.LogLevel = DefaultLogLevel
	}
	c.Service.LogLevel = strings.ToUpper(c.Service.LogLevel)
	if c.Service.HealthInterval == "" {
		c.Service.HealthInterval = DefaultHealthInterval.String()
	}
}

func (c *Config) validate() error {
	if !logLevels[c.Service.LogLevel] {
		return fmt.Errorf("service.logLevel %q is not a log level", c.Service.LogLevel)
	}
	if _, err := time.ParseDuration(c.Service.HealthInterval); err != nil {
		return fmt.Errorf("service.healthInterval: %w", err)
	}

	seen := make(map[string]bool, len(c.Connections))
	for i, profile := range c.Connections {
		if strings.TrimSpace(profile.Name) == "" {
			return fmt.Errorf("connections[%d]: name is required", i)
		}
		if seen[profile.Name] {
			return fmt.Errorf("connections[%d]: duplicate name %q", i, profile.Name)
		}
		seen[profile.Name] = true

		if profile.URL == "" {
			if profile.Provider == "" {
				return fmt.Errorf("connection %s: provider or url is required", profile.Name)
			}
			if profile.Host == "" {
				return fmt.Errorf("connection %s: host is required", profile.Name)
			}
		} else if err := dbcapabilities.ValidateConnectionString(profile.URL); err != nil {
			return fmt.Errorf("connection %s: %w", profile.Name, err)
		}
	}
	return nil
}

// WatchInterval returns the parsed health watch interval.
func (s ServiceConfig) WatchInterval() time.Duration {
	interval, err := time.ParseDuration(s.HealthInterval)
	if err != nil || interval <= 0 {
		return DefaultHealthInterval
	}
	return interval
}

// Overlay applies dotted-key overrides on top of the file values, the same
// key style the service supervisor pushes ("log.level", "health.interval").
// Unknown keys are ignored.
func (c *Config) Overlay(values map[string]string) {
	for key, value := range values {
		switch key {
		case "log.level":
			c.Service.LogLevel = strings.ToUpper(value)
		case "health.interval":
			c.Service.HealthInterval = value
		}
	}
}

// ConnectionInfo resolves the profile into the registry's connection
// descriptor. URL-derived values fill any discrete field the profile leaves
// zero, and the database (or keyspace) name lands in the options map under
// the provider's native key.
func (p Profile) ConnectionInfo() (model.ConnectionInfo, error) {
	info := model.ConnectionInfo{
		Name:         p.Name,
		ProviderType: p.Provider,
		Host:         p.Host,
		Port:         p.Port,
		Username:     p.Username,
		Password:     p.Password,
		UseTLS:       p.UseTLS,
	}
	if len(p.Options) > 0 {
		info.Options = make(map[string]string, len(p.Options))
		for k, v := range p.Options {
			info.Options[k] = v
		}
	}

	database := p.Database

	if p.URL != "" {
		details, err := dbcapabilities.ParseConnectionString(p.URL)
		if err != nil {
			return model.ConnectionInfo{}, fmt.Errorf("connection %s: %w", p.Name, err)
		}
		if info.ProviderType == "" {
			info.ProviderType = details.DatabaseType
		}
		if info.Host == "" {
			info.Host = details.Host
		}
		if info.Port == 0 {
			info.Port = details.Port
		}
		if info.Username == "" {
			info.Username = details.Username
		}
		if info.Password == "" {
			info.Password = details.Password
		}
		if details.SSL {
			info.UseTLS = true
		}
		if database == "" {
			database = details.DatabaseName
		}
		for k, v := range details.Parameters {
			if info.Options == nil {
				info.Options = make(map[string]string)
			}
			if _, set := info.Options[k]; !set {
				info.Options[k] = v
			}
		}
	}

	if database != "" {
		if info.Options == nil {
			info.Options = make(map[string]string, 1)
		}
		if _, set := info.Options[databaseOptionKey(info.ProviderType)]; !set {
			info.Options[databaseOptionKey(info.ProviderType)] = database
		}
	}

	return info, nil
}

// databaseOptionKey picks the option name the provider reads its initial
// database from. Cassandra calls it a keyspace.
func databaseOptionKey(providerType string) string {
	if id, ok := dbcapabilities.ParseID(providerType); ok && id == dbcapabilities.Cassandra {
		return "keyspace"
	}
	return "database"
}
