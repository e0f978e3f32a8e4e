// Package config loads stepcalc configuration from YAML.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/stepcalc"
	"github.com/zephyrtronium/stepcalc/history"
)

const (
	projectConfigName = "stepcalc.yaml"
	homeConfigDir     = ".stepcalc"
	homeConfigName    = "config.yaml"
)

// Config is the configuration file shape.
type Config struct {
	UserID    string    `yaml:"user_id"`
	MaxDepth  int       `yaml:"max_depth"`
	History   History   `yaml:"history"`
	Telemetry Telemetry `yaml:"telemetry"`
	Log       Log       `yaml:"log"`
}

// History configures the history store.
type History struct {
	// Driver is sqlite, bolt, or none.
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	// Retention is how long records are kept. Zero keeps them forever.
	Retention     Duration `yaml:"retention"`
	PruneSchedule string   `yaml:"prune_schedule"`
}

// Telemetry configures trace export.
type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
	Insecure     bool   `yaml:"insecure"`
}

// Log configures logging.
type Log struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// Duration is a time.Duration written in YAML as a string like "720h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = 0
		return nil
	}
	// Days are common for retention and time.ParseDuration lacks them.
	if days, ok := strings.CutSuffix(s, "d"); ok {
		x, err := time.ParseDuration(days + "h")
		if err != nil {
			return errors.Wrapf(err, "line %d: bad duration %q", n.Line, s)
		}
		*d = Duration(24 * x)
		return nil
	}
	x, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "line %d: bad duration %q", n.Line, s)
	}
	*d = Duration(x)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		UserID:   "local",
		MaxDepth: stepcalc.DefaultMaxDepth,
		History: History{
			Driver:        history.DriverSQLite,
			Path:          filepath.Join(home, homeConfigDir, "history.db"),
			PruneSchedule: history.DefaultPruneSchedule,
		},
		Telemetry: Telemetry{ServiceName: "stepcalc"},
		Log:       Log{Level: "warn", Format: "text"},
	}
}

// Discover finds the configuration file. An explicit path must exist.
// Otherwise stepcalc.yaml in the working directory is used, then
// ~/.stepcalc/config.yaml. found is false if no file exists.
func Discover(explicit string) (path string, found bool, err error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, errors.Wrap(err, "resolve working directory")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return DiscoverFrom(explicit, cwd, home)
}

// DiscoverFrom is Discover with given working and home directories.
func DiscoverFrom(explicit, cwd, home string) (string, bool, error) {
	var candidates []string
	if clean := strings.TrimSpace(explicit); clean != "" {
		candidates = append(candidates, filepath.Clean(clean))
	} else {
		candidates = append(candidates, filepath.Join(cwd, projectConfigName))
		if home != "" {
			candidates = append(candidates, filepath.Join(home, homeConfigDir, homeConfigName))
		}
	}
	for i, c := range candidates {
		info, err := os.Stat(c)
		if err == nil && !info.IsDir() {
			return c, true, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			if i == 0 && strings.TrimSpace(explicit) != "" {
				return "", false, errors.Errorf("config file %q not found", c)
			}
			continue
		}
		if err != nil {
			return "", false, errors.Wrapf(err, "checking config path %q", c)
		}
	}
	return "", false, nil
}

// Load discovers and reads the configuration. With no file, it returns
// Default.
func Load(explicit string) (Config, error) {
	path, found, err := Discover(explicit)
	if err != nil {
		return Config{}, err
	}
	if !found {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a configuration file. Fields it leaves unset take their
// default values, and environment variables in paths and the endpoint are
// expanded. A relative history path is relative to the file.
func LoadFile(path string) (Config, error) {
	// #nosec G304 -- path comes from explicit local config discovery.
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %q", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %q", path)
	}
	if p := cfg.History.Path; p != "" && !filepath.IsAbs(p) {
		cfg.History.Path = filepath.Join(filepath.Dir(path), p)
	}
	return cfg, nil
}

// Parse decodes configuration YAML over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	cfg.History.Path = expandEnv(cfg.History.Path)
	cfg.Telemetry.OTLPEndpoint = expandEnv(cfg.Telemetry.OTLPEndpoint)
	cfg.UserID = expandEnv(cfg.UserID)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that enumerated fields have known values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.History.Driver) {
	case history.DriverSQLite, history.DriverBolt, history.DriverNone, "":
	default:
		return errors.Errorf("history.driver: unknown driver %q", c.History.Driver)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		return errors.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json", "":
	default:
		return errors.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.History.Retention < 0 {
		return errors.New("history.retention: must not be negative")
	}
	return nil
}

func expandEnv(s string) string {
	s = os.ExpandEnv(s)
	if rest, ok := strings.CutPrefix(s, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return s
}
