package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/iaserrat/pinglog/internal/probe"
)

var (
	ErrNoMode    = errors.New("select one of -run or -plot")
	ErrBothModes = errors.New("-run and -plot are mutually exclusive")
)

type Config struct {
	// Run and Plot are command line only.
	Run     bool   `toml:"-" yaml:"-"`
	Plot    bool   `toml:"-" yaml:"-"`
	FigName string `toml:"-" yaml:"-"`

	Probe     ProbeConfig     `toml:"probe" yaml:"probe"`
	Record    RecordConfig    `toml:"record" yaml:"record"`
	Bandwidth BandwidthConfig `toml:"bandwidth" yaml:"bandwidth"`
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
}

type ProbeConfig struct {
	Server string `toml:"server" yaml:"server"`
	// Zero selects the default for the target kind.
	IntervalSecs float64 `toml:"interval_secs" yaml:"interval_secs"`
	TimeoutSecs  float64 `toml:"timeout_secs" yaml:"timeout_secs"`
	ICMPMode     string  `toml:"icmp_mode" yaml:"icmp_mode"`
	Resolver     string  `toml:"resolver" yaml:"resolver"`
}

type RecordConfig struct {
	DB              string `toml:"db" yaml:"db"`
	RateLimit       bool   `toml:"rate_limit" yaml:"rate_limit"`
	SuccessPrescale int    `toml:"success_prescale" yaml:"success_prescale"`
	FailurePrescale int    `toml:"failure_prescale" yaml:"failure_prescale"`
}

type BandwidthConfig struct {
	Enabled   bool  `toml:"enabled" yaml:"enabled"`
	ServerIDs []int `toml:"server_ids" yaml:"server_ids"`
}

type LoggingConfig struct {
	Dir        string `toml:"dir" yaml:"dir"`
	Level      string `toml:"level" yaml:"level"`
	MaxMB      int    `toml:"max_mb" yaml:"max_mb"`
	MaxFiles   int    `toml:"max_files" yaml:"max_files"`
	MaxAgeDays int    `toml:"max_age_days" yaml:"max_age_days"`
}

func Default() Config {
	return Config{
		Probe: ProbeConfig{
			Server:   "8.8.8.8",
			ICMPMode: probe.ICMPModeExec,
		},
		Record: RecordConfig{
			SuccessPrescale: 1,
			FailurePrescale: 1,
		},
		Bandwidth: BandwidthConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxMB:      10,
			MaxFiles:   5,
			MaxAgeDays: 14,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Files ending in .yaml or .yml are YAML, anything else is TOML.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config file not found: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
	}

	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var err error

	switch {
	case c.Run && c.Plot:
		err = multierr.Append(err, ErrBothModes)
	case !c.Run && !c.Plot:
		err = multierr.Append(err, ErrNoMode)
	}

	if _, perr := c.Target(); perr != nil {
		err = multierr.Append(err, fmt.Errorf("probe.server: %w", perr))
	}
	if c.Probe.IntervalSecs < 0 {
		err = multierr.Append(err, errors.New("probe.interval_secs must be >= 0"))
	}
	if c.Probe.TimeoutSecs < 0 {
		err = multierr.Append(err, errors.New("probe.timeout_secs must be >= 0"))
	}
	switch c.Probe.ICMPMode {
	case probe.ICMPModeExec, probe.ICMPModeRaw, probe.ICMPModeUDP:
	default:
		err = multierr.Append(err, fmt.Errorf("probe.icmp_mode must be one of exec, raw, udp; got %q", c.Probe.ICMPMode))
	}
	if c.Record.SuccessPrescale < 1 {
		err = multierr.Append(err, errors.New("record.success_prescale must be >= 1"))
	}
	if c.Record.FailurePrescale < 1 {
		err = multierr.Append(err, errors.New("record.failure_prescale must be >= 1"))
	}
	if c.Logging.Dir != "" {
		if c.Logging.MaxMB <= 0 {
			err = multierr.Append(err, errors.New("logging.max_mb must be > 0"))
		}
		if c.Logging.MaxFiles <= 0 {
			err = multierr.Append(err, errors.New("logging.max_files must be > 0"))
		}
	}

	return err
}

func (c *Config) Target() (probe.Target, error) {
	return probe.ParseTarget(c.Probe.Server)
}

// Interval falls back to the default of the given kind.
func (c *Config) Interval(k probe.Kind) time.Duration {
	if c.Probe.IntervalSecs > 0 {
		return seconds(c.Probe.IntervalSecs)
	}
	return k.DefaultInterval()
}

func (c *Config) Timeout(k probe.Kind) time.Duration {
	if c.Probe.TimeoutSecs > 0 {
		return seconds(c.Probe.TimeoutSecs)
	}
	return k.DefaultTimeout()
}

var pathUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// DBPath is the configured log path, or one derived from the server name.
func (c *Config) DBPath() string {
	if c.Record.DB != "" {
		return c.Record.DB
	}
	return pathUnsafe.ReplaceAllString(strings.TrimSpace(c.Probe.Server), "_") + ".csv"
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
