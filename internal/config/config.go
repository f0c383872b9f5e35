// Package config loads samsite settings from YAML or TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/samsite/internal/iff"
	"github.com/ppiankov/samsite/internal/nation"
	"github.com/ppiankov/samsite/internal/nsapi"
)

// MinPollSpeed is the fastest request cadence the remote API allows.
const MinPollSpeed = 600

// Trigger modes.
const (
	TriggerKeyboard = "keyboard"
	TriggerFile     = "file"
)

// Config is the full configuration file.
type Config struct {
	Settings  Settings `yaml:"config" toml:"config"`
	Whitelist Lists    `yaml:"whitelist" toml:"whitelist"`
	Blacklist Lists    `yaml:"blacklist" toml:"blacklist"`
}

// Settings is the [config] block. TOML keys follow the layout older
// config.toml files use.
type Settings struct {
	WAOnly          bool   `yaml:"wa_only" toml:"wa_only"`
	IgnoreROs       bool   `yaml:"ignore_ros" toml:"ignore_ros"`
	TargetBogeys    bool   `yaml:"target_bogeys" toml:"target_bogeys"`
	StopOnUpdate    bool   `yaml:"stop_on_update" toml:"stoponupdate"`
	IgnoreResidents bool   `yaml:"ignore_residents" toml:"ignore_residents"`
	PollSpeed       int    `yaml:"poll_speed" toml:"pollspeed"` // milliseconds
	Jitter          int    `yaml:"jitter" toml:"jitter"`        // milliseconds
	RegionOverride  string `yaml:"region_override" toml:"region_override"`
	AuditLog        string `yaml:"audit_log" toml:"audit_log"`
	Trigger         string `yaml:"trigger" toml:"trigger"`
	TriggerFile     string `yaml:"trigger_file" toml:"trigger_file"`
}

// Lists names nations and regions for an allow or deny list.
type Lists struct {
	Nations []string `yaml:"nations" toml:"nations"`
	Regions []string `yaml:"regions" toml:"regions"`
}

// DefaultDir returns ~/.samsite, or .samsite when the home directory is
// unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".samsite"
	}
	return filepath.Join(home, ".samsite")
}

// DefaultPath returns the config file used when no path is given.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	dir := DefaultDir()
	return &Config{
		Settings: Settings{
			WAOnly:          true,
			IgnoreROs:       true,
			TargetBogeys:    true,
			StopOnUpdate:    true,
			IgnoreResidents: true,
			PollSpeed:       650,
			AuditLog:        filepath.Join(dir, "engagements.jsonl"),
			Trigger:         TriggerKeyboard,
			TriggerFile:     filepath.Join(dir, "trigger"),
		},
	}
}

// LoadConfig reads path, or DefaultPath when path is empty. A missing
// file yields defaults; a malformed one is an error. Files ending in
// .toml are decoded as TOML, everything else as YAML. Keys absent from
// the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize clamps out-of-range values and canonicalizes names. It
// returns a warning for each value it changed, and an error for values
// it cannot repair.
func (c *Config) Normalize() ([]string, error) {
	var warnings []string
	s := &c.Settings

	if s.PollSpeed < MinPollSpeed {
		warnings = append(warnings, fmt.Sprintf(
			"API poll speeds faster than 1 request every %dms are against NationStates rules. Setting to %dms between requests.",
			MinPollSpeed, MinPollSpeed))
		s.PollSpeed = MinPollSpeed
	}
	if s.Jitter < 0 {
		warnings = append(warnings, "Negative jitter is not allowed. Setting jitter to 0ms.")
		s.Jitter = 0
	}

	s.Trigger = strings.ToLower(strings.TrimSpace(s.Trigger))
	switch s.Trigger {
	case "":
		s.Trigger = TriggerKeyboard
	case TriggerKeyboard:
	case TriggerFile:
		if s.TriggerFile == "" {
			return warnings, fmt.Errorf("trigger %q requires trigger_file", TriggerFile)
		}
	default:
		return warnings, fmt.Errorf("unknown trigger %q (want %s or %s)", s.Trigger, TriggerKeyboard, TriggerFile)
	}

	s.RegionOverride = nation.Canonicalize(s.RegionOverride)
	c.Whitelist.normalize()
	c.Blacklist.normalize()
	return warnings, nil
}

func (l *Lists) normalize() {
	l.Nations = canonicalList(l.Nations)
	l.Regions = canonicalList(l.Regions)
}

func canonicalList(in []string) []string {
	out := in[:0]
	for _, n := range in {
		if c := nation.Canonicalize(n); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Delay returns the poll speed as a duration.
func (s Settings) Delay() time.Duration {
	return time.Duration(s.PollSpeed) * time.Millisecond
}

// JitterDuration returns the jitter as a duration.
func (s Settings) JitterDuration() time.Duration {
	return time.Duration(s.Jitter) * time.Millisecond
}

// Filter returns the membership filter for wa_only.
func (s Settings) Filter() nsapi.Filter {
	if s.WAOnly {
		return nsapi.WAMembers
	}
	return nsapi.AllMembers
}

// Policy returns the default IFF policy for target_bogeys.
func (s Settings) Policy() iff.Policy {
	if s.TargetBogeys {
		return iff.Eliminate
	}
	return iff.Spare
}
