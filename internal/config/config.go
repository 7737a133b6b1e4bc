// Package config loads page-patrol configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (PAGE_PATROL_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .page-patrol.yaml in current directory
//  2. ~/.config/page-patrol/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/timvw/page-patrol/internal/monitor"
)

// Config holds all page-patrol configuration.
type Config struct {
	// Capture toggles. Pointers so a file can turn a default off.
	ScreenshotOnExit         *bool `yaml:"screenshot_on_exit"`
	ScreenshotBeforeNavigate *bool `yaml:"screenshot_before_navigate"`
	ScreenshotBeforeClick    *bool `yaml:"screenshot_before_click"`
	ScreenshotBeforeSubmit   *bool `yaml:"screenshot_before_submit"`
	ScreenshotBeforeSendKeys *bool `yaml:"screenshot_before_send_keys"`
	SaveHTMLBeforeNavigate   *bool `yaml:"save_html_before_navigate"`

	Interval string `yaml:"interval"` // Go duration string, e.g. "1s"; "0"/"off" disables
	Dir      string `yaml:"dir"`
	Filename string `yaml:"filename"`

	// Browser
	ControlURL string   `yaml:"control_url"` // connect instead of launching
	BrowserBin string   `yaml:"browser_bin"`
	Headless   *bool    `yaml:"headless"`
	Flags      []string `yaml:"flags"` // launcher flags, "name" or "name=value"
	Wait       string   `yaml:"wait"`  // pause after each navigation

	// Journal
	JournalTTL string `yaml:"journal_ttl"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs

	// Parsed durations (not from YAML, set after loading)
	IntervalDuration   time.Duration `yaml:"-"`
	WaitDuration       time.Duration `yaml:"-"`
	JournalTTLDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		ScreenshotOnExit:         boolPtr(true),
		ScreenshotBeforeNavigate: boolPtr(true),
		ScreenshotBeforeClick:    boolPtr(false),
		ScreenshotBeforeSubmit:   boolPtr(false),
		ScreenshotBeforeSendKeys: boolPtr(false),
		SaveHTMLBeforeNavigate:   boolPtr(false),
		Interval:                 "0",
		Dir:                      monitor.DefaultDir,
		Filename:                 monitor.DefaultFilename,
		Headless:                 boolPtr(true),
		Wait:                     "0",
		JournalTTL:               "0",
	}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	if err := mergeEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.ParseDurations(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseDurations fills the parsed duration fields from their string forms.
func (c *Config) ParseDurations() error {
	var err error
	c.IntervalDuration, err = parseDurationOrDisable(c.Interval, 0)
	if err != nil {
		return fmt.Errorf("invalid interval %q: %w", c.Interval, err)
	}
	if c.IntervalDuration < 0 {
		return fmt.Errorf("invalid interval %q: must not be negative", c.Interval)
	}
	c.WaitDuration, err = parseDurationOrDisable(c.Wait, 0)
	if err != nil {
		return fmt.Errorf("invalid wait %q: %w", c.Wait, err)
	}
	c.JournalTTLDuration, err = parseDurationOrDisable(c.JournalTTL, 0)
	if err != nil {
		return fmt.Errorf("invalid journal TTL %q: %w", c.JournalTTL, err)
	}
	return nil
}

// MonitorOptions converts the capture settings into monitor options.
func (c *Config) MonitorOptions() []monitor.Option {
	return []monitor.Option{
		monitor.WithScreenshotOnExit(boolValue(c.ScreenshotOnExit)),
		monitor.WithScreenshotBeforeNavigate(boolValue(c.ScreenshotBeforeNavigate)),
		monitor.WithScreenshotBeforeClick(boolValue(c.ScreenshotBeforeClick)),
		monitor.WithScreenshotBeforeSubmit(boolValue(c.ScreenshotBeforeSubmit)),
		monitor.WithScreenshotBeforeSendKeys(boolValue(c.ScreenshotBeforeSendKeys)),
		monitor.WithSaveHTMLBeforeNavigate(boolValue(c.SaveHTMLBeforeNavigate)),
		monitor.WithInterval(c.IntervalDuration),
		monitor.WithDir(c.Dir),
		monitor.WithFilename(c.Filename),
	}
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	if data, err := os.ReadFile(".page-patrol.yaml"); err == nil {
		return ".page-patrol.yaml", data, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "page-patrol", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies set file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	mergeBool(&cfg.ScreenshotOnExit, file.ScreenshotOnExit)
	mergeBool(&cfg.ScreenshotBeforeNavigate, file.ScreenshotBeforeNavigate)
	mergeBool(&cfg.ScreenshotBeforeClick, file.ScreenshotBeforeClick)
	mergeBool(&cfg.ScreenshotBeforeSubmit, file.ScreenshotBeforeSubmit)
	mergeBool(&cfg.ScreenshotBeforeSendKeys, file.ScreenshotBeforeSendKeys)
	mergeBool(&cfg.SaveHTMLBeforeNavigate, file.SaveHTMLBeforeNavigate)
	mergeBool(&cfg.Headless, file.Headless)

	if file.Interval != "" {
		cfg.Interval = file.Interval
	}
	if file.Dir != "" {
		cfg.Dir = file.Dir
	}
	if file.Filename != "" {
		cfg.Filename = file.Filename
	}
	if file.ControlURL != "" {
		cfg.ControlURL = file.ControlURL
	}
	if file.BrowserBin != "" {
		cfg.BrowserBin = file.BrowserBin
	}
	if len(file.Flags) > 0 {
		cfg.Flags = file.Flags
	}
	if file.Wait != "" {
		cfg.Wait = file.Wait
	}
	if file.JournalTTL != "" {
		cfg.JournalTTL = file.JournalTTL
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

func mergeBool(dst **bool, v *bool) {
	if v != nil {
		*dst = boolPtr(*v)
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) error {
	bools := []struct {
		env string
		dst **bool
	}{
		{"PAGE_PATROL_SCREENSHOT_ON_EXIT", &cfg.ScreenshotOnExit},
		{"PAGE_PATROL_SCREENSHOT_BEFORE_NAVIGATE", &cfg.ScreenshotBeforeNavigate},
		{"PAGE_PATROL_SCREENSHOT_BEFORE_CLICK", &cfg.ScreenshotBeforeClick},
		{"PAGE_PATROL_SCREENSHOT_BEFORE_SUBMIT", &cfg.ScreenshotBeforeSubmit},
		{"PAGE_PATROL_SCREENSHOT_BEFORE_SEND_KEYS", &cfg.ScreenshotBeforeSendKeys},
		{"PAGE_PATROL_SAVE_HTML_BEFORE_NAVIGATE", &cfg.SaveHTMLBeforeNavigate},
		{"PAGE_PATROL_HEADLESS", &cfg.Headless},
	}
	for _, b := range bools {
		v := os.Getenv(b.env)
		if v == "" {
			continue
		}
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", b.env, v, err)
		}
		*b.dst = boolPtr(on)
	}

	if v := os.Getenv("PAGE_PATROL_INTERVAL"); v != "" {
		cfg.Interval = v
	}
	if v := os.Getenv("PAGE_PATROL_DIR"); v != "" {
		cfg.Dir = v
	}
	if v := os.Getenv("PAGE_PATROL_FILENAME"); v != "" {
		cfg.Filename = v
	}
	if v := os.Getenv("PAGE_PATROL_CONTROL_URL"); v != "" {
		cfg.ControlURL = v
	}
	if v := os.Getenv("PAGE_PATROL_BROWSER_BIN"); v != "" {
		cfg.BrowserBin = v
	}
	if v := os.Getenv("PAGE_PATROL_FLAGS"); v != "" {
		cfg.Flags = splitList(v)
	}
	if v := os.Getenv("PAGE_PATROL_WAIT"); v != "" {
		cfg.Wait = v
	}
	if v := os.Getenv("PAGE_PATROL_JOURNAL_TTL"); v != "" {
		cfg.JournalTTL = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDurationOrDisable parses a duration string. "0", "off", "disable" return 0.
// Empty string returns the fallback value.
func parseDurationOrDisable(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	if s == "0" || s == "off" || s == "disable" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func boolPtr(b bool) *bool { return &b }

func boolValue(b *bool) bool { return b != nil && *b }
