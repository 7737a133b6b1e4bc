package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/timvw/page-patrol/internal/config"
	"github.com/timvw/page-patrol/internal/driver"
	"github.com/timvw/page-patrol/internal/monitor"
	telem "github.com/timvw/page-patrol/internal/otel"
)

var (
	// Global flags. Unset flags leave the config file and env values alone.
	flagDir        string
	flagFilename   string
	flagInterval   string
	flagWait       string
	flagSaveHTML   bool
	flagControlURL string
	flagBrowserBin string
	flagHeadless   bool
)

var rootCmd = &cobra.Command{
	Use:   "page-patrol",
	Short: "Record screenshots and HTML while a browser session runs",
	Long: `page-patrol drives a browser and records what it saw.

Every navigation, element interaction and session exit can leave a
screenshot (and optionally the page HTML) in the output directory, and a
periodic screenshot can be taken at a fixed interval. Filenames follow a
pattern with %date%, %datetime%, %timestamp%, %idx% and %event%
placeholders.

Configuration is loaded from .page-patrol.yaml, ~/.config/page-patrol/config.yaml
and PAGE_PATROL_* environment variables; flags override both.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "output directory (default ./screenshots)")
	rootCmd.PersistentFlags().StringVar(&flagFilename, "filename", "", "filename pattern without extension (default screenshot_%idx%)")
	rootCmd.PersistentFlags().StringVar(&flagInterval, "interval", "", "periodic screenshot interval, e.g. 1s; 0 or off disables")
	rootCmd.PersistentFlags().StringVar(&flagWait, "wait", "", "pause after each navigation, e.g. 500ms")
	rootCmd.PersistentFlags().BoolVar(&flagSaveHTML, "save-html", false, "save page HTML before each navigation")
	rootCmd.PersistentFlags().StringVar(&flagControlURL, "control-url", envOrDefault("PAGE_PATROL_CONTROL_URL", ""), "DevTools websocket URL of a running browser (default: launch one)")
	rootCmd.PersistentFlags().StringVar(&flagBrowserBin, "browser-bin", "", "browser binary to launch (default: let rod find or download one)")
	rootCmd.PersistentFlags().BoolVar(&flagHeadless, "headless", true, "launch the browser without a window")
}

// loadConfig layers command-line flags over the loaded configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.ConfigFile != "" {
		fmt.Fprintf(os.Stderr, "config: loaded %s\n", cfg.ConfigFile)
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Dir = flagDir
	}
	if flags.Changed("filename") {
		cfg.Filename = flagFilename
	}
	if flags.Changed("interval") {
		cfg.Interval = flagInterval
	}
	if flags.Changed("wait") {
		cfg.Wait = flagWait
	}
	if flags.Changed("save-html") {
		cfg.SaveHTMLBeforeNavigate = &flagSaveHTML
	}
	if flagControlURL != "" {
		cfg.ControlURL = flagControlURL
	}
	if flags.Changed("browser-bin") {
		cfg.BrowserBin = flagBrowserBin
	}
	if flags.Changed("headless") {
		cfg.Headless = &flagHeadless
	}

	if err := cfg.ParseDurations(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// initTelemetry starts OTEL for one run. Failures only warn and return nil.
func initTelemetry(ctx context.Context, cfg *config.Config, runID string) *telem.Telemetry {
	telem.Version = Version

	tel, err := telem.Init(ctx, telem.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
		RunID:    runID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: otel init failed: %v\n", err)
		return nil
	}
	return tel
}

// telemetryOptions hands the run's tracer and instruments to the monitor.
func telemetryOptions(tel *telem.Telemetry) []monitor.Option {
	if tel == nil {
		return nil
	}
	return []monitor.Option{
		monitor.WithTracer(tel.Tracer),
		monitor.WithMetrics(tel.Metrics),
	}
}

// openSession connects to the configured browser or launches a new one.
func openSession(ctx context.Context, cfg *config.Config) (*driver.Rod, error) {
	if cfg.ControlURL != "" {
		s, err := driver.Connect(ctx, cfg.ControlURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to browser: %w", err)
		}
		return s, nil
	}

	headless := cfg.Headless == nil || *cfg.Headless
	s, err := driver.Launch(ctx, driver.LaunchConfig{
		Bin:      cfg.BrowserBin,
		Headless: headless,
		Flags:    cfg.Flags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return s, nil
}

// pause sleeps for d unless ctx is done first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// cleanupContext outlives an interrupted run long enough to take the exit
// capture and close the browser.
func cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
