package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/timvw/page-patrol/internal/artifact"
	"github.com/timvw/page-patrol/internal/driver"
	"github.com/timvw/page-patrol/internal/monitor"
	"github.com/timvw/page-patrol/internal/report"
	"github.com/timvw/page-patrol/internal/trigger"
)

var (
	flagRunClick         []string
	flagRunType          []string
	flagRunSubmit        []string
	flagRunSummary       bool
	flagRunTheme         string
	flagRunTrigger       bool
	flagRunTriggerSocket string
)

var runCmd = &cobra.Command{
	Use:   "run <url>...",
	Short: "Visit pages in a monitored browser session",
	Long: `Open a browser session, install the capture hooks and visit each URL in
order, pausing --wait after every navigation. Once the last page has
loaded, --type, --click and --submit actions run in that order against
the current page. The session is then closed, which takes the exit
screenshot.

The capture journal is printed as JSON on stdout, or as a styled summary
with --summary. Capture failures never fail the run; they are logged
and listed in the journal.

With --trigger, manual captures can be requested while the run is in
progress using "page-patrol trigger".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPatrol(cmd, args)
	},
}

func init() {
	runCmd.Flags().StringArrayVar(&flagRunClick, "click", nil, "CSS selector to click after the last page loads (repeatable)")
	runCmd.Flags().StringArrayVar(&flagRunType, "type", nil, "selector=text to type after the last page loads (repeatable)")
	runCmd.Flags().StringArrayVar(&flagRunSubmit, "submit", nil, "CSS selector of a form or form field to submit (repeatable)")
	runCmd.Flags().BoolVar(&flagRunSummary, "summary", false, "print a styled summary instead of JSON")
	runCmd.Flags().StringVar(&flagRunTheme, "theme", "dark", "summary color theme: dark, light")
	runCmd.Flags().BoolVar(&flagRunTrigger, "trigger", false, "accept manual capture requests on a unix socket")
	runCmd.Flags().StringVar(&flagRunTriggerSocket, "trigger-socket", envOrDefault("PAGE_PATROL_TRIGGER_SOCKET", ""), "trigger socket path (default: $XDG_RUNTIME_DIR/page-patrol/trigger.sock)")
	rootCmd.AddCommand(runCmd)
}

// typeAction is one parsed --type value.
type typeAction struct {
	selector string
	text     string
}

// pageActions run against the last page, types first, then clicks, then submits.
type pageActions struct {
	types   []typeAction
	clicks  []string
	submits []string
}

func parseTypeActions(raw []string) ([]typeAction, error) {
	actions := make([]typeAction, 0, len(raw))
	for _, r := range raw {
		sel, text, ok := strings.Cut(r, "=")
		if !ok || strings.TrimSpace(sel) == "" {
			return nil, fmt.Errorf("invalid --type %q: want selector=text", r)
		}
		actions = append(actions, typeAction{selector: strings.TrimSpace(sel), text: text})
	}
	return actions, nil
}

func runPatrol(cmd *cobra.Command, urls []string) error {
	types, err := parseTypeActions(flagRunType)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	tel := initTelemetry(ctx, cfg, runID)
	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			fmt.Fprintf(os.Stderr, "warning: otel shutdown: %v\n", err)
		}
	}()

	browser, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}

	journal := artifact.NewJournal(cfg.JournalTTLDuration)
	opts := append(cfg.MonitorOptions(),
		monitor.WithJournal(journal),
		monitor.WithRunID(runID),
	)
	opts = append(opts, telemetryOptions(tel)...)
	mon := monitor.New(browser, opts...)
	mon.Monitor(ctx)

	if flagRunTrigger {
		socketPath := flagRunTriggerSocket
		if socketPath == "" {
			socketPath = trigger.DefaultSocketPath()
		}
		l := trigger.NewListener(mon, socketPath)
		if err := l.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: trigger listener: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "trigger: listening on %s\n", l.SocketPath())
			defer l.Close()
		}
	}

	session := mon.Session()
	actions := pageActions{types: types, clicks: flagRunClick, submits: flagRunSubmit}
	runErr := visit(ctx, session, urls, actions, cfg.WaitDuration)

	quitCtx, cancel := cleanupContext(ctx)
	defer cancel()
	if err := session.Quit(quitCtx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing browser: %v\n", err)
	}

	now := time.Now().UTC()
	if failures := journal.Failures(now); len(failures) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d capture(s) failed\n", len(failures))
	}

	if err := printJournal(runID, journal.Snapshot(now), now); err != nil {
		return err
	}
	return runErr
}

// visit navigates through urls and then runs the element actions.
func visit(ctx context.Context, s driver.Session, urls []string, actions pageActions, wait time.Duration) error {
	for _, u := range urls {
		if err := s.Navigate(ctx, u); err != nil {
			return fmt.Errorf("failed to navigate to %s: %w", u, err)
		}
		if err := pause(ctx, wait); err != nil {
			return err
		}
	}

	for _, a := range actions.types {
		el, err := s.FindElement(ctx, a.selector)
		if err != nil {
			return fmt.Errorf("failed to find %q: %w", a.selector, err)
		}
		if err := el.SendKeys(ctx, a.text); err != nil {
			return fmt.Errorf("failed to type into %q: %w", a.selector, err)
		}
	}
	for _, sel := range actions.clicks {
		el, err := s.FindElement(ctx, sel)
		if err != nil {
			return fmt.Errorf("failed to find %q: %w", sel, err)
		}
		if err := el.Click(ctx); err != nil {
			return fmt.Errorf("failed to click %q: %w", sel, err)
		}
		if err := pause(ctx, wait); err != nil {
			return err
		}
	}
	for _, sel := range actions.submits {
		el, err := s.FindElement(ctx, sel)
		if err != nil {
			return fmt.Errorf("failed to find %q: %w", sel, err)
		}
		if err := el.Submit(ctx); err != nil {
			return fmt.Errorf("failed to submit %q: %w", sel, err)
		}
		if err := pause(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

func printJournal(runID string, entries []artifact.Entry, now time.Time) error {
	if flagRunSummary {
		fmt.Fprint(os.Stdout, report.Summary(runID, entries, report.ThemeByName(flagRunTheme), now))
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
