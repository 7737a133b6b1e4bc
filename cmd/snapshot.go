package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/timvw/page-patrol/internal/artifact"
	"github.com/timvw/page-patrol/internal/monitor"
)

var flagSnapshotEvent string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <url>",
	Short: "Take one screenshot and save the HTML of a page",
	Long: `Load a single page without installing any capture hooks, then take one
screenshot and save its HTML, both tagged with --event. Paths of the
written files are printed on stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		runID := uuid.NewString()
		tel := initTelemetry(ctx, cfg, runID)
		defer func() {
			if err := tel.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "warning: otel shutdown: %v\n", err)
			}
		}()

		browser, err := openSession(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := browser.Quit(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "warning: closing browser: %v\n", err)
			}
		}()

		journal := artifact.NewJournal(0)
		opts := append(cfg.MonitorOptions(),
			monitor.WithJournal(journal),
			monitor.WithRunID(runID),
		)
		opts = append(opts, telemetryOptions(tel)...)
		mon := monitor.New(browser, opts...)

		if err := mon.Session().Navigate(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to navigate to %s: %w", args[0], err)
		}
		if err := pause(ctx, cfg.WaitDuration); err != nil {
			return err
		}

		_, shotErr := mon.TakeScreenshot(ctx, flagSnapshotEvent)
		_, htmlErr := mon.SaveHTML(ctx, flagSnapshotEvent)

		for _, e := range journal.Snapshot(time.Now().UTC()) {
			if e.Failed() {
				continue
			}
			fmt.Fprintf(os.Stdout, "%s\t%s\n", e.Path, humanize.Bytes(uint64(e.Bytes)))
		}

		if shotErr != nil {
			return fmt.Errorf("screenshot: %w", shotErr)
		}
		if htmlErr != nil {
			return fmt.Errorf("save html: %w", htmlErr)
		}
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&flagSnapshotEvent, "event", "manual", "event tag recorded with both captures")
	rootCmd.AddCommand(snapshotCmd)
}
