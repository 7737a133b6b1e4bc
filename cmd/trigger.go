package cmd

import (
	"github.com/spf13/cobra"

	"github.com/timvw/page-patrol/internal/trigger"
)

var (
	flagTriggerKind   string
	flagTriggerEvent  string
	flagTriggerSocket string
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Ask a running session for a manual capture",
	Long: `Send one capture request to a "page-patrol run --trigger" session.

The request is a single datagram; there is no reply. Check the run's
journal to see whether the capture succeeded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		socketPath := flagTriggerSocket
		if socketPath == "" {
			socketPath = trigger.DefaultSocketPath()
		}
		return trigger.Send(socketPath, trigger.Request{
			Kind:  flagTriggerKind,
			Event: flagTriggerEvent,
		})
	},
}

func init() {
	triggerCmd.Flags().StringVar(&flagTriggerKind, "kind", trigger.KindScreenshot, "capture kind: screenshot, html")
	triggerCmd.Flags().StringVar(&flagTriggerEvent, "event", "manual", "event tag recorded with the capture")
	triggerCmd.Flags().StringVar(&flagTriggerSocket, "socket", envOrDefault("PAGE_PATROL_TRIGGER_SOCKET", ""), "trigger socket path (default: $XDG_RUNTIME_DIR/page-patrol/trigger.sock)")
	rootCmd.AddCommand(triggerCmd)
}
