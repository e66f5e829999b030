package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/veedsify/mightyshare-api/internal/core/events"
	"github.com/veedsify/mightyshare-api/pkg/logger"
)

var eventData string

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus tooling",
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a probe event through the in-process bus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishProbeEvent(cmd.Context(), args[0])
	},
}

// publishProbeEvent wires a throwaway subscriber and pushes one event
// through it, useful for checking bus wiring without a running server.
func publishProbeEvent(ctx context.Context, eventType string) error {
	log := logger.LoggerWrapper()
	bus := events.NewEventBus(log)

	bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		log.Info("probe handler fired",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	probe := events.BaseEvent{
		ID:        fmt.Sprintf("probe-%d", time.Now().Unix()),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message": eventData,
			"source":  "cli",
		},
	}

	if err := bus.PublishSync(ctx, probe); err != nil {
		return fmt.Errorf("publish probe event: %w", err)
	}
	log.Info("probe event delivered", "event_type", eventType, "event_id", probe.ID)
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "probe message", "payload message for the probe event")
	eventCmd.AddCommand(publishEventCmd)
	rootCmd.AddCommand(eventCmd)
}
