package main

import (
	"fmt"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sangkips/tempo-pos/internal/config"
	"github.com/sangkips/tempo-pos/internal/domain/event"
)

var watchOwner string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print billing notifications as they are published",
	Long: `Subscribe to the event bus and print clock expiries, completed settlements
and stock shortages. Needs EVENTS_DRIVER=redis so that events published by the
API process reach this one.`,
	Example: `  tempo-pos watch
  tempo-pos watch --owner 3f2a9c1e-0b7d-4f43-9a51-1c2d3e4f5a6b`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchOwner, "owner", "", "Only show events for this user id")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Events.Driver != "redis" {
		return fmt.Errorf("watch needs EVENTS_DRIVER=redis, got %q", cfg.Events.Driver)
	}

	log := zerolog.New(cmd.ErrOrStderr()).Level(zerolog.WarnLevel).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer in.Close()

	cancel, err := in.bus.Subscribe(ctx, watchOwner, func(ev event.Event) {
		printEvent(ev, cfg.Billing.Location)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer cancel()

	scope := "all users"
	if watchOwner != "" {
		scope = "user " + watchOwner
	}
	color.New(color.FgCyan, color.Bold).Printf("Watching events for %s, Ctrl+C to stop\n", scope)

	<-ctx.Done()
	return nil
}

func printEvent(ev event.Event, loc *time.Location) {
	var label *color.Color
	switch ev.Type {
	case event.ClockExpired:
		label = color.New(color.FgYellow, color.Bold)
	case event.SettlementCompleted:
		label = color.New(color.FgGreen, color.Bold)
	case event.StockShortage:
		label = color.New(color.FgRed, color.Bold)
	default:
		label = color.New(color.FgWhite)
	}

	fmt.Printf("%s ", ev.At.In(loc).Format("2006-01-02 15:04:05"))
	label.Printf("%-22s", ev.Type)
	fmt.Printf(" owner=%s subject=%s", ev.OwnerID, ev.SubjectID)
	if len(ev.Payload) > 0 {
		fmt.Printf(" %s", formatPayload(ev.Payload))
	}
	fmt.Println()
}

// formatPayload renders payload as sorted key=value pairs.
func formatPayload(payload map[string]any) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, payload[k])
	}
	return strings.Join(parts, " ")
}
