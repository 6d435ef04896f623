package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sangkips/tempo-pos/internal/config"
	"github.com/sangkips/tempo-pos/internal/infrastructure/database"
	"github.com/sangkips/tempo-pos/pkg/printer"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity of the configured store, redis and printer",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

type checkResult struct {
	name   string
	detail string
	err    error
	skip   bool
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create a quiet logger for check mode
	log := zerolog.New(cmd.ErrOrStderr()).Level(zerolog.ErrorLevel).With().Timestamp().Logger()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	results := []checkResult{
		checkStore(ctx, cfg, log),
		checkRedis(cfg, log),
		checkPrinter(ctx, cfg),
	}
	printCheckResults(cfg, results)

	for _, r := range results {
		if r.err != nil {
			return fmt.Errorf("%s check failed", r.name)
		}
	}
	return nil
}

func checkStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) checkResult {
	r := checkResult{name: "store", detail: cfg.Store.Driver}
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		r.err = err
		return r
	}
	defer store.Close()

	if _, err := store.Query(ctx, "users", nil); err != nil {
		r.err = err
	}
	return r
}

func checkRedis(cfg *config.Config, log zerolog.Logger) checkResult {
	r := checkResult{name: "redis", detail: cfg.Redis.Addr}
	if !cfg.NeedsRedis() {
		r.skip = true
		r.detail = "not used"
		return r
	}
	client, err := database.NewRedisClient(cfg.Redis, log)
	if err != nil {
		r.err = err
		return r
	}
	_ = client.Close()
	return r
}

func checkPrinter(ctx context.Context, cfg *config.Config) checkResult {
	r := checkResult{name: "printer", detail: cfg.Printer.Type}
	if cfg.Printer.Type == "none" || cfg.Printer.Type == "" {
		r.skip = true
		return r
	}
	p, err := printer.NewPrinterFromConfig(cfg.Printer.Type, cfg.Printer.USBPath, cfg.Printer.Address)
	if err != nil {
		r.err = err
		return r
	}
	defer p.Close()
	if !p.IsConnected(ctx) {
		r.err = fmt.Errorf("printer is not reachable")
	}
	return r
}

// printCheckResults prints one coloured line per component
func printCheckResults(cfg *config.Config, results []checkResult) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	cyan.Printf("%s CONNECTIVITY CHECK\n", cfg.App.Name)
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	for _, r := range results {
		fmt.Printf("%-9s %-12s ", r.name+":", r.detail)
		switch {
		case r.skip:
			yellow.Println("SKIPPED")
		case r.err != nil:
			red.Println("FAIL")
			fmt.Printf("          → %v\n", r.err)
		default:
			green.Println("OK")
		}
	}

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
}
