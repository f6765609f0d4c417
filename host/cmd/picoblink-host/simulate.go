package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"picoblink/blink"
	"picoblink/core"
	"picoblink/host/sim"
)

var (
	simConfig   string
	simDuration string
	simVariant  string
	simRealtime bool

	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Run the firmware on a simulated board",
		Long: "Run the firmware against a simulated timer and GPIO bank. A TOML\n" +
			"scenario selects the variant and scripts button edges.",
		RunE: runSimulate,
	}
)

func init() {
	flags := simulateCmd.Flags()
	flags.StringVar(&simConfig, "config", "", "TOML scenario file")
	flags.StringVar(&simDuration, "duration", "", "Override the simulated duration (e.g. 30s)")
	flags.StringVar(&simVariant, "variant", "", fmt.Sprintf("Override the firmware variant %v", blink.Variants))
	flags.BoolVar(&simRealtime, "realtime", false, "Advance simulated time at wall-clock speed")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := sim.DefaultConfig()
	if simConfig != "" {
		var err error
		if cfg, err = sim.LoadConfig(simConfig); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("duration") {
		cfg.Duration = simDuration
	}
	if flags.Changed("variant") {
		cfg.Variant = simVariant
	}
	if flags.Changed("realtime") {
		cfg.Realtime = simRealtime
	}

	sc, err := cfg.Resolve()
	if err != nil {
		return fmt.Errorf("invalid scenario: %w", err)
	}

	slog.Info("Simulating", "variant", sc.Blink.Variant, "duration", sim.FromTicks(sc.Duration), "edges", len(sc.Edges))
	board, err := sim.NewBoard(sc, func(at core.Instant, line string) {
		fmt.Printf("[%10d us] %s\n", core.TicksToMicros(core.Duration(at)), line)
	}, clock.New(), slog.Default())
	if err != nil {
		return err
	}

	err = board.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
