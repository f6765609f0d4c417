package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"picoblink/host/monitor"
	"picoblink/host/serial"
)

var (
	device      string
	baud        int
	readTimeout int
	metricsAddr string

	monitorCmd = &cobra.Command{
		Use:   "monitor",
		Short: "Follow the diagnostic stream of a connected board",
		RunE:  runMonitor,
	}
)

func init() {
	flags := monitorCmd.Flags()
	flags.StringVar(&device, "device", "/dev/ttyACM0", "Serial device path")
	flags.IntVar(&baud, "baud", 115200, "Baud rate (ignored for USB CDC)")
	flags.IntVar(&readTimeout, "read-timeout", 500, "Serial read timeout in milliseconds")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9110)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := serial.DefaultConfig(device)
	cfg.Baud = baud
	cfg.ReadTimeout = readTimeout

	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	defer port.Close()

	// Drop whatever was buffered before we attached
	if err := port.Flush(); err != nil {
		slog.Warn("Failed to flush serial port", "error", err)
	}

	var metrics *monitor.Metrics
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = monitor.NewMetrics(reg)

		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
		slog.Info("Serving metrics", "addr", metricsAddr)
	}

	slog.Info("Monitoring", "device", device)
	m := monitor.New(slog.Default(), metrics, clock.New())
	err = m.Run(ctx, port, func(evt monitor.Event) {
		fmt.Printf("%s %-14s %s\n", evt.Time.Format("15:04:05.000"), evt.Kind, evt.Line)
	})
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("monitor: %w", err)
	}

	if m.Violations() > 0 {
		return fmt.Errorf("LED failed to alternate %d times", m.Violations())
	}
	return nil
}
