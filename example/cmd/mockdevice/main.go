// Command mockdevice serves an emulated rover for trying rigpanel without
// hardware.
//
//	go run ./example/cmd/mockdevice -addr :9999
//	go run ./cmd/rigpanel serve --device-url http://localhost:9999
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hit2hat/rigpanel/example/device"
)

func main() {
	addr := flag.String("addr", ":9999", "listen address")
	drift := flag.Duration("drift", time.Second, "how often temperature and humidity change")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rover := device.New(device.Metrics{Temperature: 21, Humidity: 40, Fuel: 80}, logger)
	go rover.Drift(ctx, *drift)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           rover.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("mock device listening", "addr", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("mock device error", "error", err)
		os.Exit(1)
	}
}
