package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hit2hat/rigpanel"
	"github.com/hit2hat/rigpanel/example/device"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// emulated rover (see device/)
	rover := device.New(device.Metrics{Temperature: 21, Humidity: 40, Fuel: 80}, slog.Default())
	ln, err := net.Listen("tcp", "127.0.0.1:9999")
	if err != nil {
		slog.Error("failed to start mock device", "error", err)
		os.Exit(1)
	}
	go func() { _ = http.Serve(ln, rover.Handler()) }()
	go rover.Drift(ctx, time.Second)

	units := rigpanel.DefaultUnits()
	panel, err := rigpanel.New(
		rigpanel.WithTitle("Rover (mock)"),
		rigpanel.WithBaseURL("http://127.0.0.1:9999"),
		rigpanel.WithChargerURL("http://127.0.0.1:9999/api/turnLed"),
		rigpanel.WithElements("temperature", "humidity", "fuel", "count_missions", "count_charges"),
		rigpanel.WithUnits(units),
		rigpanel.WithRequestTimeout(2*time.Second),
		rigpanel.WithPort(8080),
		rigpanel.WithCycleCallback(func(r rigpanel.CycleResult) {
			if !r.OK() {
				slog.Warn("poll failed", "seq", r.Seq, "error", r.Err)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create panel", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   rigpanel Demo                                       ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Mock rover on 127.0.0.1:9999                        ║")
	fmt.Println("  ║   • temperature and humidity drift every second       ║")
	fmt.Println("  ║   • fuel burns while the door is open                 ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	if err := panel.Start(ctx); err != nil {
		slog.Error("rigpanel error", "error", err)
		os.Exit(1)
	}
	panel.WaitActions()
}
