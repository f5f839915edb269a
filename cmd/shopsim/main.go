// Command shopsim runs the autonomous retail floor simulation.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"shopfloor/internal/api"
	"shopfloor/internal/config"
	"shopfloor/internal/engine"
	"shopfloor/internal/persistence"
)

func main() {
	rt := config.LoadRuntime()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: rt.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Shopfloor: Autonomous Retail Simulation")

	tun, err := config.LoadTuning(rt.TuningPath)
	if err != nil {
		slog.Error("failed to load tuning", "path", rt.TuningPath, "error", err)
		os.Exit(1)
	}
	slog.Info("tuning loaded",
		"categories", len(tun.Categories),
		"archetypes", len(tun.Archetypes),
		"resources", len(tun.Resources),
		"hours", fmt.Sprintf("%02d:00-%02d:00", tun.OpenHour, tun.CloseHour),
	)

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(rt.DBPath), 0755)
	db, err := persistence.Open(rt.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", rt.DBPath)

	// ── Load State ────────────────────────────────────────────────────
	records, err := db.LoadRecords()
	if err != nil {
		slog.Error("failed to load customer records", "error", err)
		os.Exit(1)
	}
	startTick, err := db.LastTick()
	if err != nil {
		slog.Error("failed to read last tick", "error", err)
		os.Exit(1)
	}
	revenue, err := db.LoadRevenue()
	if err != nil {
		slog.Error("failed to read revenue", "error", err)
		os.Exit(1)
	}

	if len(records) > 0 {
		slog.Info("state restored",
			"customers", len(records),
			"tick", startTick,
			"sim_time", engine.SimTime(startTick),
		)
	} else {
		slog.Info("no saved state found, starting fresh")
	}

	// ── Simulation ────────────────────────────────────────────────────
	sim := engine.NewSimulation(tun, records, rt.Seed)
	sim.LastTick = startTick
	sim.Ledger.SetRevenue(revenue)

	eng := engine.NewEngine()
	eng.Tick = startTick

	eng.OnTick = sim.TickSecond
	eng.OnHour = sim.TickHour
	eng.OnDay = func(tick uint64) {
		sim.TickDay(tick)
		// Auto-save daily.
		if err := db.SaveState(sim); err != nil {
			slog.Error("daily save failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("SHOPSIM_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("SHOPSIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Port:     rt.Port,
		AdminKey: adminKey,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\nThe shop is open: %d shelves, %d known customers.\n",
		len(tun.Resources), len(records))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", rt.Port)
	if startTick > 0 {
		fmt.Printf("Resuming from tick %d (%s)\n", startTick, engine.SimTime(startTick))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	// Escort remaining customers out and save on shutdown.
	sim.CloseOut(sim.LastTick)
	slog.Info("final save...")
	if err := db.SaveState(sim); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Simulation stopped. State saved.")
}
