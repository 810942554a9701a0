package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agendazap/agendazap/app/api"
	"github.com/agendazap/agendazap/app/cfg"
	"github.com/agendazap/agendazap/app/config"
	"github.com/agendazap/agendazap/app/database"
	"github.com/agendazap/agendazap/app/export"
	"github.com/agendazap/agendazap/app/notify"
	"github.com/agendazap/agendazap/app/tasks"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting agendazap", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	instances, err := config.NewLoader(appCfg.InstancesDir).LoadAll()
	if err != nil {
		slog.Error("Failed to load instance mappings", "dir", appCfg.InstancesDir, "error", err)
		os.Exit(1)
	}
	if len(instances) == 0 {
		slog.Warn("No instance mappings configured; every export record will be dropped as unroutable",
			"dir", appCfg.InstancesDir)
	} else {
		slog.Info("Instance mappings loaded", "count", len(instances))
	}

	apptRepo := database.NewAppointmentRepository(db)
	instRepo := database.NewInstanceRepository(db)

	gateway := notify.NewClient(appCfg.GatewayURL, time.Duration(appCfg.GatewayTimeout)*time.Second)
	dispatcher := notify.NewDispatcher(apptRepo, gateway, appCfg.OrgName)

	parser := export.NewParser()

	scheduler := tasks.NewScheduler(apptRepo, instRepo, parser, dispatcher, instances)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Scheduler started",
		"exports_dir", appCfg.ExportsDir,
		"scan_interval", appCfg.SchedulerInterval,
		"sweep_interval", appCfg.SweepInterval,
		"workers", appCfg.WorkerCount)

	handler := api.NewHandler(apptRepo, instRepo)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
