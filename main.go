package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/planwise/planwise/internal/api"
	"github.com/planwise/planwise/internal/auth"
	"github.com/planwise/planwise/internal/database"
	"github.com/planwise/planwise/internal/events"
	"github.com/planwise/planwise/internal/metrics"
	"github.com/planwise/planwise/internal/planner"
	"github.com/planwise/planwise/internal/storage"
	"github.com/planwise/planwise/internal/telemetry"
	"github.com/planwise/planwise/pkg/config"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg := config.LoadConfig(configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, "planwise", cfg.Telemetry.Endpoint)
		if err != nil {
			log.Printf("Warning: telemetry init failed: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	var db *database.Database
	var err error
	if cfg.Database.Type == "postgres" {
		db, err = database.NewPostgres(cfg.Database.DSN)
	} else {
		db, err = database.New(cfg.Database.Path)
	}
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	store, err := storage.NewFileStore(cfg.Storage.Path, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	var bus events.Bus = events.NewMemoryBus(0)
	if cfg.Events.Enabled {
		natsBus, err := events.NewNatsBus(cfg.Events.NatsURL)
		if err != nil {
			log.Printf("Warning: NATS unavailable, events stay in memory: %v", err)
		} else {
			bus = natsBus
		}
	}
	defer bus.Close()

	m := metrics.NewMetrics()
	client := planner.NewClient(planner.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: cfg.Gemini.Timeout,
		Metrics: m,
	})

	am := auth.NewManager(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	server := api.NewServer(db, am, planner.New(client), store, bus, m, cfg)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Planwise server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
