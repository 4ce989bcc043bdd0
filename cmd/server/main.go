package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/phish-metrics/internal/api"
	"github.com/ignite/phish-metrics/internal/app"
	"github.com/ignite/phish-metrics/internal/config"
	"github.com/ignite/phish-metrics/internal/domain"
	"github.com/ignite/phish-metrics/internal/pipeline"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  Phish Metrics Server (cmd/server/main.go)                 ║")
	log.Println("║  Gophish campaign funnel and KPI API                       ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	log.Printf("Data source: %s (snapshot storage: %s)", cfg.Source.Type, cfg.Snapshot.Type)

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Completed runs go to /api/stream. With an archive, every instance
	// hears every run through pg_notify; otherwise this pipeline publishes.
	hub := api.NewRunHub()
	hub.Start(ctx)
	streamFromPostgres := false
	notifier := pipeline.WithNotifier(func(run domain.Run) {
		if !streamFromPostgres {
			hub.Publish(run)
		}
	})

	application, err := app.Build(ctx, cfg, notifier)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer application.Close()

	if application.Archive != nil {
		if err := hub.ListenPostgres(ctx, cfg.Archive.DatabaseURL); err != nil {
			log.Printf("WARNING: run stream falling back to in-process events: %v", err)
		} else {
			streamFromPostgres = true
		}
	}

	// The server starts even when the first load fails; /api endpoints
	// answer 503 until a refresh succeeds.
	if state, err := application.Pipeline.Refresh(ctx); err != nil {
		log.Printf("WARNING: initial refresh failed: %v", err)
	} else {
		log.Printf("Initial refresh complete: run %s, %d campaigns, %d results, %d events",
			state.Run.ID, state.Run.Campaigns, state.Run.Results, state.Run.Events)
		application.PruneArchive(ctx)
	}

	if interval := cfg.Pipeline.RefreshInterval(); interval > 0 {
		go application.RunRefresher(ctx, interval)
		log.Printf("Scheduled refresh every %s", interval)
	}

	var runs api.RunLister
	if application.Archive != nil {
		runs = application.Archive
	}
	handlers := api.NewHandlers(application.Pipeline, runs)
	handlers.SetRunHub(hub)
	handlers.SetRefreshLimit(cfg.Server.RefreshPerMinute)
	health := api.NewHealthChecker(application.Pipeline, application.DB, application.Redis)
	server := api.NewServer(cfg.Server, handlers, health)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := cfg.Server.Addr()
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized — server is ready")

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
