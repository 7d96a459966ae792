// Package main is the entry point for the weekwise planning server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/weekwise/backend/internal/api"
	"github.com/weekwise/backend/internal/config"
	"github.com/weekwise/backend/internal/planner"
	"github.com/weekwise/backend/internal/storage"
	"github.com/weekwise/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	configPath := flag.String("config", "./config.yaml", "Path to the YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	staticDir := flag.String("static", "./static", "Directory for static frontend files")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	listen := cfg.Listen
	if *addr != "" {
		listen = *addr
	}

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(listen); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}
	log.Printf("Starting weekwise planning server (version: %s)...", version)

	dbPath := filepath.Join(cfg.DataDir, "weekwise.db")
	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	hub := websocket.NewHub()
	go hub.Run()

	feedRepo := storage.NewFeedRepository(db)
	goalRepo := storage.NewGoalRepository(db)
	ruleRepo := storage.NewRuleRepository(db)
	decisionRepo := storage.NewDecisionRepository(db)
	runRepo := storage.NewRunRepository(db)

	service := planner.NewService(cfg, feedRepo, goalRepo, ruleRepo, decisionRepo, runRepo, hub)

	defaultSyncIntervalMin := 15
	scheduler := planner.NewScheduler(service, feedRepo, cfg.AnalysisCron, defaultSyncIntervalMin)
	if err := scheduler.Start(context.Background()); err != nil {
		log.Printf("Warning: Failed to start scheduler: %v", err)
	}

	router := api.NewRouter(api.Deps{
		DB:           db,
		Hub:          hub,
		FeedRepo:     feedRepo,
		GoalRepo:     goalRepo,
		RuleRepo:     ruleRepo,
		DecisionRepo: decisionRepo,
		RunRepo:      runRepo,
		Service:      service,
		Scheduler:    scheduler,
		StaticDir:    *staticDir,
	})

	server := &http.Server{
		Addr:         listen,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", listen)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// First analysis shortly after startup so the dashboard has data.
	scheduler.TriggerAnalysis()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return http.ErrAbortHandler
	}
	return nil
}
