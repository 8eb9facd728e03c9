package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/cleanup"
	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/config"
	database "github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/db"
	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/storage"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/api/handlers"
	apiserver "github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/api/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Bubblegum API Server...")

	// 1. Setup Configuration
	cfg := config.Load()

	// 2. Initialize Infrastructure
	db := database.New(cfg)

	// 3. Run Database Migrations
	db.AutoMigrate()
	database.SeedSuperAdmin(db.DB)

	// 4. Storage
	store := storage.New(cfg)

	// 5. Setup Metrics
	handlers.RegisterMetrics()
	cleanup.RegisterMetrics()
	go func() {
		http.Handle("/_metrics", promhttp.Handler())
		log.Printf("📊 Metrics exposed at http://localhost%s/_metrics", cfg.Server.MetricsPort)
		if err := http.ListenAndServe(cfg.Server.MetricsPort, nil); err != nil {
			log.Printf("⚠️ Metrics server error: %v", err)
		}
	}()

	// 6. Cleanup Worker (drains the CDN-asset outbox)
	worker := cleanup.NewWorker(
		db.DB,
		storage.NewDeleter(cfg),
		time.Duration(cfg.Cleanup.PollingInterval)*time.Second,
		cfg.Cleanup.MaxAttempts,
	)
	go worker.Run(context.Background())
	log.Printf("🧹 Cleanup worker polling every %ds", cfg.Cleanup.PollingInterval)

	// 7. Start Server
	srv := apiserver.New(cfg, db, store)

	log.Printf("🚀 API Server starting on %s", cfg.Server.Port)
	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}
