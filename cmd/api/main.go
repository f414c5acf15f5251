package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grupoheroica/calidadrecintos/internal/config"
	"github.com/grupoheroica/calidadrecintos/internal/database"
	"github.com/grupoheroica/calidadrecintos/internal/handlers"
	"github.com/grupoheroica/calidadrecintos/internal/models"
	"github.com/grupoheroica/calidadrecintos/internal/notify"
	"github.com/grupoheroica/calidadrecintos/internal/reports"
	"github.com/grupoheroica/calidadrecintos/internal/revision"
	"github.com/grupoheroica/calidadrecintos/internal/skill"
	"github.com/grupoheroica/calidadrecintos/internal/storage"
	"github.com/grupoheroica/calidadrecintos/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize the tenant stores (detects embedded vs external
	// PostgreSQL automatically)
	db, err := database.NewManager(cfg.Database, cfg.Recintos)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// 3. Auto-migrate the schema on every recinto store
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.Evento{},
		&models.Area{},
		&models.Parametro{},
		&models.Revision{},
		&models.Usuario{},
		&models.Reporte{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Shared change bus and websocket fan-out
	bus := notify.NewBus()
	hub := websocket.NewHub(bus)
	go hub.Run()

	// 5. Evidence blob store
	evidencias, err := storage.NewEvidenciaStore(cfg.EvidenciasDir)
	if err != nil {
		log.Fatalf("Failed to prepare evidence storage: %v", err)
	}

	// 6. Services and HTTP router
	router := handlers.NewRouter(
		cfg,
		db,
		hub,
		evidencias,
		revision.NewService(bus),
		reports.NewService(),
		skill.NewClient(cfg.Skill),
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on port %s [recintos: %v]\n", cfg.Port, db.Recintos())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Close databases (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connections...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
