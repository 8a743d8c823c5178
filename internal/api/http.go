package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cmendoza/biosettle/internal/api/swagger"
	"github.com/cmendoza/biosettle/internal/auth"
	"github.com/cmendoza/biosettle/internal/config"
	"github.com/cmendoza/biosettle/internal/logging"
	migrate "github.com/cmendoza/biosettle/internal/migrate"
	"github.com/cmendoza/biosettle/internal/notification"
	"github.com/cmendoza/biosettle/internal/settlement"
	"github.com/cmendoza/biosettle/internal/storage"
	"github.com/cmendoza/biosettle/internal/tariffs"
	"github.com/cmendoza/biosettle/internal/ui"
)

// NewMux constructs the HTTP mux, wiring storage, the settlement services,
// metrics and health endpoints.
func NewMux() *http.ServeMux {
	cfg := config.FromEnv()

	// Optional auto-migration: run `goose up` on startup when enabled.
	autoMig := os.Getenv("BIOSETTLE_AUTO_MIGRATE")
	if autoMig == "1" || strings.ToLower(autoMig) == "true" || strings.ToLower(autoMig) == "yes" {
		if err := migrate.Up(context.Background(), cfg.DBDriver, cfg.DSN); err != nil {
			log.Printf("auto-migration failed: %v", err)
		}
	}

	st, err := storage.Open(context.Background(), storage.Config{Driver: cfg.DBDriver, DSN: cfg.DSN})
	if err != nil {
		log.Printf("storage.Open failed (driver=%s): %v; falling back to in-memory storage", cfg.DBDriver, err)
		st = storage.NewMemory()
	}

	settleSvc := settlement.NewService(st, logging.Logger)
	notifSvc := notification.NewService(st)
	closer := settlement.NewCloser(st, notifSvc, logging.Logger)
	tariffSvc := tariffs.NewService(st, logging.Logger)

	authSvc, err := auth.NewService(st)
	if err != nil {
		log.Printf("auth service init failed: %v; API will run without authentication", err)
		authSvc = nil
	}

	mux := http.NewServeMux()

	// Metrics endpoint.
	mux.Handle("/metrics", promhttp.Handler())

	// Health / readiness / liveness.
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			log.Printf("readyz: db ping failed: %v", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})

	RegisterV1Routes(mux, settleSvc, closer, tariffSvc, st, authSvc)
	RegisterReferenceHandlers(mux)
	if authSvc != nil {
		registerNotificationRoutes(mux, authSvc, notifSvc)
	}

	// API documentation.
	mux.Handle("/swagger/", http.StripPrefix("/swagger", swagger.Handler()))

	// Web UI
	mux.Handle("/ui/", http.StripPrefix("/ui/", ui.Handler()))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	return mux
}
