package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"aura-backend/internal/api"
	"aura-backend/internal/config"
	"aura-backend/internal/ingest"
	"aura-backend/internal/logging"
	"aura-backend/internal/report"
	"aura-backend/internal/state"
	"aura-backend/internal/usage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServer(cmd.Context(), cfg)
	},
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logging.New("server")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize Services
	usageLog, err := usage.NewLog(cfg.UsageLog, reg)
	if err != nil {
		return err
	}
	sessions := state.NewStore(cfg.SessionTTLDuration())
	pdf := report.NewPDFRenderer(cfg.PDFEnabled, cfg.ChromePath, cfg.PDFTimeoutDuration())

	// Initialize Handler
	handler := api.NewHandler(sessions, usageLog, usage.NewUploads(cfg.UploadDir), pdf, cfg.SamplePath)
	handler.MaxFileSize = cfg.MaxUploadBytes()
	handler.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	handler.DBIngestEnabled = cfg.DBIngestEnabled
	handler.DBSources = make(map[string]ingest.DataSourceConfig, len(cfg.DBSources))
	for name, src := range cfg.DBSources {
		handler.DBSources[strings.ToLower(name)] = ingest.DataSourceConfig{Driver: src.Driver, DSN: src.DSN}
	}

	// Router Setup
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// CORS - Allow frontend
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", api.SessionHeader},
		ExposedHeaders:   []string{"Link", api.SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Root endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("AURA Analytics API is running"))
	})

	// Register all API Routes
	handler.RegisterRoutes(r)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sessions.Run(ctx, cfg.SessionSweepInterval(), func(dropped int) {
		log.Info("swept idle sessions", "count", dropped)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("starting server", "addr", "http://localhost:"+cfg.Port,
		"origins", cfg.AllowedOrigins, "upload_dir", cfg.UploadDir, "usage_log", cfg.UsageLog,
		"db_ingest", cfg.DBIngestEnabled, "db_sources", len(cfg.DBSources))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
