package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lllllllleong/pdfinsight/internal/api"
	"github.com/Lllllllleong/pdfinsight/internal/config"
	"github.com/Lllllllleong/pdfinsight/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config.", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := services.NewPipeline(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize pipeline.", "error", err)
		os.Exit(1)
	}
	jobs := services.NewJobRunner(cfg.JobHistory)

	handler := api.NewHandler(pipeline.Documents, pipeline.Batch, jobs, cfg.DataDir)
	router := api.NewRouter(handler, api.RouterOptions{
		PublicDir:          cfg.PublicDir,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("Starting API server.", "addr", srv.Addr, "mode", cfg.GinMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server stopped unexpectedly.", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down.")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed.", "error", err)
	}
	if err := jobs.Shutdown(shutdownCtx); err != nil {
		slog.Error("Background jobs did not finish before the deadline.", "error", err)
	}
	if err := pipeline.Close(); err != nil {
		slog.Error("Failed to close clients.", "error", err)
	}
}
