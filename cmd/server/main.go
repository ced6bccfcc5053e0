package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/symptomwise/symptom-checker/internal/api"
	"github.com/symptomwise/symptom-checker/internal/config"
	"github.com/symptomwise/symptom-checker/internal/core"
	"github.com/symptomwise/symptom-checker/internal/mcpserver"
	"github.com/symptomwise/symptom-checker/internal/store"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	mcpFlag := flag.Bool("mcp", false, "Also serve the analysis tools over MCP on stdin/stdout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Logs, request lines included, go to stderr so that stdout stays free for the MCP transport.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reportStore, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer reportStore.Close()

	llmService, err := core.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return err
	}
	defer llmService.Close()

	analysisService := core.NewAnalysisService(llmService, cfg.MaxUploadBytes)
	reportService := core.NewReportService(reportStore, cfg.MaxUploadBytes)

	// Report files travel base64-encoded inside JSON; leave room for the encoding overhead.
	maxBody := int64(cfg.MaxUploadBytes)*4/3 + 64<<10
	apiHandler := api.NewAPIHandler(analysisService, reportService, reportStore, maxBody)
	router := api.NewRouter(apiHandler, cfg.JWTSecret)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // model calls can take time
		IdleTimeout:  120 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting HTTP server", "addr", serverAddr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
		}
		return nil
	})

	if *mcpFlag {
		stdioSrv := server.NewStdioServer(mcpserver.New(analysisService, version))
		g.Go(func() error {
			slog.Info("MCP server started (stdio transport)")
			if err := stdioSrv.Listen(gCtx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("MCP stdio server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server exited gracefully")
	return nil
}
