// Command api runs the canvas backend HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"canvas-backend/application/ports"
	"canvas-backend/application/services"
	domainservices "canvas-backend/domain/services"
	"canvas-backend/infrastructure/persistence/memory"
	supabasegw "canvas-backend/infrastructure/persistence/supabase"
	"canvas-backend/infrastructure/providers"
	"canvas-backend/internal/config"
	"canvas-backend/interfaces/http/rest"
	"canvas-backend/pkg/observability"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Missing .env is fine outside development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	logger, err := observability.NewLogger(string(cfg.Environment), cfg.Log.Level)
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewCollector("canvas")

	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracing(ctx, observability.TracingConfig{
			ServiceName: "canvas-backend",
			Environment: string(cfg.Environment),
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRate:  cfg.Tracing.SampleRatio,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Warn("tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	var gateway ports.PersistenceGateway
	if cfg.Supabase.Enabled() {
		gw, err := supabasegw.NewGateway(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey, logger)
		if err != nil {
			return err
		}
		gateway = gw
		logger.Info("using supabase persistence")
	} else {
		gateway = memory.NewGateway()
		logger.Warn("supabase not configured, canvases will not survive restarts")
	}

	scraper := providers.NewScrapeClient(
		providers.DefaultScrapeClientConfig(cfg.Scraper.BaseURL, cfg.Scraper.APIKey), logger, metrics)
	analyzer := providers.NewAnalysisClient(
		providers.DefaultAnalysisClientConfig(cfg.Analysis.BaseURL, cfg.Analysis.APIKey), logger)

	workspaces := services.NewWorkspaceService(gateway, cfg.Canvas.SaveDebounce, logger, metrics)
	ingestion := services.NewIngestionService(scraper, analyzer, services.IngestionConfig{
		PollInterval:    cfg.Canvas.PollInterval,
		MaxPollAttempts: cfg.Canvas.MaxPollAttempts,
	}, logger, metrics)

	watcher, err := config.NewWatcher(cfg, logger)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	cull := domainservices.DefaultCullConfig()
	cull.Padding = cfg.Canvas.CullPadding

	router := rest.NewRouter(workspaces, ingestion, cfg.Canvas.SnapThreshold, cull, logger, metrics)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", cfg.Server.Addr()),
			zap.String("environment", string(cfg.Environment)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown failed", zap.Error(err))
	}
	ingestion.Wait()
	workspaces.CloseAll(shutdownCtx)
	logger.Info("shutdown complete")
	return nil
}
