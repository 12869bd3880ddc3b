package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxviazov/convention-catalog-service/internal/cache"
	"github.com/maxviazov/convention-catalog-service/internal/catalog"
	"github.com/maxviazov/convention-catalog-service/internal/config"
	"github.com/maxviazov/convention-catalog-service/internal/handler"
	"github.com/maxviazov/convention-catalog-service/internal/logger"
	"github.com/maxviazov/convention-catalog-service/internal/metrics"
	"github.com/maxviazov/convention-catalog-service/internal/service"
	"github.com/maxviazov/convention-catalog-service/internal/slice"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	// Load application config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config loading failed: %w", err)
	}

	// Initialize logger
	if cfg.Logger.ServiceVersion == "" {
		cfg.Logger.ServiceVersion = cfg.App.Version
	}
	if cfg.Logger.Env == "" {
		cfg.Logger.Env = cfg.App.Env
	}
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	appLogger.Info().Str("driver", cfg.Storage.Driver).Msg("config loaded")

	st, err := openStores(ctx, cfg, &appLogger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	defer st.close()

	var (
		rec        *metrics.Recorder
		engineOpts []slice.EngineOption
	)
	if cfg.Metrics.Enabled {
		rec = metrics.New(true)
		engineOpts = append(engineOpts, slice.WithObserver(rec))
	}

	var (
		ctxCache cache.Cache[service.ConventionContext]
		checks   = map[string]handler.Pinger{}
	)
	if cfg.Redis.Enabled {
		rc, err := cache.Connect(ctx, cache.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer rc.Close()
		checks["redis"] = cache.ClientPinger{Client: rc}
		ctxCache = cache.NewRedis[service.ConventionContext](rc, "convention_context", time.Duration(cfg.Redis.TTL)*time.Second)
		appLogger.Info().Str("addr", cfg.Redis.Addr).Msg("context cache enabled")
	}

	limits := cfg.Paging
	catalogs := service.Catalogs{
		TechStacks:    service.NewCatalog(catalog.TechStacks, st.techStacks, limits, appLogger, engineOpts...),
		Architectures: service.NewCatalog(catalog.Architectures, st.architectures, limits, appLogger, engineOpts...),
		Layers:        service.NewCatalog(catalog.Layers, st.layers, limits, appLogger, engineOpts...),
		Modules:       service.NewCatalog(catalog.Modules, st.modules, limits, appLogger, engineOpts...),
		CodingRules:   service.NewCatalog(catalog.CodingRules, st.codingRules, limits, appLogger, engineOpts...),
		Templates:     service.NewCatalog(catalog.Templates, st.templates, limits, appLogger, engineOpts...),
	}

	feedback := service.NewCatalog(catalog.Feedback, st.feedback, limits, appLogger, engineOpts...)

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), handler.RequestID(), handler.AccessLog(appLogger))
	deps := handler.Deps{
		Pinger:        st.pinger,
		Checks:        checks,
		TechStacks:    catalogs.TechStacks,
		Architectures: catalogs.Architectures,
		Layers:        catalogs.Layers,
		Modules:       catalogs.Modules,
		CodingRules:   catalogs.CodingRules,
		Templates:     catalogs.Templates,
		Feedback:      feedback,
		Review:        service.NewFeedbackQueue(feedback, st.feedback, appLogger),
		Context:       service.NewContextService(catalogs, ctxCache, appLogger),
	}
	if rec != nil {
		engine.Use(handler.Metrics(rec))
		deps.Metrics = rec.Handler()
		deps.MetricsPath = cfg.Metrics.Path
	}
	handler.Register(engine, deps)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.App.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{handler.HeaderRequestID},
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           corsHandler.Handler(engine),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return run(ctx, server, time.Duration(cfg.App.ShutdownTimeout)*time.Second, appLogger)
}

// run serves until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("🚀 Service started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}
