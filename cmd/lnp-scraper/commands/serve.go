package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/lnp-scraper/internal/api/handlers"
	"github.com/jmylchreest/lnp-scraper/internal/config"
	"github.com/jmylchreest/lnp-scraper/internal/http/mw"
	"github.com/jmylchreest/lnp-scraper/internal/idle"
	"github.com/jmylchreest/lnp-scraper/internal/logging"
	"github.com/jmylchreest/lnp-scraper/internal/service"
	"github.com/jmylchreest/lnp-scraper/internal/upstream"
	"github.com/jmylchreest/lnp-scraper/internal/version"
)

const (
	journalRetention     = 24 * time.Hour
	journalPruneInterval = time.Hour
	shutdownTimeout      = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Load configuration first (logging config comes from env)
	cfg := config.Load()
	logger := logging.SetDefault(cfg.LogLevel)

	logger.Info("starting lnp-scraper",
		"version", version.Get().Version,
		"port", cfg.Port,
		"headless", cfg.Headless,
		"interactive", cfg.Interactive,
		"profile", cfg.ProfileDir,
	)

	c, err := newCore(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if c.journal != nil {
		go c.journal.RunPruner(ctx, journalRetention, journalPruneInterval)
	}

	// Launch the browser in the background; acquisitions start it on demand if this fails.
	go func() {
		if err := c.browser.Warmup(ctx); err != nil {
			logger.Warn("browser warmup failed", "error", err)
			return
		}
		if err := c.browser.Start(ctx); err != nil {
			logger.Warn("browser start failed, will retry on demand", "error", err)
		}
	}()

	client := upstream.New(cfg, c.engine, logger)
	defer client.Close()

	svc := service.New(client, logger)

	reaper := idle.NewReaper(c.browser, idle.Config{
		Timeout: cfg.BrowserIdleTimeout,
		Logger:  logger,
	})
	reaper.Start()
	defer reaper.Stop()

	budget := requestBudget(cfg)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestContext)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(budget))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", mw.TimestampHeader, mw.SignatureHeader},
		MaxAge:         300,
	}))

	if cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
	}

	r.Use(reaper.Middleware)

	if cfg.SharedSecret != "" {
		logger.Info("request signing enabled")
	} else {
		logger.Warn("no API_SHARED_SECRET configured - service is unprotected")
	}
	r.Use(mw.SharedSecret(mw.SharedSecretConfig{
		Secret: cfg.SharedSecret,
		Logger: logger,
	}))

	// Create Huma API
	humaConfig := huma.DefaultConfig("LNP Scraper", version.Get().Version)
	humaConfig.Info.Description = "Competition data from laczynaspilka.pl served with browser-captured credentials"
	api := humachi.New(r, humaConfig)

	handlers.NewHealthHandler(cfg, c.browser, c.engine, history(c), logger).Register(api)
	handlers.NewCompetitionHandler(svc, logger).Register(api)
	handlers.NewDiagnosticsHandler(c.engine, logger).Register(api)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: budget + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

// history returns the journal as a CaptureHistory, or nil when disabled.
func history(c *core) handlers.CaptureHistory {
	if c.journal == nil {
		return nil
	}
	return c.journal
}

// requestBudget is the longest a request may take: a full acquisition
// (every attempt of every browser generation) plus a few upstream calls.
func requestBudget(cfg *config.Config) time.Duration {
	perAttempt := cfg.CaptureWait + 30*time.Second
	if cfg.Interactive && !cfg.Headless {
		perAttempt += cfg.ManualSolveWait
	}
	attempts := time.Duration((cfg.DriverRestartRetries + 1) * max(cfg.CaptureRetries, 1))
	return attempts*perAttempt + 4*cfg.UpstreamTimeout
}

