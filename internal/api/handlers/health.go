package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/lnp-scraper/internal/config"
	"github.com/jmylchreest/lnp-scraper/internal/models"
	"github.com/jmylchreest/lnp-scraper/internal/version"
)

// recentCaptureLimit bounds the journal entries included in the health report.
const recentCaptureLimit = 10

// BrowserStatus reports the browser session state.
type BrowserStatus interface {
	Stats() models.BrowserStats
}

// TokenDescriber reports credential metadata for a partition.
type TokenDescriber interface {
	Describe(p models.Partition) models.TokenInfo
}

// CaptureHistory lists journaled acquisition outcomes.
type CaptureHistory interface {
	Recent(ctx context.Context, p models.Partition, limit int) ([]models.CaptureRecord, error)
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	cfg     *config.Config
	browser BrowserStatus
	tokens  TokenDescriber
	history CaptureHistory
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler. history may be nil.
func NewHealthHandler(cfg *config.Config, browser BrowserStatus, tokens TokenDescriber, history CaptureHistory, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:     cfg,
		browser: browser,
		tokens:  tokens,
		history: history,
		logger:  logger,
	}
}

// HealthOutput is the output wrapper for Huma.
type HealthOutput struct {
	Body models.HealthResponse
}

// Register adds the health operation to api.
func (h *HealthHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns runtime settings, browser state and credential ages. Tokens are never included.",
		Tags:        []string{"Health"},
	}, func(ctx context.Context, input *struct{}) (*HealthOutput, error) {
		return &HealthOutput{Body: h.Handle(ctx)}, nil
	})
}

// Handle returns the health status.
func (h *HealthHandler) Handle(ctx context.Context) models.HealthResponse {
	resp := models.HealthResponse{
		OK:                   true,
		Version:              version.Get().Version,
		Headless:             h.cfg.Headless,
		Interactive:          h.cfg.Interactive,
		Debug:                h.cfg.Debug,
		TokenTTLMs:           h.cfg.TokenTTL.Milliseconds(),
		CaptureWaitMs:        h.cfg.CaptureWait.Milliseconds(),
		CaptureRetries:       h.cfg.CaptureRetries,
		DriverRestartRetries: h.cfg.DriverRestartRetries,
		ProfileDir:           h.cfg.ProfileDir,
		Browser:              h.browser.Stats(),
	}

	for _, p := range models.Partitions() {
		resp.Tokens = append(resp.Tokens, h.tokens.Describe(p))
	}

	if h.history != nil {
		recent, err := h.history.Recent(ctx, "", recentCaptureLimit)
		if err != nil {
			h.logger.Warn("failed to read capture journal", "error", err)
		} else {
			resp.RecentCaptures = recent
		}
	}

	return resp
}
