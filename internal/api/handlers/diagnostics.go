package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/lnp-scraper/internal/models"
	"github.com/jmylchreest/lnp-scraper/internal/token"
)

// Acquirer obtains credentials on demand.
type Acquirer interface {
	Fresh(p models.Partition) (token.State, bool)
	Refresh(ctx context.Context, p models.Partition) (token.State, error)
	ForceRefresh(ctx context.Context, p models.Partition, rejected string) (token.State, error)
	Describe(p models.Partition) models.TokenInfo
}

// DiagnosticsHandler exposes operator tooling for credential acquisition.
type DiagnosticsHandler struct {
	acq    Acquirer
	logger *slog.Logger
}

// NewDiagnosticsHandler creates a new diagnostics handler.
func NewDiagnosticsHandler(acq Acquirer, logger *slog.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{acq: acq, logger: logger}
}

// RefreshInput is the input for a diagnostic refresh.
type RefreshInput struct {
	Sex   string `query:"sex" enum:"Male,Female" default:"Male" doc:"Competition partition"`
	Force bool   `query:"force" doc:"Capture a new credential even if the current one is fresh"`
}

// RefreshOutput describes the resulting credential.
type RefreshOutput struct {
	Body models.TokenInfo
}

// Register adds the diagnostics operations to api.
func (h *DiagnosticsHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "refreshCredential",
		Method:      http.MethodPost,
		Path:        "/diagnostics/refresh",
		Summary:     "Acquire a credential",
		Description: "Runs credential acquisition for a partition and reports its metadata.",
		Tags:        []string{"Diagnostics"},
	}, h.Refresh)
}

// Refresh acquires a credential and returns its metadata.
func (h *DiagnosticsHandler) Refresh(ctx context.Context, input *RefreshInput) (*RefreshOutput, error) {
	p := models.Partition(input.Sex)

	var err error
	if input.Force {
		current, _ := h.acq.Fresh(p)
		_, err = h.acq.ForceRefresh(ctx, p, current.Token)
	} else {
		_, err = h.acq.Refresh(ctx, p)
	}
	if err != nil {
		h.logger.Warn("diagnostic refresh failed", "partition", p, "force", input.Force, "error", err)
		return nil, httpError(err)
	}

	return &RefreshOutput{Body: h.acq.Describe(p)}, nil
}
