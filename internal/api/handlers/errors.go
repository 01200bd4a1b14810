package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/lnp-scraper/internal/acquire"
	"github.com/jmylchreest/lnp-scraper/internal/ids"
	"github.com/jmylchreest/lnp-scraper/internal/service"
	"github.com/jmylchreest/lnp-scraper/internal/upstream"
)

// httpError maps service, acquisition and upstream errors to API responses.
func httpError(err error) error {
	var (
		verr *ids.ValidationError
		herr *upstream.HTTPError
		merr *upstream.MalformedBodyError
	)

	switch {
	case errors.As(err, &verr):
		return huma.Error400BadRequest(verr.Error())

	case errors.Is(err, service.ErrTeamsNotFound):
		return huma.Error404NotFound("Cannot discover teams table for this play")

	case errors.As(err, &herr):
		detail := herr.Body
		if detail == "" {
			detail = "error"
		}
		return huma.NewError(herr.Status, detail)

	case unavailable(err):
		if hint := acquire.Hint(err); hint != "" {
			return huma.Error503ServiceUnavailable(err.Error(), &huma.ErrorDetail{
				Message:  hint,
				Location: "remediation",
			})
		}
		return huma.Error503ServiceUnavailable(err.Error())

	case errors.As(err, &merr), errors.Is(err, upstream.ErrTransport):
		return huma.Error502BadGateway(err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return huma.NewError(http.StatusGatewayTimeout, "upstream request timed out")

	default:
		return huma.Error500InternalServerError(err.Error())
	}
}

func unavailable(err error) bool {
	return errors.Is(err, upstream.ErrUnavailable) ||
		errors.Is(err, acquire.ErrAntiBotBlocked) ||
		errors.Is(err, acquire.ErrDriverExhausted) ||
		errors.Is(err, acquire.ErrCaptureTimeout)
}
