package acquire

import (
	"errors"
	"fmt"

	"github.com/jmylchreest/lnp-scraper/internal/models"
)

var (
	// ErrAntiBotBlocked is returned when the provider's anti-bot flow prevents capture.
	// It is not recoverable without a one-time interactive session.
	ErrAntiBotBlocked = errors.New("anti-bot challenge is blocking credential capture")
	// ErrCaptureTimeout is returned when no bearer was observed within the capture window.
	ErrCaptureTimeout = errors.New("no bearer captured (timeout)")
	// ErrDriverExhausted is returned when every restart and capture attempt failed.
	ErrDriverExhausted = errors.New("credential acquisition exhausted")
	// ErrUnknownPartition is returned for partitions other than Male and Female.
	ErrUnknownPartition = errors.New("unknown partition")
)

// RemediationHint tells an operator how to clear a persistent anti-bot block.
const RemediationHint = "Run the service once with HEADLESS=0 and LNP_INTERACTIVE=1 (or `lnp-scraper solve`), " +
	"clear the challenge in the browser window, then switch back to HEADLESS=1."

// DriverExhaustedError wraps the last failure after all generations were used.
type DriverExhaustedError struct {
	Partition   models.Partition
	Generations int
	Attempts    int
	Last        error
}

func (e *DriverExhaustedError) Error() string {
	return fmt.Sprintf("no bearer captured for %s after %d generation(s) of %d attempt(s): %v",
		e.Partition, e.Generations, e.Attempts, e.Last)
}

// Unwrap exposes both ErrDriverExhausted and the last attempt error to errors.Is.
func (e *DriverExhaustedError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrDriverExhausted}
	}
	return []error{ErrDriverExhausted, e.Last}
}

// Hint returns the remediation hint for errors caused by the anti-bot flow.
func Hint(err error) string {
	if errors.Is(err, ErrAntiBotBlocked) {
		return RemediationHint
	}
	return ""
}

func blocked(reason string) error {
	return fmt.Errorf("%w: %s", ErrAntiBotBlocked, reason)
}
