package upstream

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/jmylchreest/lnp-scraper/internal/models"
)

var (
	// ErrUnavailable is matched by every credential acquisition failure.
	ErrUnavailable = errors.New("upstream credential unavailable")
	// ErrTransport is returned when the upstream could not be reached.
	ErrTransport = errors.New("upstream request failed")
)

// UnavailableError reports that no credential could be obtained for a partition.
type UnavailableError struct {
	Partition models.Partition
	Err       error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("credential unavailable for %s: %v", e.Partition, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is matches ErrUnavailable.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// HTTPError is an upstream response with status >= 400 after the re-authentication retry.
type HTTPError struct {
	Status int
	Body   string
	Path   string
}

// maxErrorBody caps the body bytes quoted in an error message.
const maxErrorBody = 200

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream %s returned %d: %s", e.Path, e.Status, truncate(e.Body, maxErrorBody))
}

// truncate shortens s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// MalformedBodyError is a non-empty upstream body that is not JSON.
type MalformedBodyError struct {
	Path string
	Err  error
}

func (e *MalformedBodyError) Error() string {
	return fmt.Sprintf("upstream %s returned malformed JSON: %v", e.Path, e.Err)
}

func (e *MalformedBodyError) Unwrap() error {
	return e.Err
}
