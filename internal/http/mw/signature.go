// Package mw contains HTTP middleware for the scraper service.
package mw

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const (
	// TimestampHeader carries the signing time as Unix seconds.
	TimestampHeader = "X-LNP-Timestamp"
	// SignatureHeader carries the hex HMAC-SHA256 request signature.
	SignatureHeader = "X-LNP-Signature"

	// MaxClockSkew is how far a signature timestamp may drift from the server clock.
	MaxClockSkew = 5 * time.Minute
)

// SharedSecretConfig holds configuration for the shared secret middleware.
type SharedSecretConfig struct {
	// Secret signs requests. An empty secret disables the check.
	Secret string

	// Exempt lists paths served without a signature. Defaults to /health.
	Exempt []string

	// Now overrides the clock (tests).
	Now func() time.Time

	Logger *slog.Logger
}

// Sign returns the signature of a request made at timestamp (Unix seconds).
func Sign(secret, timestamp, method, path string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "\n" + method + "\n" + path))
	return hex.EncodeToString(mac.Sum(nil))
}

// SharedSecret returns middleware that requires requests to be signed with the
// shared secret. Signed message: timestamp, method and path joined by newlines.
func SharedSecret(cfg SharedSecretConfig) func(http.Handler) http.Handler {
	exempt := make(map[string]struct{})
	paths := cfg.Exempt
	if paths == nil {
		paths = []string{"/health"}
	}
	for _, p := range paths {
		exempt[p] = struct{}{}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return func(next http.Handler) http.Handler {
		if cfg.Secret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exempt[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if err := verifySignature(r, cfg.Secret, now()); err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Debug("request signature rejected",
						"path", r.URL.Path,
						"remote", r.RemoteAddr,
						"error", err,
					)
				}
				writeAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func verifySignature(r *http.Request, secret string, now time.Time) error {
	timestamp := r.Header.Get(TimestampHeader)
	signature := r.Header.Get(SignatureHeader)
	if timestamp == "" || signature == "" {
		return ErrMissingSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew > MaxClockSkew || skew < -MaxClockSkew {
		return ErrTimestampExpired
	}

	expected := Sign(secret, timestamp, r.Method, r.URL.Path)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"status": http.StatusUnauthorized,
		"detail": err.Error(),
	})
}

// Errors
var (
	ErrMissingSignature = &AuthError{Message: "missing request signature"}
	ErrInvalidTimestamp = &AuthError{Message: "invalid signature timestamp"}
	ErrTimestampExpired = &AuthError{Message: "timestamp expired"}
	ErrInvalidSignature = &AuthError{Message: "invalid signature"}
)

// AuthError represents an authentication error.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
