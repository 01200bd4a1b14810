package token

import (
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jmylchreest/lnp-scraper/internal/models"
)

// ChallengePath marks the provider's reCAPTCHA authorization request.
const ChallengePath = "/Authorize/recaptcha"

type slot struct {
	state       atomic.Pointer[State]
	challengeAt atomic.Int64 // Unix ms of the last observed challenge request
}

// Store owns the credential slot of every partition.
// Slots are replaced as whole records; readers never see a half-written state.
type Store struct {
	apiHost string
	clock   Clock
	logger  *slog.Logger
	slots   map[models.Partition]*slot
}

// NewStore creates a store that accepts tokens observed on requests to apiBaseURL's host.
func NewStore(apiBaseURL string, clock Clock, logger *slog.Logger) *Store {
	if clock == nil {
		clock = time.Now
	}
	host := apiBaseURL
	if u, err := url.Parse(apiBaseURL); err == nil && u.Host != "" {
		host = u.Host
	}

	slots := make(map[models.Partition]*slot, 2)
	for _, p := range models.Partitions() {
		slots[p] = &slot{}
	}

	return &Store{
		apiHost: strings.ToLower(host),
		clock:   clock,
		logger:  logger,
		slots:   slots,
	}
}

// Now returns the store's clock reading.
func (s *Store) Now() time.Time {
	return s.clock()
}

// Get returns the current state of a partition.
func (s *Store) Get(p models.Partition) State {
	sl, ok := s.slots[p]
	if !ok {
		return State{}
	}
	if st := sl.state.Load(); st != nil {
		return *st
	}
	return State{}
}

// LastChallenge returns when a challenge request was last observed (zero if never).
func (s *Store) LastChallenge(p models.Partition) time.Time {
	sl, ok := s.slots[p]
	if !ok {
		return time.Time{}
	}
	ms := sl.challengeAt.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// ObserveRequest inspects one outbound browser request for partition p.
// It is the only writer of credential state. Returns true when a token was captured.
func (s *Store) ObserveRequest(p models.Partition, rawURL, authorization string) bool {
	sl, ok := s.slots[p]
	if !ok || !s.isAPIRequest(rawURL) {
		return false
	}

	tok, ok := parseBearer(authorization)
	if !ok {
		if strings.Contains(rawURL, ChallengePath) {
			sl.challengeAt.Store(s.clock().UnixMilli())
			s.logger.Debug("challenge request observed", "partition", p, "url", rawURL)
		}
		return false
	}

	st := &State{
		Token:      tok,
		SourceURL:  rawURL,
		CapturedAt: s.clock(),
		ExpiresAt:  expiry(tok),
	}
	sl.state.Store(st)
	s.logger.Debug("captured bearer", "partition", p, "source", rawURL)
	return true
}

func (s *Store) isAPIRequest(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.ToLower(u.Host) == s.apiHost
}

// parseBearer extracts a structured token (at least two dot separators).
func parseBearer(authorization string) (string, bool) {
	const prefix = "bearer "
	if len(authorization) < len(prefix) || !strings.EqualFold(authorization[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(authorization[len(prefix):])
	if tok == "" || strings.Count(tok, ".") < 2 {
		return "", false
	}
	return tok, true
}

// expiry decodes the exp claim without verifying the signature.
func expiry(tok string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
