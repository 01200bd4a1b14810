// Package acquire captures bearer credentials by driving the provider's web page.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/lnp-scraper/internal/challenge"
	"github.com/jmylchreest/lnp-scraper/internal/config"
	"github.com/jmylchreest/lnp-scraper/internal/logging"
	"github.com/jmylchreest/lnp-scraper/internal/models"
	"github.com/jmylchreest/lnp-scraper/internal/token"
)

// Page is a browser tab dedicated to one partition.
type Page interface {
	// Navigate loads url and returns once the DOM is ready.
	Navigate(ctx context.Context, url string) error
	// Location returns the URL and title the page ended up on.
	Location(ctx context.Context) (pageURL, title string, err error)
}

// Driver owns the browser process shared by all partitions.
type Driver interface {
	EnsurePage(ctx context.Context, p models.Partition) (Page, error)
	Restart(ctx context.Context) error
}

// Recorder persists acquisition outcomes.
type Recorder interface {
	Record(ctx context.Context, rec models.CaptureRecord) error
}

// Options tunes the acquisition state machine.
type Options struct {
	SiteURL              string
	TTL                  time.Duration
	CaptureWait          time.Duration
	CaptureRetries       int
	DriverRestartRetries int
	ManualSolveWait      time.Duration
	Headless             bool
	Interactive          bool

	PollInterval       time.Duration
	ManualPollInterval time.Duration
	Backoff            time.Duration
}

// OptionsFromConfig builds Options with the standard polling cadence.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SiteURL:              cfg.SiteURL,
		TTL:                  cfg.TokenTTL,
		CaptureWait:          cfg.CaptureWait,
		CaptureRetries:       cfg.CaptureRetries,
		DriverRestartRetries: cfg.DriverRestartRetries,
		ManualSolveWait:      cfg.ManualSolveWait,
		Headless:             cfg.Headless,
		Interactive:          cfg.Interactive,
		PollInterval:         100 * time.Millisecond,
		ManualPollInterval:   200 * time.Millisecond,
		Backoff:              350 * time.Millisecond,
	}
}

// Engine serializes credential acquisition per partition.
type Engine struct {
	store    *token.Store
	driver   Driver
	recorder Recorder
	opts     Options
	logger   *slog.Logger

	locksMu sync.Mutex
	locks   map[models.Partition]chan struct{}
}

// NewEngine creates an engine. recorder may be nil.
func NewEngine(store *token.Store, driver Driver, recorder Recorder, opts Options, logger *slog.Logger) *Engine {
	if opts.CaptureRetries < 1 {
		opts.CaptureRetries = 1
	}
	if opts.DriverRestartRetries < 0 {
		opts.DriverRestartRetries = 0
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.ManualPollInterval <= 0 {
		opts.ManualPollInterval = 200 * time.Millisecond
	}

	return &Engine{
		store:    store,
		driver:   driver,
		recorder: recorder,
		opts:     opts,
		logger:   logger,
		locks:    make(map[models.Partition]chan struct{}),
	}
}

// Fresh returns the partition's credential and whether it is within TTL. It never blocks.
func (e *Engine) Fresh(p models.Partition) (token.State, bool) {
	st := e.store.Get(p)
	return st, st.Fresh(e.store.Now(), e.opts.TTL)
}

// Refresh returns a fresh credential, capturing a new one if needed.
// Concurrent callers for one partition share a single acquisition.
func (e *Engine) Refresh(ctx context.Context, p models.Partition) (token.State, error) {
	return e.refresh(ctx, p, false, "")
}

// ForceRefresh captures a new credential because rejected was refused upstream.
// If another caller already replaced rejected with a fresh token, that token is returned.
func (e *Engine) ForceRefresh(ctx context.Context, p models.Partition, rejected string) (token.State, error) {
	return e.refresh(ctx, p, true, rejected)
}

// Describe reports a partition's credential metadata without the token itself.
func (e *Engine) Describe(p models.Partition) models.TokenInfo {
	now := e.store.Now()
	st := e.store.Get(p)
	info := models.TokenInfo{
		Partition: p,
		Present:   !st.Empty(),
		Fresh:     st.Fresh(now, e.opts.TTL),
	}
	if !st.Empty() {
		info.SourceURL = st.SourceURL
		info.CapturedAtMs = st.CapturedAtMs()
		info.AgeMs = st.Age(now).Milliseconds()
		info.ExpiresAtMs = st.ExpiresAtMs()
	}
	if last := e.store.LastChallenge(p); !last.IsZero() {
		info.LastChallengeMs = last.UnixMilli()
	}
	return info
}

func (e *Engine) refresh(ctx context.Context, p models.Partition, forced bool, rejected string) (token.State, error) {
	if _, err := models.ParsePartition(string(p)); err != nil {
		return token.State{}, fmt.Errorf("%w: %q", ErrUnknownPartition, p)
	}

	ctx = logging.WithPartition(ctx, string(p))
	ctx = logging.WithRefreshID(ctx, ulid.Make().String())
	logger := logging.FromContext(ctx, e.logger).With("forced", forced)

	unlock, err := e.lock(ctx, p)
	if err != nil {
		return token.State{}, err
	}
	defer unlock()

	started := time.Now()

	// Another caller may have finished while we waited for the lock.
	if st := e.store.Get(p); st.Fresh(e.store.Now(), e.opts.TTL) && (!forced || st.Token != rejected) {
		logger.Debug("credential already fresh", "age", st.Age(e.store.Now()))
		e.record(ctx, models.CaptureRecord{
			Partition:  p,
			Outcome:    models.OutcomeCached,
			Forced:     forced,
			DurationMs: time.Since(started).Milliseconds(),
			SourceURL:  st.SourceURL,
		})
		return st, nil
	}

	accept := e.acceptor(forced, rejected, e.store.Now())
	generations := e.opts.DriverRestartRetries + 1

	var lastErr error
	for gen := 0; gen < generations; gen++ {
		if gen > 0 {
			logger.Warn("all capture attempts failed, restarting browser", "generation", gen, "error", lastErr)
			if err := e.driver.Restart(ctx); err != nil {
				lastErr = fmt.Errorf("restart browser: %w", err)
				if ctx.Err() != nil {
					break
				}
				continue
			}
		}

		page, err := e.driver.EnsurePage(ctx, p)
		if err != nil {
			lastErr = fmt.Errorf("open page: %w", err)
			logger.Warn("failed to open partition page", "generation", gen, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		for attempt := 1; attempt <= e.opts.CaptureRetries; attempt++ {
			logger.Debug("capturing credential", "generation", gen, "attempt", attempt, "of", e.opts.CaptureRetries)

			st, err := e.attempt(ctx, logger, p, page, accept)
			if err == nil {
				logger.Info("captured credential", "generation", gen, "attempt", attempt,
					"source", st.SourceURL, "duration", time.Since(started))
				e.record(ctx, models.CaptureRecord{
					Partition:  p,
					Outcome:    models.OutcomeCaptured,
					Forced:     forced,
					Generation: gen,
					Attempt:    attempt,
					DurationMs: time.Since(started).Milliseconds(),
					SourceURL:  st.SourceURL,
				})
				return st, nil
			}

			lastErr = err
			logger.Warn("credential capture attempt failed", "generation", gen, "attempt", attempt, "error", err)

			if ctx.Err() != nil || sleep(ctx, e.opts.Backoff) != nil {
				break
			}
		}

		if ctx.Err() != nil {
			break
		}
	}

	if ctx.Err() != nil {
		e.recordFailure(ctx, p, forced, started, ctx.Err())
		return token.State{}, ctx.Err()
	}

	exhausted := &DriverExhaustedError{
		Partition:   p,
		Generations: generations,
		Attempts:    e.opts.CaptureRetries,
		Last:        lastErr,
	}
	logger.Error("credential acquisition exhausted", "error", exhausted)
	e.recordFailure(ctx, p, forced, started, exhausted)
	return token.State{}, exhausted
}

// attempt performs one navigation and waits for the hook to observe a bearer.
func (e *Engine) attempt(ctx context.Context, logger *slog.Logger, p models.Partition, page Page, accept acceptFunc) (token.State, error) {
	// Challenge times are kept at millisecond precision.
	attemptStart := e.store.Now().UnixMilli()

	if err := page.Navigate(ctx, e.captureURL(p)); err != nil {
		return token.State{}, fmt.Errorf("navigate: %w", err)
	}

	if pageURL, title, err := page.Location(ctx); err == nil {
		detection := challenge.Classify(pageURL, title)
		if detection.Blocked() {
			return token.State{}, blocked("provider redirected to " + challenge.BlockedRoute)
		}
		if detection.Type != challenge.TypeNone {
			logger.Debug("challenge page detected", "type", detection.Type, "url", pageURL, "title", title)
		}
	}

	if st, ok := e.waitForToken(ctx, p, e.opts.CaptureWait, e.opts.PollInterval, accept); ok {
		return st, nil
	}
	if ctx.Err() != nil {
		return token.State{}, ctx.Err()
	}

	last := e.store.LastChallenge(p)
	challenged := !last.IsZero() && last.UnixMilli() >= attemptStart
	if challenged && e.opts.Headless && !e.opts.Interactive {
		return token.State{}, blocked("challenge request observed before capture timeout")
	}

	if e.opts.Interactive && !e.opts.Headless && e.opts.ManualSolveWait > 0 {
		logger.Info("waiting for manual challenge solve in browser window",
			"wait", e.opts.ManualSolveWait, "challenged", challenged)
		if st, ok := e.waitForToken(ctx, p, e.opts.ManualSolveWait, e.opts.ManualPollInterval, accept); ok {
			return st, nil
		}
		if ctx.Err() != nil {
			return token.State{}, ctx.Err()
		}
	}

	return token.State{}, ErrCaptureTimeout
}

// acceptFunc decides whether an observed state satisfies a capture with the given window.
type acceptFunc func(st token.State, now time.Time, window time.Duration) bool

// acceptor returns the capture predicate. Forced refreshes only accept a token
// other than rejected that was observed after the refresh began.
func (e *Engine) acceptor(forced bool, rejected string, since time.Time) acceptFunc {
	return func(st token.State, now time.Time, window time.Duration) bool {
		if st.Empty() || st.Age(now) >= window {
			return false
		}
		if !forced {
			return true
		}
		return st.Token != rejected && !st.CapturedAt.Before(since)
	}
}

func (e *Engine) waitForToken(ctx context.Context, p models.Partition, window, interval time.Duration, accept acceptFunc) (token.State, bool) {
	deadline := time.Now().Add(window)
	for {
		if st := e.store.Get(p); accept(st, e.store.Now(), window) {
			return st, true
		}
		if !time.Now().Before(deadline) {
			return token.State{}, false
		}
		if sleep(ctx, interval) != nil {
			return token.State{}, false
		}
	}
}

// captureURL busts the page cache with __ts so every attempt issues fresh API calls.
func (e *Engine) captureURL(p models.Partition) string {
	return fmt.Sprintf("%s/rozgrywki?isAdvanceMode=false&genderType=%s&__ts=%s",
		e.opts.SiteURL, url.QueryEscape(string(p)), strconv.FormatInt(e.store.Now().UnixMilli(), 10))
}

// lock takes the partition's acquisition lock. Waiters give up when ctx ends.
func (e *Engine) lock(ctx context.Context, p models.Partition) (func(), error) {
	e.locksMu.Lock()
	ch, ok := e.locks[p]
	if !ok {
		ch = make(chan struct{}, 1)
		e.locks[p] = ch
	}
	e.locksMu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Engine) recordFailure(ctx context.Context, p models.Partition, forced bool, started time.Time, err error) {
	rec := models.CaptureRecord{
		Partition:  p,
		Outcome:    models.OutcomeFailed,
		Forced:     forced,
		DurationMs: time.Since(started).Milliseconds(),
		Error:      err.Error(),
	}
	var exhausted *DriverExhaustedError
	if errors.As(err, &exhausted) {
		rec.Generation = exhausted.Generations - 1
		rec.Attempt = exhausted.Attempts
	}
	e.record(ctx, rec)
}

func (e *Engine) record(ctx context.Context, rec models.CaptureRecord) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		e.logger.Warn("failed to journal capture outcome", "partition", rec.Partition, "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
