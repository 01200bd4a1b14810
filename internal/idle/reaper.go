// Package idle stops the browser session after a period without API traffic.
package idle

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Session is the browser session released when the service is idle.
type Session interface {
	Running() bool
	Stop()
}

// Reaper tracks request activity and stops the browser session once the
// service has been idle for the configured timeout. The session is started
// again on demand by the next acquisition.
type Reaper struct {
	session         Session
	idleTimeout     time.Duration
	checkInterval   time.Duration
	lastRequest     atomic.Int64 // unix nanos
	activeRequests  atomic.Int64
	reaped          atomic.Int64
	logger          *slog.Logger
	stopCh          chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
	isHealthCheckFn func(*http.Request) bool
}

// Config configures the reaper.
type Config struct {
	// Timeout is the inactivity period before the session is stopped.
	// Set to 0 or negative to disable.
	Timeout time.Duration

	// CheckInterval is how often activity is checked. Defaults to
	// min(10s, Timeout/2).
	CheckInterval time.Duration

	Logger *slog.Logger

	// IsHealthCheck identifies requests that do not count as activity.
	// If nil, uses DefaultIsHealthCheck.
	IsHealthCheck func(*http.Request) bool
}

// NewReaper creates a reaper for session.
func NewReaper(session Session, cfg Config) *Reaper {
	isHealthCheck := cfg.IsHealthCheck
	if isHealthCheck == nil {
		isHealthCheck = DefaultIsHealthCheck
	}

	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 10 * time.Second
		if half := cfg.Timeout / 2; half > 0 && half < interval {
			interval = half
		}
	}

	r := &Reaper{
		session:         session,
		idleTimeout:     cfg.Timeout,
		checkInterval:   interval,
		logger:          cfg.Logger,
		stopCh:          make(chan struct{}),
		isHealthCheckFn: isHealthCheck,
	}
	r.touch()
	return r
}

// Start begins monitoring. It is a no-op when the reaper is disabled.
func (r *Reaper) Start() {
	if !r.IsEnabled() {
		r.logger.Info("browser idle reaper disabled (set BROWSER_IDLE_TIMEOUT to enable)")
		return
	}

	r.logger.Info("browser idle reaper started", "timeout", r.idleTimeout)

	r.wg.Add(1)
	go r.run()
}

// IsEnabled returns true if the timeout is positive.
func (r *Reaper) IsEnabled() bool {
	return r.idleTimeout > 0
}

// Stop stops monitoring. It does not stop the session.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *Reaper) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.check()
		}
	}
}

func (r *Reaper) check() {
	if r.activeRequests.Load() > 0 || !r.session.Running() {
		return
	}

	idleTime := r.IdleTime()
	if idleTime <= r.idleTimeout {
		return
	}

	r.logger.Info("browser idle timeout reached, stopping session",
		"idle_time", idleTime.Round(time.Second),
		"timeout", r.idleTimeout,
	)
	r.session.Stop()
	r.reaped.Add(1)
}

// TrackRequest marks that a request has started.
// Returns a function to call when the request completes.
func (r *Reaper) TrackRequest(req *http.Request) func() {
	if r.isHealthCheckFn(req) {
		return func() {}
	}

	r.activeRequests.Add(1)
	r.touch()

	return func() {
		r.activeRequests.Add(-1)
		r.touch()
	}
}

// Middleware returns HTTP middleware that tracks requests.
func (r *Reaper) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		done := r.TrackRequest(req)
		defer done()
		next.ServeHTTP(w, req)
	})
}

// ActiveRequests returns the current number of active requests.
func (r *Reaper) ActiveRequests() int64 {
	return r.activeRequests.Load()
}

// Reaped returns how many times the session was stopped for inactivity.
func (r *Reaper) Reaped() int64 {
	return r.reaped.Load()
}

// IdleTime returns how long the service has been idle.
func (r *Reaper) IdleTime() time.Duration {
	return time.Since(time.Unix(0, r.lastRequest.Load()))
}

func (r *Reaper) touch() {
	r.lastRequest.Store(time.Now().UnixNano())
}

// DefaultIsHealthCheck returns true for health probes by path or User-Agent.
func DefaultIsHealthCheck(r *http.Request) bool {
	if strings.Contains(r.Header.Get("User-Agent"), "HealthCheck") {
		return true
	}
	switch r.URL.Path {
	case "/health", "/healthz", "/livez", "/readyz":
		return true
	}
	return false
}
