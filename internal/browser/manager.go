// Package browser manages the persistent Chromium session used to capture credentials.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/jmylchreest/lnp-scraper/internal/acquire"
	"github.com/jmylchreest/lnp-scraper/internal/config"
	"github.com/jmylchreest/lnp-scraper/internal/consent"
	"github.com/jmylchreest/lnp-scraper/internal/models"
	"github.com/jmylchreest/lnp-scraper/internal/token"
)

// DesktopUserAgent is presented by every partition page.
const DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	viewportWidth     = 1280
	viewportHeight    = 720
	navigationTimeout = 25 * time.Second
	settleDelay       = 250 * time.Millisecond
)

// Observer receives every outbound request a partition page makes.
type Observer interface {
	ObserveRequest(p models.Partition, url, authorization string) bool
}

// Manager owns one profile-backed browser and one page per partition.
// A restart requested for one partition also replaces the other's page.
type Manager struct {
	mu         sync.Mutex
	cfg        *config.Config
	observer   Observer
	dismisser  *consent.Dismisser
	logger     *slog.Logger
	launcher   *launcher.Launcher
	browser    *rod.Browser
	pages      map[models.Partition]*Page
	generation int64

	// Scopes the request listeners of the current generation.
	events     context.Context
	stopEvents context.CancelFunc
}

var _ acquire.Driver = (*Manager)(nil)

// NewManager creates a manager. The browser is launched lazily.
func NewManager(cfg *config.Config, observer Observer, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		observer:  observer,
		dismisser: consent.NewDismisser(logger),
		logger:    logger,
		pages:     make(map[models.Partition]*Page),
	}
}

// Warmup ensures a Chromium binary is available so the first acquisition does not download it.
func (m *Manager) Warmup(ctx context.Context) error {
	if m.cfg.ChromePath != "" {
		m.logger.Info("using custom Chrome path", "path", m.cfg.ChromePath)
		return nil
	}

	m.logger.Info("ensuring Chromium is available...")
	b := launcher.NewBrowser()
	b.Context = ctx
	path, err := b.Get()
	if err != nil {
		return fmt.Errorf("download chromium: %w", err)
	}
	m.logger.Info("Chromium ready", "path", path)
	return nil
}

// Start launches the browser if it is not already running.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(ctx)
}

// Stop closes every page and the browser. Close failures are logged, never returned.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// Restart replaces the browser process with a fresh one.
func (m *Manager) Restart(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("restarting browser", "generation", m.generation)
	m.stopLocked()
	return m.startLocked(ctx)
}

// Running reports whether a browser process is connected.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser != nil
}

// Stats returns the current browser state.
func (m *Manager) Stats() models.BrowserStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	pages := make([]string, 0, len(m.pages))
	for p := range m.pages {
		pages = append(pages, string(p))
	}
	sort.Strings(pages)

	return models.BrowserStats{
		Running:    m.browser != nil,
		Generation: m.generation,
		Pages:      pages,
		Headless:   m.cfg.Headless,
	}
}

// EnsurePage returns the partition's page, starting the browser and creating the page on demand.
func (m *Manager) EnsurePage(ctx context.Context, p models.Partition) (acquire.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.startLocked(ctx); err != nil {
		return nil, err
	}
	if pg, ok := m.pages[p]; ok {
		return pg, nil
	}

	rp, err := createPage(m.browser, !m.cfg.DisableStealth)
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if err := m.preparePage(rp); err != nil {
		_ = rp.Close()
		return nil, err
	}
	m.attachObserver(p, rp)

	pg := &Page{
		partition: p,
		page:      rp,
		dismisser: m.dismisser,
		logger:    m.logger.With("partition", p),
	}
	m.pages[p] = pg
	m.logger.Debug("partition page created", "partition", p, "generation", m.generation)
	return pg, nil
}

func (m *Manager) startLocked(ctx context.Context) error {
	if m.browser != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(m.cfg.ProfileDir, 0o700); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	l := launcher.New().
		UserDataDir(m.cfg.ProfileDir).
		Headless(m.cfg.Headless)

	if m.cfg.ChromePath != "" {
		l = l.Bin(m.cfg.ChromePath)
	}

	l = l.
		Set("disable-blink-features", "AutomationControlled").
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("disable-infobars").
		Set("window-size", fmt.Sprintf("%d,%d", viewportWidth, viewportHeight)).
		Set("lang", "pl-PL")

	m.logger.Info("starting browser",
		"headless", m.cfg.Headless,
		"interactive", m.cfg.Interactive,
		"profile", m.cfg.ProfileDir,
	)

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connect browser: %w", err)
	}

	m.events, m.stopEvents = context.WithCancel(context.Background())
	m.launcher = l
	m.browser = b
	m.generation++

	m.logger.Info("browser started", "generation", m.generation)
	return nil
}

func (m *Manager) stopLocked() {
	if m.stopEvents != nil {
		m.stopEvents()
		m.events, m.stopEvents = nil, nil
	}

	for p, pg := range m.pages {
		if err := pg.page.Close(); err != nil {
			m.logger.Warn("error closing page", "partition", p, "error", err)
		}
	}
	m.pages = make(map[models.Partition]*Page)

	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.logger.Warn("error closing browser", "error", err)
		}
		m.browser = nil
	}

	// Kill only; launcher.Cleanup would delete the persistent profile.
	if m.launcher != nil {
		m.launcher.Kill()
		m.launcher = nil
	}

	m.logger.Info("browser stopped", "generation", m.generation)
}

// preparePage applies the Polish desktop fingerprint and enables request events.
func (m *Manager) preparePage(rp *rod.Page) error {
	if err := rp.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      DesktopUserAgent,
		AcceptLanguage: "pl-PL,pl;q=0.9,en-US;q=0.8,en;q=0.7",
		Platform:       "Win32",
	}); err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}
	if err := (proto.EmulationSetTimezoneOverride{TimezoneID: "Europe/Warsaw"}).Call(rp); err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}
	if err := (proto.EmulationSetLocaleOverride{Locale: "pl-PL"}).Call(rp); err != nil {
		m.logger.Debug("locale override not supported", "error", err)
	}
	if err := rp.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}
	if err := (proto.NetworkEnable{}).Call(rp); err != nil {
		return fmt.Errorf("enable network events: %w", err)
	}
	return nil
}

// attachObserver forwards every outbound request of the page to the observer
// until the current generation is stopped.
func (m *Manager) attachObserver(p models.Partition, rp *rod.Page) {
	wait := rp.Context(m.events).EachEvent(func(ev *proto.NetworkRequestWillBeSent) {
		if ev.Request == nil {
			return
		}
		m.observer.ObserveRequest(p, ev.Request.URL, authorizationHeader(ev.Request.Headers))
	})
	go wait()
}

// authorizationHeader finds the Authorization header regardless of its case.
func authorizationHeader(headers proto.NetworkHeaders) string {
	for k, v := range headers {
		if strings.EqualFold(k, "authorization") {
			if s, ok := v.Val().(string); ok {
				return s
			}
		}
	}
	return ""
}

var _ Observer = (*token.Store)(nil)
