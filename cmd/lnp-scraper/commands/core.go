package commands

import (
	"fmt"
	"log/slog"

	"github.com/jmylchreest/lnp-scraper/internal/acquire"
	"github.com/jmylchreest/lnp-scraper/internal/browser"
	"github.com/jmylchreest/lnp-scraper/internal/config"
	"github.com/jmylchreest/lnp-scraper/internal/journal"
	"github.com/jmylchreest/lnp-scraper/internal/token"
)

// core is the credential side of the service shared by serve and solve.
type core struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *token.Store
	browser *browser.Manager
	journal *journal.Journal // nil when disabled
	engine  *acquire.Engine
}

func newCore(cfg *config.Config, logger *slog.Logger) (*core, error) {
	c := &core{cfg: cfg, logger: logger}

	c.store = token.NewStore(cfg.APIBaseURL, nil, logger)
	c.browser = browser.NewManager(cfg, c.store, logger)

	var recorder acquire.Recorder
	if cfg.JournalEnabled() {
		j, err := journal.Open(cfg.JournalPath, logger)
		if err != nil {
			return nil, fmt.Errorf("open capture journal: %w", err)
		}
		c.journal = j
		recorder = j
	} else {
		logger.Info("capture journal disabled")
	}

	c.engine = acquire.NewEngine(c.store, c.browser, recorder, acquire.OptionsFromConfig(cfg), logger)
	return c, nil
}

// Close stops the browser and closes the journal.
func (c *core) Close() {
	c.browser.Stop()
	if c.journal != nil {
		if err := c.journal.Close(); err != nil {
			c.logger.Warn("error closing capture journal", "error", err)
		}
	}
}
