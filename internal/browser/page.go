package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/jmylchreest/lnp-scraper/internal/consent"
	"github.com/jmylchreest/lnp-scraper/internal/models"
)

// Page is the tab dedicated to one partition. It is only driven while the
// partition's acquisition lock is held.
type Page struct {
	partition   models.Partition
	page        *rod.Page
	dismisser   *consent.Dismisser
	logger      *slog.Logger
	consentOnce sync.Once
}

// Navigate loads url, waits for DOMContentLoaded and lets the page's scripts settle.
func (pg *Page) Navigate(ctx context.Context, url string) error {
	p := pg.page.Context(ctx).Timeout(navigationTimeout)
	defer p.CancelTimeout()

	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		return err
	}
	wait()

	if err := p.GetContext().Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("navigation timed out after %s", navigationTimeout)
		}
		return err
	}

	pg.consentOnce.Do(func() {
		pg.dismisser.Dismiss(ctx, pg.page)
	})

	t := time.NewTimer(settleDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Location returns the URL and title the page is currently showing.
func (pg *Page) Location(ctx context.Context) (string, string, error) {
	info, err := pg.page.Context(ctx).Info()
	if err != nil {
		return "", "", err
	}
	return info.URL, info.Title, nil
}
