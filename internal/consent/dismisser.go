// Package consent dismisses the provider's cookie consent banner.
package consent

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
)

// Consent button selectors seen on Polish sites, most specific first.
var consentButtonSelectors = []string{
	// OneTrust
	`#onetrust-accept-btn-handler`,
	`button[id*="onetrust-accept"]`,

	// Cookiebot
	`#CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll`,
	`#CybotCookiebotDialogBodyButtonAccept`,

	// Didomi
	`#didomi-notice-agree-button`,

	// Generic patterns
	`button[data-testid="accept-cookies"]`,
	`button[aria-label*="Akceptuj"]`,
	`button[aria-label*="Accept"]`,
	`button.cookie-accept`,
	`button.accept-cookies`,
	`div[class*="cookie"] button[class*="accept"]`,
	`div[class*="consent"] button[class*="accept"]`,
}

// Button texts tried when no selector matches.
var acceptTexts = []string{
	"Akceptuję wszystkie",
	"Zaakceptuj wszystkie",
	"Akceptuj wszystkie",
	"Akceptuję",
	"Zgadzam się",
	"Przejdź do serwisu",
	"Accept all",
	"Accept All",
	"I agree",
}

// clickJS clicks the first visible matching element in a single round trip.
const clickJS = `(selectors, texts) => {
	const visible = (el) => {
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	};
	for (const sel of selectors) {
		let el = null;
		try { el = document.querySelector(sel); } catch (e) {}
		if (el && visible(el)) {
			el.click();
			return 'selector:' + sel;
		}
	}
	const candidates = document.querySelectorAll('button, a[role="button"], a');
	for (const text of texts) {
		for (const el of candidates) {
			if (el.textContent && el.textContent.trim().includes(text) && visible(el)) {
				el.click();
				return 'text:' + text;
			}
		}
	}
	return '';
}`

// Dismisser handles cookie consent banner dismissal.
type Dismisser struct {
	logger  *slog.Logger
	timeout time.Duration
}

// NewDismisser creates a new cookie consent dismisser.
func NewDismisser(logger *slog.Logger) *Dismisser {
	return &Dismisser{
		logger:  logger,
		timeout: 2 * time.Second, // Short timeout - the banner is optional
	}
}

// Dismiss clicks the consent banner's accept button if one is visible.
// Returns true if a banner was dismissed. Failures are logged and ignored.
func (d *Dismisser) Dismiss(ctx context.Context, page *rod.Page) bool {
	if page == nil {
		return false
	}
	result, err := page.Context(ctx).Timeout(d.timeout).Eval(clickJS, consentButtonSelectors, acceptTexts)
	if err != nil {
		d.logger.Debug("consent banner check failed", "error", err)
		return false
	}

	matched := result.Value.Str()
	if matched == "" {
		return false
	}

	d.logger.Info("dismissed cookie consent banner", "match", matched)
	return true
}
