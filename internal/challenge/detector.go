// Package challenge classifies the provider page after a navigation.
package challenge

import "strings"

// Type represents the kind of anti-bot evidence found on a page.
type Type string

const (
	// TypeNone indicates a normal competition page.
	TypeNone Type = "none"
	// TypeBlockedRoute indicates the site redirected to its internal 404 route (anti-bot flow).
	TypeBlockedRoute Type = "blocked_route"
	// TypeReCaptcha indicates the reCAPTCHA authorization flow is on screen.
	TypeReCaptcha Type = "recaptcha"
	// TypeInterstitial indicates a generic "checking your browser" interstitial.
	TypeInterstitial Type = "interstitial"
)

// BlockedRoute is the path the provider redirects suspected bots to.
const BlockedRoute = "/rozgrywki/404"

// Detection contains information about a classified page.
type Detection struct {
	Type    Type   `json:"type"`
	PageURL string `json:"pageUrl"`
	Title   string `json:"title"`
}

// Blocked reports whether the page can never yield a credential without human help.
func (d Detection) Blocked() bool {
	return d.Type == TypeBlockedRoute
}

var interstitialTitles = []string{
	"just a moment",
	"checking your browser",
	"verify you are human",
	"attention required",
	"one more step",
	"weryfikacja",
	"sprawdzanie przeglądarki",
	"potwierdź, że jesteś człowiekiem",
}

// Classify inspects the URL and title the browser landed on.
func Classify(pageURL, title string) Detection {
	d := Detection{Type: TypeNone, PageURL: pageURL, Title: title}

	urlLower := strings.ToLower(pageURL)
	switch {
	case strings.Contains(urlLower, BlockedRoute):
		d.Type = TypeBlockedRoute
	case strings.Contains(urlLower, "/authorize/recaptcha"), strings.Contains(urlLower, "google.com/recaptcha"):
		d.Type = TypeReCaptcha
	case isInterstitialTitle(title):
		d.Type = TypeInterstitial
	}

	return d
}

func isInterstitialTitle(title string) bool {
	titleLower := strings.ToLower(title)
	for _, pattern := range interstitialTitles {
		if strings.Contains(titleLower, pattern) {
			return true
		}
	}
	return false
}
