package challenge

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		title   string
		want    Type
		blocked bool
	}{
		{"competition page", "https://www.laczynaspilka.pl/rozgrywki?genderType=Male", "Rozgrywki | Łączy nas piłka", TypeNone, false},
		{"blocked route", "https://www.laczynaspilka.pl/rozgrywki/404", "", TypeBlockedRoute, true},
		{"blocked route any case", "https://www.laczynaspilka.pl/Rozgrywki/404?x=1", "", TypeBlockedRoute, true},
		{"recaptcha flow", "https://competition-api-pro.laczynaspilka.pl/Authorize/recaptcha", "", TypeReCaptcha, false},
		{"interstitial title", "https://www.laczynaspilka.pl/rozgrywki", "Just a moment...", TypeInterstitial, false},
		{"polish interstitial", "https://www.laczynaspilka.pl/", "Weryfikacja bezpieczeństwa", TypeInterstitial, false},
		{"blocked wins over title", "https://www.laczynaspilka.pl/rozgrywki/404", "Just a moment", TypeBlockedRoute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.url, tt.title)
			if got.Type != tt.want {
				t.Errorf("Classify(%q, %q).Type = %q, want %q", tt.url, tt.title, got.Type, tt.want)
			}
			if got.Blocked() != tt.blocked {
				t.Errorf("Blocked() = %v, want %v", got.Blocked(), tt.blocked)
			}
			if got.PageURL != tt.url || got.Title != tt.title {
				t.Errorf("Detection = %+v, want url/title carried through", got)
			}
		})
	}
}
