package mw

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmylchreest/lnp-scraper/internal/logging"
)

const testSecret = "s3cret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSign(t *testing.T) {
	a := Sign(testSecret, "100", "GET", "/seasons")
	if len(a) != 64 {
		t.Errorf("len(Sign()) = %d, want 64 hex chars", len(a))
	}
	if a != Sign(testSecret, "100", "GET", "/seasons") {
		t.Error("Sign() is not deterministic")
	}
	if a == Sign(testSecret, "100", "POST", "/seasons") {
		t.Error("Sign() ignores the method")
	}
	if a == Sign("other", "100", "GET", "/seasons") {
		t.Error("Sign() ignores the secret")
	}
}

func TestSharedSecret(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	handler := SharedSecret(SharedSecretConfig{
		Secret: testSecret,
		Now:    func() time.Time { return now },
	})(okHandler())

	signed := func(method, path string, at time.Time) *http.Request {
		req := httptest.NewRequest(method, path, nil)
		ts := strconv.FormatInt(at.Unix(), 10)
		req.Header.Set(TimestampHeader, ts)
		req.Header.Set(SignatureHeader, Sign(testSecret, ts, method, req.URL.Path))
		return req
	}

	tests := []struct {
		name string
		req  func() *http.Request
		want int
	}{
		{
			name: "valid signature",
			req:  func() *http.Request { return signed(http.MethodGet, "/seasons?sex=Male", now) },
			want: http.StatusOK,
		},
		{
			name: "small skew",
			req:  func() *http.Request { return signed(http.MethodPost, "/player-stats/batch", now.Add(4*time.Minute)) },
			want: http.StatusOK,
		},
		{
			name: "health exempt",
			req:  func() *http.Request { return httptest.NewRequest(http.MethodGet, "/health", nil) },
			want: http.StatusOK,
		},
		{
			name: "missing headers",
			req:  func() *http.Request { return httptest.NewRequest(http.MethodGet, "/seasons", nil) },
			want: http.StatusUnauthorized,
		},
		{
			name: "expired",
			req:  func() *http.Request { return signed(http.MethodGet, "/seasons", now.Add(-6*time.Minute)) },
			want: http.StatusUnauthorized,
		},
		{
			name: "future",
			req:  func() *http.Request { return signed(http.MethodGet, "/seasons", now.Add(6*time.Minute)) },
			want: http.StatusUnauthorized,
		},
		{
			name: "wrong path",
			req: func() *http.Request {
				req := signed(http.MethodGet, "/seasons", now)
				req.URL.Path = "/leagues"
				return req
			},
			want: http.StatusUnauthorized,
		},
		{
			name: "bad timestamp",
			req: func() *http.Request {
				req := signed(http.MethodGet, "/seasons", now)
				req.Header.Set(TimestampHeader, "yesterday")
				return req
			},
			want: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, tt.req())
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestSharedSecret_Disabled(t *testing.T) {
	handler := SharedSecret(SharedSecretConfig{})(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/seasons", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when no secret is configured", rr.Code)
	}
}

func TestRequestContext(t *testing.T) {
	var got string
	handler := middleware.RequestID(RequestContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = logging.GetRequestID(r.Context())
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == "" {
		t.Error("request id not copied into logging context")
	}
}
