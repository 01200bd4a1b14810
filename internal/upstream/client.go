// Package upstream performs authenticated requests against the competition API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"github.com/jmylchreest/lnp-scraper/internal/config"
	"github.com/jmylchreest/lnp-scraper/internal/logging"
	"github.com/jmylchreest/lnp-scraper/internal/models"
	"github.com/jmylchreest/lnp-scraper/internal/token"
)

const (
	maxConnsPerHost = 25
	maxIdleConns    = 10
)

// Authenticator supplies bearer credentials per partition.
type Authenticator interface {
	Fresh(p models.Partition) (token.State, bool)
	Refresh(ctx context.Context, p models.Partition) (token.State, error)
	ForceRefresh(ctx context.Context, p models.Partition, rejected string) (token.State, error)
}

// Client is the single shared connection pool to the competition API.
type Client struct {
	http        *resty.Client
	transport   *http.Transport
	auth        Authenticator
	logger      *slog.Logger
	concurrency int
}

// New creates a client for cfg.APIBaseURL that presents browser-like headers.
func New(cfg *config.Config, auth Authenticator, logger *slog.Logger) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxConnsPerHost:     maxConnsPerHost,
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConns,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	client := resty.New()
	client.SetTransport(transport)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetBaseURL(cfg.APIBaseURL)
	client.SetTimeout(cfg.UpstreamTimeout)
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))
	client.SetHeaders(map[string]string{
		"accept":     "application/json, text/plain, */*",
		"origin":     cfg.SiteURL,
		"referer":    cfg.SiteURL + "/",
		"user-agent": "Mozilla/5.0",
	})
	client.JSONUnmarshal = decodeJSON

	concurrency := cfg.StatsConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Client{
		http:        client,
		transport:   transport,
		auth:        auth,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Close releases idle pooled connections.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// GetJSON fetches path with the partition's credential and decodes the JSON body.
// A 401 triggers exactly one forced re-authentication and one retry.
// An empty body yields (nil, nil).
func (c *Client) GetJSON(ctx context.Context, p models.Partition, path string) (any, error) {
	ctx = logging.WithPartition(ctx, string(p))
	logger := logging.FromContext(ctx, c.logger)

	st, err := c.credential(ctx, p)
	if err != nil {
		return nil, err
	}

	logger.Debug("GET", "path", path, "token_age", time.Since(st.CapturedAt), "token_src", st.SourceURL)

	resp, err := c.get(ctx, path, st.Token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		logger.Info("upstream rejected credential, re-authenticating", "path", path)
		st, err = c.auth.ForceRefresh(ctx, p, st.Token)
		if err != nil {
			return nil, &UnavailableError{Partition: p, Err: err}
		}
		resp, err = c.get(ctx, path, st.Token)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, &HTTPError{
			Status: resp.StatusCode(),
			Body:   strings.TrimSpace(resp.String()),
			Path:   path,
		}
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		return nil, nil
	}

	var v any
	if err := c.http.JSONUnmarshal(body, &v); err != nil {
		return nil, &MalformedBodyError{Path: path, Err: err}
	}
	return v, nil
}

func (c *Client) credential(ctx context.Context, p models.Partition) (token.State, error) {
	if st, ok := c.auth.Fresh(p); ok {
		return st, nil
	}
	st, err := c.auth.Refresh(ctx, p)
	if err != nil {
		return token.State{}, &UnavailableError{Partition: p, Err: err}
	}
	return st, nil
}

func (c *Client) get(ctx context.Context, path, bearer string) (*resty.Response, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(bearer).
		Get(path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: GET %s: %v", ErrTransport, path, err)
	}
	return resp, nil
}

// decodeJSON keeps numbers exact and rejects trailing data.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}
