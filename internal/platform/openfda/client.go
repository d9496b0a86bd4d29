// Package openfda queries the openFDA drug label endpoint.
package openfda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/medreview/medreview/internal/platform/metrics"
)

const (
	DefaultBaseURL = "https://api.fda.gov"
	labelPath      = "/drug/label.json"
)

// ErrNotFound is returned when openFDA has no label matching the query.
var ErrNotFound = errors.New("openfda: label not found")

type Config struct {
	BaseURL string
	APIKey  string
	// Timeout bounds each outbound request, including the wait for the
	// limiter.
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 4
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		http:    cfg.HTTPClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  logger.With().Str("component", "openfda").Logger(),
	}
}

type searchResponse struct {
	Meta struct {
		Results struct {
			Total int `json:"total"`
		} `json:"results"`
	} `json:"meta"`
	Results []Label   `json:"results"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FindByGenericName returns the first label whose openfda.generic_name
// matches name. Upstream failures are logged and reported as a miss.
func (c *Client) FindByGenericName(ctx context.Context, name string) (*Label, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}

	label, err := c.search(ctx, "generic_name", fieldQuery("openfda.generic_name", name))
	switch {
	case err == nil:
		metrics.LabelLookupTotal.WithLabelValues("found").Inc()
		return label, true
	case errors.Is(err, ErrNotFound):
		metrics.LabelLookupTotal.WithLabelValues("not_found").Inc()
		c.logger.Debug().Str("generic_name", name).Msg("no label found")
		return nil, false
	default:
		metrics.LabelLookupTotal.WithLabelValues("error").Inc()
		c.logger.Warn().Err(err).Str("generic_name", name).Msg("label lookup failed")
		return nil, false
	}
}

// FindByID fetches a label by its openFDA id.
func (c *Client) FindByID(ctx context.Context, id string) (*Label, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	return c.search(ctx, "id", fieldQuery("id", id))
}

func fieldQuery(field, value string) string {
	value = strings.ReplaceAll(strings.TrimSpace(value), `"`, "")
	return fmt.Sprintf(`%s:"%s"`, field, value)
}

func (c *Client) search(ctx context.Context, op, query string) (*Label, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("search", query)
	params.Set("limit", "1")
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+labelPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ObserveUpstream("openfda", op, start)
	if err != nil {
		return nil, fmt.Errorf("request label: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var sr searchResponse
	if resp.StatusCode == http.StatusNotFound {
		if json.Unmarshal(body, &sr) == nil && sr.Error != nil && sr.Error.Code == "NOT_FOUND" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(sr.Results) == 0 {
		return nil, ErrNotFound
	}
	return &sr.Results[0], nil
}
