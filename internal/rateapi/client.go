package rateapi

import (
	"context"
	"fmt"
	"strings"

	"currency-converter-go/internal/config"
	"currency-converter-go/internal/metrics"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	endpointCurrencies = "/currencies"
	endpointLatest     = "/latest"
	endpointHistorical = "/historical"
	endpointStatus     = "/status"
)

// ClientInterface defines the calls the conversion client makes to the rate API.
type ClientInterface interface {
	Currencies(ctx context.Context) (map[string]Currency, error)
	Latest(ctx context.Context, base string, targets ...string) (map[string]float64, error)
	Historical(ctx context.Context, date, base string, targets ...string) (map[string]map[string]float64, error)
	Status(ctx context.Context) (map[string]interface{}, error)
}

// Client is a client for the external exchange-rate API.
// It implements the ClientInterface.
type Client struct {
	client  *resty.Client
	apiKey  string
	logger  *zap.Logger
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new rate API client. m may be nil.
func NewClient(cfg *config.RateAPI, logger *zap.Logger, m *metrics.Metrics) *Client {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	if cfg.ApiKey == "" {
		logger.Warn("Rate API key is empty, requests will likely be rejected")
	}

	return &Client{
		client:  resty.New().SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")),
		apiKey:  cfg.ApiKey,
		logger:  logger.Named("rateapi"),
		limiter: rate.NewLimiter(limit, burst),
		metrics: m,
	}
}

// Currency describes one entry of the currency catalog.
type Currency struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	SymbolNative  string `json:"symbol_native"`
	DecimalDigits int    `json:"decimal_digits"`
	Rounding      int    `json:"rounding"`
	Code          string `json:"code"`
	NamePlural    string `json:"name_plural"`
	Type          string `json:"type"`
}

type currenciesResponse struct {
	Data map[string]Currency `json:"data"`
}

type latestResponse struct {
	Data map[string]float64 `json:"data"`
}

type historicalResponse struct {
	Data map[string]map[string]float64 `json:"data"`
}

// doRequest waits for the limiter and executes a GET. There are no retries:
// a failed request is reported to the caller as is.
func (c *Client) doRequest(ctx context.Context, endpoint string, req *resty.Request) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	c.logger.Debug("Executing request", zap.String("url", c.client.BaseURL+endpoint))
	resp, err := req.
		SetContext(ctx).
		SetQueryParam("apikey", c.apiKey).
		Get(endpoint)
	if err == nil && resp.IsError() {
		err = fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
	}

	if c.metrics != nil {
		c.metrics.ObserveRateAPI(strings.TrimPrefix(endpoint, "/"), err)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Currencies fetches the currency catalog keyed by currency code.
func (c *Client) Currencies(ctx context.Context) (map[string]Currency, error) {
	req := c.client.R().SetResult(&currenciesResponse{})

	resp, err := c.doRequest(ctx, endpointCurrencies, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get currencies: %w", err)
	}

	result := resp.Result().(*currenciesResponse)
	if result.Data == nil {
		return map[string]Currency{}, nil
	}
	return result.Data, nil
}

// Latest fetches the latest rates from base to each of targets.
// With no targets the API returns every currency it knows.
func (c *Client) Latest(ctx context.Context, base string, targets ...string) (map[string]float64, error) {
	req := c.client.R().
		SetResult(&latestResponse{}).
		SetQueryParam("base_currency", base)
	if len(targets) > 0 {
		req.SetQueryParam("currencies", strings.Join(targets, ","))
	}

	resp, err := c.doRequest(ctx, endpointLatest, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest rates for %s: %w", base, err)
	}

	result := resp.Result().(*latestResponse)
	if result.Data == nil {
		return map[string]float64{}, nil
	}
	return result.Data, nil
}

// Historical fetches the rates from base on date (YYYY-MM-DD).
// The result is keyed by date, then by currency code. It is nil when the
// response has no data field and empty when data is present but empty.
func (c *Client) Historical(ctx context.Context, date, base string, targets ...string) (map[string]map[string]float64, error) {
	req := c.client.R().
		SetResult(&historicalResponse{}).
		SetQueryParam("date", date).
		SetQueryParam("base_currency", base)
	if len(targets) > 0 {
		req.SetQueryParam("currencies", strings.Join(targets, ","))
	}

	resp, err := c.doRequest(ctx, endpointHistorical, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get historical rates for %s on %s: %w", base, date, err)
	}

	return resp.Result().(*historicalResponse).Data, nil
}

// Status fetches the API status document (quota usage etc.) as returned.
func (c *Client) Status(ctx context.Context) (map[string]interface{}, error) {
	var status map[string]interface{}
	req := c.client.R().SetResult(&status)

	if _, err := c.doRequest(ctx, endpointStatus, req); err != nil {
		return nil, fmt.Errorf("failed to get api status: %w", err)
	}
	return status, nil
}
