// Package shipsmart provides a client for the ShipSmart freight quotation API.
// ShipSmart answers a shipment description with one offer per carrier; all
// tariff logic lives on their side.
package shipsmart

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/aristath/freightquote/internal/clientdata"
	"github.com/aristath/freightquote/internal/domain"
	"github.com/aristath/freightquote/internal/utils"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 10 << 20
	slowRequest    = 10 * time.Second

	// DefaultErrorMessage is used when the provider rejects a quotation without a message
	DefaultErrorMessage = "Erro ao realizar cotação"
)

// ErrNotConfigured is returned when the API key or base URL is missing
var ErrNotConfigured = errors.New("shipsmart API credentials not configured")

// ProviderError is returned for non-2xx upstream answers.
// Data is the upstream "data" member, nil when absent.
type ProviderError struct {
	StatusCode int
	Message    string
	Data       json.RawMessage
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("shipsmart API error: status %d: %s", e.StatusCode, e.Message)
}

// Config holds client settings
type Config struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client is the ShipSmart API client.
type Client struct {
	mu         sync.RWMutex
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cacheRepo  *clientdata.Repository
	cacheTTL   time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

// NewClient creates a new ShipSmart client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cfg Config, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = clientdata.DefaultQuotationTTL
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		cacheRepo:  cacheRepo,
		cacheTTL:   ttl,
		log:        log.With().Str("client", "shipsmart").Logger(),
		now:        time.Now,
	}
}

// SetCredentials replaces the API key and base URL used for new requests
func (c *Client) SetCredentials(apiKey, apiURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = apiKey
	c.baseURL = apiURL
}

// Configured reports whether both the API key and base URL are set
func (c *Client) Configured() bool {
	apiKey, baseURL := c.credentials()
	return apiKey != "" && baseURL != ""
}

func (c *Client) credentials() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey, c.baseURL
}

// Quote marshals the request and posts it with QuoteRaw.
func (c *Client) Quote(ctx context.Context, req domain.QuotationRequest) (*domain.QuotationResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.QuoteRaw(ctx, body)
}

// QuoteRaw posts body unchanged to {baseURL}/quotation.
// Fresh cached answers for identical bytes are returned without a call.
// When the provider is unreachable or fails with 5xx, a stale cached answer is
// used if some of its offers are still valid.
func (c *Client) QuoteRaw(ctx context.Context, body []byte) (*domain.QuotationResponse, error) {
	apiKey, baseURL := c.credentials()
	if apiKey == "" || baseURL == "" {
		return nil, ErrNotConfigured
	}

	cacheKey := requestHash(baseURL, body)

	if cached, ok := c.getFromCache(cacheKey); ok {
		c.log.Debug().Str("key", cacheKey).Msg("Quotation cache hit")
		return cached, nil
	}

	resp, err := c.doRequest(ctx, apiKey, baseURL, body)
	if err != nil {
		var provErr *ProviderError
		retryable := !errors.As(err, &provErr) || provErr.StatusCode >= http.StatusInternalServerError
		if retryable && ctx.Err() == nil {
			if stale, ok := c.getStaleFromCache(cacheKey); ok {
				c.log.Warn().
					Err(err).
					Int("carriers", len(stale.Carriers())).
					Msg("Provider failed, using stale cached quotation")
				return stale, nil
			}
		}
		return nil, err
	}

	if resp.Status == domain.StatusSuccess && len(resp.Carriers()) > 0 {
		c.setCache(cacheKey, resp)
	}

	return resp, nil
}

// doRequest performs the HTTP request to the ShipSmart API.
func (c *Client) doRequest(ctx context.Context, apiKey, baseURL string, body []byte) (*domain.QuotationResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/quotation", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.log.Debug().RawJSON("payload", body).Str("url", httpReq.URL.String()).Msg("Sending quotation to ShipSmart")

	timer := utils.NewTimer("shipsmart_quotation", slowRequest, c.log)
	httpResp, err := c.httpClient.Do(httpReq)
	timer.Stop()
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	ok := httpResp.StatusCode >= 200 && httpResp.StatusCode < 300

	c.log.Debug().
		Int("status", httpResp.StatusCode).
		Bool("ok", ok).
		Int("bytes", len(respBody)).
		Msg("ShipSmart response received")

	if !ok {
		return nil, newProviderError(httpResp.StatusCode, respBody)
	}

	var resp domain.QuotationResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	resp.Raw = json.RawMessage(respBody)

	return &resp, nil
}

func newProviderError(status int, body []byte) *ProviderError {
	provErr := &ProviderError{StatusCode: status, Message: DefaultErrorMessage}

	var envelope struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return provErr
	}

	if envelope.Message != "" {
		provErr.Message = envelope.Message
	}
	if len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		provErr.Data = envelope.Data
	}
	return provErr
}

// requestHash identifies a payload sent to a given endpoint
func requestHash(baseURL string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(baseURL))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// getFromCache retrieves a cached answer if it exists and hasn't expired.
// Offers past their valid_until are dropped; nothing left counts as a miss.
func (c *Client) getFromCache(key string) (*domain.QuotationResponse, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	var cached domain.QuotationResponse
	found, err := c.cacheRepo.GetIfFresh(clientdata.TableShipSmartQuotation, key, &cached)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to get quotation from cache")
		return nil, false
	}
	if !found {
		return nil, false
	}

	return c.withValidOffers(&cached)
}

// getStaleFromCache retrieves an expired answer, keeping only offers whose
// valid_until is still ahead.
func (c *Client) getStaleFromCache(key string) (*domain.QuotationResponse, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	var cached domain.QuotationResponse
	found, err := c.cacheRepo.Get(clientdata.TableShipSmartQuotation, key, &cached)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to get stale quotation from cache")
		return nil, false
	}
	if !found {
		return nil, false
	}

	return c.withValidOffers(&cached)
}

// withValidOffers drops offers whose valid_until has passed.
// Offers with an unreadable valid_until are kept.
func (c *Client) withValidOffers(cached *domain.QuotationResponse) (*domain.QuotationResponse, bool) {
	if cached.Data == nil {
		return nil, false
	}

	now := c.now()
	valid := make([]domain.Carrier, 0, len(cached.Data.Carriers))
	for _, carrier := range cached.Data.Carriers {
		if until, ok := domain.ParseValidUntil(carrier.ValidUntil); ok && !until.After(now) {
			continue
		}
		valid = append(valid, carrier)
	}
	if len(valid) == 0 {
		return nil, false
	}

	if len(valid) != len(cached.Data.Carriers) {
		cached.Data.Carriers = valid
		// The relayed body must match the filtered offers
		cached.Raw = nil
	}

	return cached, true
}

// setCache stores the answer in the persistent cache.
func (c *Client) setCache(key string, resp *domain.QuotationResponse) {
	if c.cacheRepo == nil {
		return
	}

	if err := c.cacheRepo.Store(clientdata.TableShipSmartQuotation, key, resp, c.cacheTTL); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to cache quotation")
	}
}
