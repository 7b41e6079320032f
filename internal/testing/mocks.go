package testing

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aristath/freightquote/internal/domain"
)

// MockQuoteProvider is a mock implementation of domain.QuoteProvider for testing
type MockQuoteProvider struct {
	mu       sync.RWMutex
	response *domain.QuotationResponse
	err      error
	requests []domain.QuotationRequest
	bodies   [][]byte
}

// NewMockQuoteProvider creates a new mock provider answering with resp
func NewMockQuoteProvider(resp *domain.QuotationResponse) *MockQuoteProvider {
	return &MockQuoteProvider{response: resp}
}

// SetResponse sets the response to return
func (m *MockQuoteProvider) SetResponse(resp *domain.QuotationResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = resp
}

// SetError sets the error to return
func (m *MockQuoteProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Quote records the request and returns the configured response or error
func (m *MockQuoteProvider) Quote(ctx context.Context, req domain.QuotationRequest) (*domain.QuotationResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

// QuoteRaw records the body, decoding it into Requests when it is a request object
func (m *MockQuoteProvider) QuoteRaw(ctx context.Context, body []byte) (*domain.QuotationResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, append([]byte(nil), body...))
	var req domain.QuotationRequest
	if err := json.Unmarshal(body, &req); err == nil {
		m.requests = append(m.requests, req)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

// Bodies returns every raw body received by QuoteRaw
func (m *MockQuoteProvider) Bodies() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.bodies))
	for _, b := range m.bodies {
		out = append(out, string(b))
	}
	return out
}

// Requests returns every request received so far
func (m *MockQuoteProvider) Requests() []domain.QuotationRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.QuotationRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// MockCredentialUpdater records credential updates
type MockCredentialUpdater struct {
	mu     sync.Mutex
	APIKey string
	APIURL string
	Calls  int
}

// SetCredentials records the new credentials
func (m *MockCredentialUpdater) SetCredentials(apiKey, apiURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.APIKey = apiKey
	m.APIURL = apiURL
	m.Calls++
}
