package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aristath/freightquote/internal/config"
	"github.com/aristath/freightquote/internal/di"
	testingpkg "github.com/aristath/freightquote/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider records the bearer tokens and bodies it receives and answers with the sample quotation
type fakeProvider struct {
	mu     sync.Mutex
	tokens []string
	bodies []string
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	p.mu.Lock()
	p.tokens = append(p.tokens, r.Header.Get("Authorization"))
	p.bodies = append(p.bodies, string(body))
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(testingpkg.SampleQuotationJSON))
}

func (p *fakeProvider) Tokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.tokens...)
}

func (p *fakeProvider) Bodies() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.bodies...)
}

func newTestServer(t *testing.T, providerURL string) *Server {
	t.Helper()
	t.Setenv("QUOTE_DATA_DIR", t.TempDir())
	t.Setenv("SHIPSMART_API_KEY", "env-key")
	t.Setenv("SHIPSMART_API_URL", providerURL)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	container, _, err := di.Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	s := New(Config{
		Log:       zerolog.Nop(),
		Config:    cfg,
		Port:      0,
		DevMode:   true,
		Container: container,
	})
	s.systemHandlers.systemStats = func() (float64, float64) { return 12.5, 40 }
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "https://provider.invalid")

	w := doRequest(s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "freightquote", body["service"])
}

func TestCORSAllowedOrigins(t *testing.T) {
	s := newTestServer(t, "https://provider.invalid")

	req := httptest.NewRequest(http.MethodOptions, "/api/quotation/envelopes", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/quotation/envelopes", nil)
	req.Header.Set("Origin", "https://other.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestReferenceRoutes(t *testing.T) {
	s := newTestServer(t, "https://provider.invalid")

	for _, path := range []string{
		"/api/quotation/defaults",
		"/api/quotation/envelopes",
		"/api/quotation/countries",
		"/api/quotation/countries/br/divisions",
		"/api/settings",
	} {
		t.Run(path, func(t *testing.T) {
			w := doRequest(s, http.MethodGet, path, "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestQuoteProxyAndHistory(t *testing.T) {
	provider := &fakeProvider{}
	upstream := httptest.NewServer(provider)
	defer upstream.Close()

	s := newTestServer(t, upstream.URL)

	payload := `{"object":"not_doc","type":"simple","tax":"sender","currency_quote":"USD","currency_payment":"BRL","measurement":"metric","coupon":"X1","boxes":[{"name":"b","height":1,"width":1,"depth":1,"weight":0,"price":0}]}`
	w := doRequest(s, http.MethodPost, "/api/quotation", payload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, testingpkg.SampleQuotationJSON, w.Body.String())
	assert.Equal(t, []string{"Bearer env-key"}, provider.Tokens())
	assert.Equal(t, []string{payload}, provider.Bodies())

	w = doRequest(s, http.MethodGet, "/api/quotation/history", "")
	require.Equal(t, http.StatusOK, w.Code)

	var history struct {
		Count int `json:"count"`
		Data  []struct {
			Source       string  `json:"source"`
			Status       string  `json:"status"`
			CarrierCount int     `json:"carrier_count"`
			CheapestName *string `json:"cheapest_name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Equal(t, 1, history.Count)
	assert.Equal(t, "proxy", history.Data[0].Source)
	assert.Equal(t, "success", history.Data[0].Status)
	assert.Equal(t, 3, history.Data[0].CarrierCount)
	require.NotNil(t, history.Data[0].CheapestName)
	assert.Equal(t, "Sea Cargo", *history.Data[0].CheapestName)
}

func TestSettingsUpdateReachesProvider(t *testing.T) {
	provider := &fakeProvider{}
	upstream := httptest.NewServer(provider)
	defer upstream.Close()

	s := newTestServer(t, upstream.URL)

	w := doRequest(s, http.MethodPut, "/api/settings/shipsmart_api_key", `{"value":"rotated-key"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodPost, "/api/quotation", `{"object":"doc","type":"simple","currency_quote":"EUR"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Bearer rotated-key"}, provider.Tokens())
}

func TestQuoteWithoutCredentials(t *testing.T) {
	s := newTestServer(t, "")

	w := doRequest(s, http.MethodPost, "/api/quotation", `{"object":"doc","type":"simple"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Configuração da API não encontrada", body["message"])
	assert.NotContains(t, body, "data")
}

func TestSystemRoutes(t *testing.T) {
	s := newTestServer(t, "https://provider.invalid")
	assert.Equal(t, ":0", s.server.Addr)

	w := doRequest(s, http.MethodGet, "/api/system/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status SystemStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.True(t, status.ProviderConfigured)
	assert.Equal(t, 3, status.ScheduledJobs)
	assert.Equal(t, 12.5, status.CPUPercent)
	require.Len(t, status.Databases, 3)

	w = doRequest(s, http.MethodGet, "/api/system/database/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunJob(t *testing.T) {
	s := newTestServer(t, "https://provider.invalid")

	w := doRequest(s, http.MethodPost, "/api/system/jobs/client_data_cleanup", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "client_data_cleanup", body["job"])

	w = doRequest(s, http.MethodPost, "/api/system/jobs/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
