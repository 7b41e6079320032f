package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/freightquote/internal/clients/shipsmart"
	"github.com/aristath/freightquote/internal/domain"
	"github.com/aristath/freightquote/internal/modules/quotation"
	testingpkg "github.com/aristath/freightquote/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, provider *testingpkg.MockQuoteProvider) http.Handler {
	db, cleanup := testingpkg.NewTestDB(t, "history")
	t.Cleanup(cleanup)

	logger := zerolog.Nop()
	history := quotation.NewHistoryRepository(db.Conn(), logger)
	handler := NewHandler(quotation.NewService(provider, history, logger), logger)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})
	return router
}

func doRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		encoded, _ := json.Marshal(b)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func parcelForm() quotation.FormState {
	form := quotation.DefaultFormState()
	form.Object = domain.ObjectNotDocument
	return form
}

func TestHandleQuote_RelaysProviderBody(t *testing.T) {
	provider := testingpkg.NewMockQuoteProvider(testingpkg.SampleQuotationResponse())
	router := setupRouter(t, provider)

	req, err := quotation.BuildRequest(parcelForm())
	require.NoError(t, err)

	w := doRequest(router, http.MethodPost, "/api/quotation", req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, testingpkg.SampleQuotationJSON, w.Body.String())
	require.Len(t, provider.Requests(), 1)
	assert.Equal(t, "Caixa 1", provider.Requests()[0].Boxes[0].Name)
}

func TestHandleQuote_ForwardsBodyUnchanged(t *testing.T) {
	provider := testingpkg.NewMockQuoteProvider(testingpkg.SampleQuotationResponse())
	router := setupRouter(t, provider)

	body := `{"object":"not_doc","type":"simple","coupon":"X1","boxes":[{"name":"b","height":1,"width":1,"depth":1,"weight":0,"price":0}]}`
	w := doRequest(router, http.MethodPost, "/api/quotation", body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{body}, provider.Bodies())
}

func TestHandleQuote_ErrorContract(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		hasData     bool
		wantData    interface{}
	}{
		{
			name:        "missing credentials",
			err:         shipsmart.ErrNotConfigured,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MsgNotConfigured,
		},
		{
			name: "upstream rejection",
			err: &shipsmart.ProviderError{
				StatusCode: http.StatusUnprocessableEntity,
				Message:    "CEP inválido",
				Data:       json.RawMessage(`{"field":"postal_code"}`),
			},
			wantStatus:  http.StatusUnprocessableEntity,
			wantMessage: "CEP inválido",
			hasData:     true,
			wantData:    map[string]interface{}{"field": "postal_code"},
		},
		{
			name:        "upstream rejection without data",
			err:         &shipsmart.ProviderError{StatusCode: http.StatusBadRequest, Message: shipsmart.DefaultErrorMessage},
			wantStatus:  http.StatusBadRequest,
			wantMessage: shipsmart.DefaultErrorMessage,
			hasData:     true,
		},
		{
			name:        "transport failure",
			err:         errors.New("dial tcp: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MsgInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := testingpkg.NewMockQuoteProvider(nil)
			provider.SetError(tt.err)
			router := setupRouter(t, provider)

			w := doRequest(router, http.MethodPost, "/api/quotation", map[string]interface{}{"object": "doc"})

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.wantMessage, body["message"])
			data, ok := body["data"]
			assert.Equal(t, tt.hasData, ok)
			assert.Equal(t, tt.wantData, data)
		})
	}
}

func TestHandleQuote_InvalidBody(t *testing.T) {
	router := setupRouter(t, testingpkg.NewMockQuoteProvider(nil))

	w := doRequest(router, http.MethodPost, "/api/quotation", "{not json")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, MsgInternalError, body["message"])
	assert.NotContains(t, body, "data")
}

func TestHandleQuoteForm(t *testing.T) {
	provider := testingpkg.NewMockQuoteProvider(testingpkg.SampleQuotationResponse())
	router := setupRouter(t, provider)

	w := doRequest(router, http.MethodPost, "/api/quotation/form", parcelForm())
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Ranking   quotation.Ranking         `json:"ranking"`
		Request   domain.QuotationRequest   `json:"request"`
		Quotation *domain.QuotationResponse `json:"quotation"`
		HistoryID string                    `json:"history_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "Sea Cargo", result.Ranking.Cheapest.Name)
	assert.Equal(t, "Express Air", result.Ranking.Fastest.Name)
	assert.Equal(t, "QT-000123", result.Quotation.Data.Quotation)
	require.NotEmpty(t, result.HistoryID)

	w = doRequest(router, http.MethodGet, "/api/quotation/history/"+result.HistoryID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "form", decodeBody(t, w)["source"])

	w = doRequest(router, http.MethodGet, "/api/quotation/history?limit=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])
}

func TestHandleQuoteForm_ValidationError(t *testing.T) {
	provider := testingpkg.NewMockQuoteProvider(testingpkg.SampleQuotationResponse())
	router := setupRouter(t, provider)

	form := parcelForm()
	form.Boxes[0].Height = 0

	w := doRequest(router, http.MethodPost, "/api/quotation/form", form)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, MsgInvalidForm, body["message"])
	errs, ok := body["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "boxes[0].height", errs[0].(map[string]interface{})["field"])
	assert.Empty(t, provider.Requests())
}

func TestHandleBuild(t *testing.T) {
	router := setupRouter(t, testingpkg.NewMockQuoteProvider(nil))

	w := doRequest(router, http.MethodPost, "/api/quotation/build", quotation.DefaultFormState())
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["items_visible"])
	request := body["request"].(map[string]interface{})
	boxes := request["boxes"].([]interface{})
	assert.Equal(t, "Envelope A4", boxes[0].(map[string]interface{})["name"])
	_, hasItems := request["items"]
	assert.False(t, hasItems)
}

func TestHandleRank(t *testing.T) {
	router := setupRouter(t, testingpkg.NewMockQuoteProvider(nil))

	w := doRequest(router, http.MethodPost, "/api/quotation/rank", testingpkg.SampleQuotationJSON)
	require.Equal(t, http.StatusOK, w.Code)

	var ranking quotation.Ranking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ranking))
	assert.False(t, ranking.Empty)
	assert.Equal(t, "Sea Cargo", ranking.Cheapest.Name)
	assert.Equal(t, []quotation.Badge{quotation.BadgeFastest}, ranking.Offers[2].Badges)
}

func TestReferenceData(t *testing.T) {
	router := setupRouter(t, testingpkg.NewMockQuoteProvider(nil))

	w := doRequest(router, http.MethodGet, "/api/quotation/defaults", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	form := decodeBody(t, w)["form"].(map[string]interface{})
	assert.Equal(t, "doc", form["object"])

	w = doRequest(router, http.MethodGet, "/api/quotation/envelopes", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "envelope_a4")

	w = doRequest(router, http.MethodGet, "/api/quotation/countries", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"PT"`)

	w = doRequest(router, http.MethodGet, "/api/quotation/countries/pt/divisions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Distrito", decodeBody(t, w)["label"])

	w = doRequest(router, http.MethodGet, "/api/quotation/countries/ZZ/divisions", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleCubedWeight(t *testing.T) {
	router := setupRouter(t, testingpkg.NewMockQuoteProvider(nil))

	w := doRequest(router, http.MethodGet, "/api/quotation/cubed-weight?height=10&width=15&depth=20&weight=0.2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.InDelta(t, 0.5, body["cubed_weight"], 1e-9)
	assert.Equal(t, "0.50 kg", body["formatted"])
	assert.Equal(t, "10 × 15 × 20 cm", body["dimensions"])
	assert.Equal(t, "cubed", body["weight_type"])
	assert.Equal(t, "Cubado", body["weight_type_label"])

	w = doRequest(router, http.MethodGet, "/api/quotation/cubed-weight?height=10&width=0&depth=20", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/quotation/cubed-weight?height=1&width=1&depth=1&measurement=nautical", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetHistoryEntry_NotFound(t *testing.T) {
	router := setupRouter(t, testingpkg.NewMockQuoteProvider(nil))

	w := doRequest(router, http.MethodGet, "/api/quotation/history/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/api/quotation/history?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
