// Package handlers provides HTTP handlers for quotation operations.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/aristath/freightquote/internal/clients/shipsmart"
	"github.com/aristath/freightquote/internal/domain"
	"github.com/aristath/freightquote/internal/modules/quotation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Messages of the quotation error contract
const (
	MsgNotConfigured = "Configuração da API não encontrada"
	MsgInternalError = "Erro interno ao processar cotação"
	MsgInvalidForm   = "Dados da cotação inválidos"
	MsgInvalidBody   = "Corpo da requisição inválido"
)

const maxRequestBytes = 1 << 20

// Handler handles quotation HTTP requests
type Handler struct {
	service *quotation.Service
	log     zerolog.Logger
}

// NewHandler creates a new quotation handler
func NewHandler(service *quotation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "quotation").Logger(),
	}
}

// errorResponse is the error body shared by all quotation endpoints.
// Data is only present for upstream rejections, where it may be null.
type errorResponse struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data,omitempty"`
	Errors  []quotation.FieldError `json:"errors,omitempty"`
}

// HandleQuote handles POST /api/quotation.
// The body is forwarded to the provider as sent and its answer relayed verbatim.
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err == nil && !json.Valid(body) {
		err = errors.New("body is not valid JSON")
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read quotation request")
		h.writeError(w, http.StatusInternalServerError, MsgInternalError, nil)
		return
	}

	resp, err := h.service.QuoteRequest(r.Context(), body)
	if err != nil {
		h.writeProviderError(w, err)
		return
	}

	if len(resp.Raw) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(resp.Raw); err != nil {
			h.log.Error().Err(err).Msg("Failed to write quotation response")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleQuoteForm handles POST /api/quotation/form
func (h *Handler) HandleQuoteForm(w http.ResponseWriter, r *http.Request) {
	var form quotation.FormState
	if err := h.decode(r, &form); err != nil {
		h.writeError(w, http.StatusBadRequest, MsgInvalidBody, nil)
		return
	}

	result, err := h.service.QuoteForm(r.Context(), form)
	if err != nil {
		var verr *quotation.ValidationError
		if errors.As(err, &verr) {
			h.writeValidationError(w, verr)
			return
		}
		h.writeProviderError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleBuild handles POST /api/quotation/build
func (h *Handler) HandleBuild(w http.ResponseWriter, r *http.Request) {
	var form quotation.FormState
	if err := h.decode(r, &form); err != nil {
		h.writeError(w, http.StatusBadRequest, MsgInvalidBody, nil)
		return
	}

	req, err := quotation.BuildRequest(form)
	if err != nil {
		var verr *quotation.ValidationError
		if errors.As(err, &verr) {
			h.writeValidationError(w, verr)
			return
		}
		h.writeError(w, http.StatusInternalServerError, MsgInternalError, nil)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"request":       req,
		"items_visible": form.ItemsVisible(),
	})
}

// HandleRank handles POST /api/quotation/rank
func (h *Handler) HandleRank(w http.ResponseWriter, r *http.Request) {
	var resp domain.QuotationResponse
	if err := h.decode(r, &resp); err != nil {
		h.writeError(w, http.StatusBadRequest, MsgInvalidBody, nil)
		return
	}

	h.writeJSON(w, http.StatusOK, quotation.Rank(resp))
}

// HandleGetDefaults handles GET /api/quotation/defaults
func (h *Handler) HandleGetDefaults(w http.ResponseWriter, r *http.Request) {
	form := quotation.DefaultFormState()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"form":          form,
		"items_visible": form.ItemsVisible(),
	})
}

// HandleGetEnvelopes handles GET /api/quotation/envelopes
func (h *Handler) HandleGetEnvelopes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, quotation.Envelopes())
}

// HandleGetCountries handles GET /api/quotation/countries
func (h *Handler) HandleGetCountries(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, quotation.Countries())
}

// HandleGetDivisions handles GET /api/quotation/countries/{code}/divisions
func (h *Handler) HandleGetDivisions(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	divisions, ok := quotation.DivisionsByCountry(code)
	if !ok {
		h.writeError(w, http.StatusNotFound, "País sem divisões cadastradas", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, divisions)
}

// HandleCubedWeight handles GET /api/quotation/cubed-weight
func (h *Handler) HandleCubedWeight(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	measurement := domain.Measurement(q.Get("measurement"))
	if measurement == "" {
		measurement = domain.MeasurementMetric
	}
	if !measurement.Valid() {
		h.writeError(w, http.StatusBadRequest, "measurement must be metric or imperial", nil)
		return
	}

	dims := make([]float64, 0, 3)
	for _, name := range []string{"height", "width", "depth"} {
		v, err := strconv.ParseFloat(q.Get(name), 64)
		if err != nil || v <= 0 {
			h.writeError(w, http.StatusBadRequest, name+" must be a positive number", nil)
			return
		}
		dims = append(dims, v)
	}

	cubed := quotation.CubedWeight(dims[0], dims[1], dims[2], measurement)
	response := map[string]interface{}{
		"cubed_weight": cubed,
		"measurement":  measurement,
		"dimensions":   quotation.FormatDimensions(dims[0], dims[1], dims[2], measurement),
		"formatted":    quotation.FormatWeight(strconv.FormatFloat(cubed, 'f', -1, 64), measurement),
	}

	if raw := q.Get("weight"); raw != "" {
		weight, err := strconv.ParseFloat(raw, 64)
		if err != nil || weight < 0 {
			h.writeError(w, http.StatusBadRequest, "weight must be a non-negative number", nil)
			return
		}
		billable, kind := quotation.BillableWeight(weight, cubed)
		response["billable_weight"] = billable
		response["weight_type"] = kind
		response["weight_type_label"] = quotation.WeightTypeLabel(kind)
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetHistory handles GET /api/quotation/history
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "limit must be an integer", nil)
			return
		}
		limit = parsed
	}

	entries, err := h.service.History(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list quotation history")
		h.writeError(w, http.StatusInternalServerError, "Falha ao consultar histórico", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  entries,
		"count": len(entries),
	})
}

// HandleGetHistoryEntry handles GET /api/quotation/history/{id}
func (h *Handler) HandleGetHistoryEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.service.HistoryEntry(id)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to get quotation history entry")
		h.writeError(w, http.StatusInternalServerError, "Falha ao consultar histórico", nil)
		return
	}
	if entry == nil {
		h.writeError(w, http.StatusNotFound, "Cotação não encontrada", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) decode(r *http.Request, out interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBytes)).Decode(out)
}

// writeProviderError maps provider failures onto the quotation error contract
func (h *Handler) writeProviderError(w http.ResponseWriter, err error) {
	if errors.Is(err, shipsmart.ErrNotConfigured) {
		h.log.Error().Msg("ShipSmart credentials missing")
		h.writeError(w, http.StatusInternalServerError, MsgNotConfigured, nil)
		return
	}

	var provErr *shipsmart.ProviderError
	if errors.As(err, &provErr) {
		h.log.Warn().
			Int("status", provErr.StatusCode).
			Str("message", provErr.Message).
			Msg("Provider rejected quotation")
		data := provErr.Data
		if len(data) == 0 {
			data = json.RawMessage("null")
		}
		h.writeError(w, provErr.StatusCode, provErr.Message, data)
		return
	}

	h.log.Error().Err(err).Msg("Quotation failed")
	h.writeError(w, http.StatusInternalServerError, MsgInternalError, nil)
}

func (h *Handler) writeValidationError(w http.ResponseWriter, verr *quotation.ValidationError) {
	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	h.log.Debug().Str("fields", strings.Join(fields, ",")).Msg("Quotation form rejected")

	h.writeJSON(w, http.StatusBadRequest, errorResponse{
		Status:  domain.StatusError,
		Message: MsgInvalidForm,
		Errors:  verr.Errors,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string, data json.RawMessage) {
	h.writeJSON(w, status, errorResponse{
		Status:  domain.StatusError,
		Message: message,
		Data:    data,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
