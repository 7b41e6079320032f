package quotation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aristath/freightquote/internal/domain"
	"github.com/rs/zerolog"
)

// History listing bounds
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 200
)

// FormResult is the outcome of quoting a form
type FormResult struct {
	Request   domain.QuotationRequest   `json:"request"`
	Quotation *domain.QuotationResponse `json:"quotation"`
	Ranking   Ranking                   `json:"ranking"`
	HistoryID string                    `json:"history_id,omitempty"`
}

// Service builds requests, forwards them to the provider and records the outcome
type Service struct {
	provider domain.QuoteProvider
	history  *HistoryRepository
	log      zerolog.Logger
}

// NewService creates a quotation service. history may be nil to disable recording.
func NewService(provider domain.QuoteProvider, history *HistoryRepository, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		history:  history,
		log:      log.With().Str("service", "quotation").Logger(),
	}
}

// QuoteForm builds the request from form state, quotes it and ranks the offers.
// Validation failures are returned as *ValidationError before anything is sent.
func (s *Service) QuoteForm(ctx context.Context, form FormState) (*FormResult, error) {
	req, err := BuildRequest(form)
	if err != nil {
		return nil, err
	}

	resp, err := s.provider.Quote(ctx, req)
	if err != nil {
		s.save(SourceForm, req, nil, nil, nil, err)
		return nil, err
	}

	ranking := Rank(*resp)

	s.log.Info().
		Str("status", resp.Status).
		Int("carriers", ranking.Summary.Count).
		Msg("Quotation completed")

	return &FormResult{
		Request:   req,
		Quotation: resp,
		Ranking:   ranking,
		HistoryID: s.save(SourceForm, req, nil, resp, &ranking, nil),
	}, nil
}

// QuoteRequest forwards body to the provider byte for byte.
// The body is only decoded to summarize the attempt in history.
func (s *Service) QuoteRequest(ctx context.Context, body json.RawMessage) (*domain.QuotationResponse, error) {
	var req domain.QuotationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.log.Debug().Err(err).Msg("Proxied body is not a quotation request")
	}

	resp, err := s.provider.QuoteRaw(ctx, body)
	if err != nil {
		s.save(SourceProxy, req, body, nil, nil, err)
		return nil, err
	}

	ranking := Rank(*resp)
	s.save(SourceProxy, req, body, resp, &ranking, nil)
	return resp, nil
}

// History returns the most recent quotations. Out of range limits use the default.
func (s *Service) History(limit int) ([]HistoryEntry, error) {
	if s.history == nil {
		return []HistoryEntry{}, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.history.ListRecent(limit)
}

// HistoryEntry returns one recorded quotation, or nil when unknown
func (s *Service) HistoryEntry(id string) (*HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Get(id)
}

// save records the attempt and returns its id. Failures are logged, never returned.
// body, when set, replaces the re-encoded request so history shows what was sent.
func (s *Service) save(source string, req domain.QuotationRequest, body json.RawMessage, resp *domain.QuotationResponse, ranking *Ranking, failure error) string {
	if s.history == nil {
		return ""
	}

	entry, err := NewHistoryEntry(source, req, resp, ranking)
	if err == nil {
		if len(body) > 0 {
			entry.Request = body
		}
		if failure != nil {
			entry.Message = failure.Error()
		}
		err = s.history.Save(entry)
	}
	if err != nil {
		s.log.Warn().Err(fmt.Errorf("record %s quotation: %w", source, err)).Msg("Failed to record quotation history")
		return ""
	}
	return entry.UUID
}
