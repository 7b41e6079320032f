package quotation

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/freightquote/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sources of a recorded quotation
const (
	SourceForm  = "form"
	SourceProxy = "proxy"
)

// HistoryEntry is one recorded quotation attempt
type HistoryEntry struct {
	UUID            string          `json:"uuid"`
	CreatedAt       time.Time       `json:"created_at"`
	Source          string          `json:"source"`
	Status          string          `json:"status"`
	Message         string          `json:"message"`
	Object          string          `json:"object"`
	QuoteType       string          `json:"type"`
	CurrencyPayment string          `json:"currency_payment"`
	CarrierCount    int             `json:"carrier_count"`
	CheapestName    *string         `json:"cheapest_name"`
	CheapestAmount  *string         `json:"cheapest_amount"`
	FastestName     *string         `json:"fastest_name"`
	FastestDays     *int            `json:"fastest_days"`
	Request         json.RawMessage `json:"request"`
	Response        json.RawMessage `json:"response,omitempty"`
}

// NewHistoryEntry summarizes a request and its outcome.
// resp may be nil when the provider failed.
func NewHistoryEntry(source string, req domain.QuotationRequest, resp *domain.QuotationResponse, ranking *Ranking) (*HistoryEntry, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	entry := &HistoryEntry{
		Source:          source,
		Status:          domain.StatusError,
		Object:          string(req.Object),
		QuoteType:       string(req.Type),
		CurrencyPayment: req.CurrencyPayment,
		Request:         reqJSON,
	}

	if resp == nil {
		return entry, nil
	}

	entry.Status = resp.Status
	entry.Message = resp.Message
	entry.CarrierCount = len(resp.Carriers())

	if len(resp.Raw) > 0 {
		entry.Response = resp.Raw
	} else if respJSON, err := json.Marshal(resp); err == nil {
		entry.Response = respJSON
	}

	if ranking != nil {
		if ranking.Cheapest != nil {
			name, amount := ranking.Cheapest.Name, ranking.Cheapest.CurrencyPaymentAmount
			entry.CheapestName = &name
			entry.CheapestAmount = &amount
		}
		if ranking.Fastest != nil {
			name, days := ranking.Fastest.Name, ranking.Fastest.TransitDays
			entry.FastestName = &name
			entry.FastestDays = &days
		}
	}

	return entry, nil
}

// HistoryRepository stores quotation attempts in history.db
type HistoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

const historyColumns = `uuid, created_at, source, status, message, object, quote_type, currency_payment,
carrier_count, cheapest_name, cheapest_amount, fastest_name, fastest_days, request_json, response_json`

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:  db,
		log: log.With().Str("repo", "quotation_history").Logger(),
		now: time.Now,
	}
}

// Save inserts the entry, assigning its UUID and creation time when unset
func (r *HistoryRepository) Save(entry *HistoryEntry) error {
	if entry.UUID == "" {
		entry.UUID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}

	var response interface{}
	if len(entry.Response) > 0 {
		response = string(entry.Response)
	}

	_, err := r.db.Exec(`
		INSERT INTO quotations (`+historyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.UUID,
		entry.CreatedAt.Unix(),
		entry.Source,
		entry.Status,
		entry.Message,
		entry.Object,
		entry.QuoteType,
		entry.CurrencyPayment,
		entry.CarrierCount,
		entry.CheapestName,
		entry.CheapestAmount,
		entry.FastestName,
		entry.FastestDays,
		string(entry.Request),
		response,
	)
	if err != nil {
		return fmt.Errorf("failed to save quotation history: %w", err)
	}

	r.log.Debug().
		Str("uuid", entry.UUID).
		Str("status", entry.Status).
		Int("carriers", entry.CarrierCount).
		Msg("Quotation recorded")

	return nil
}

// Get returns the entry with the given UUID, or nil when it doesn't exist
func (r *HistoryRepository) Get(id string) (*HistoryEntry, error) {
	row := r.db.QueryRow("SELECT "+historyColumns+" FROM quotations WHERE uuid = ?", id)

	entry, err := scanHistoryEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quotation %s: %w", id, err)
	}
	return entry, nil
}

// ListRecent returns up to limit entries, newest first
func (r *HistoryRepository) ListRecent(limit int) ([]HistoryEntry, error) {
	rows, err := r.db.Query(
		"SELECT "+historyColumns+" FROM quotations ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotation history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quotation history: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quotation history: %w", err)
	}

	return entries, nil
}

// DeleteOlderThan removes entries created before cutoff and returns how many were removed
func (r *HistoryRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM quotations WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old quotations: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHistoryEntry(row rowScanner) (*HistoryEntry, error) {
	var (
		entry          HistoryEntry
		createdAt      int64
		cheapestName   sql.NullString
		cheapestAmount sql.NullString
		fastestName    sql.NullString
		fastestDays    sql.NullInt64
		request        string
		response       sql.NullString
	)

	err := row.Scan(
		&entry.UUID,
		&createdAt,
		&entry.Source,
		&entry.Status,
		&entry.Message,
		&entry.Object,
		&entry.QuoteType,
		&entry.CurrencyPayment,
		&entry.CarrierCount,
		&cheapestName,
		&cheapestAmount,
		&fastestName,
		&fastestDays,
		&request,
		&response,
	)
	if err != nil {
		return nil, err
	}

	entry.CreatedAt = time.Unix(createdAt, 0).UTC()
	entry.Request = json.RawMessage(request)
	if response.Valid {
		entry.Response = json.RawMessage(response.String)
	}
	if cheapestName.Valid {
		entry.CheapestName = &cheapestName.String
	}
	if cheapestAmount.Valid {
		entry.CheapestAmount = &cheapestAmount.String
	}
	if fastestName.Valid {
		entry.FastestName = &fastestName.String
	}
	if fastestDays.Valid {
		days := int(fastestDays.Int64)
		entry.FastestDays = &days
	}

	return &entry, nil
}
