package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Object is the nature of the shipped content
type Object string

const (
	ObjectDocument    Object = "doc"
	ObjectNotDocument Object = "not_doc"
)

// QuoteType selects how much detail the provider receives
type QuoteType string

const (
	QuoteTypeSimple   QuoteType = "simple"
	QuoteTypeAdvanced QuoteType = "advanced"
	QuoteTypeItems    QuoteType = "items"
)

// TaxPayer is the party paying duties
type TaxPayer string

const (
	TaxPayerSender   TaxPayer = "sender"
	TaxPayerReceiver TaxPayer = "receiver"
)

// Measurement is the unit system used for dimensions and weights
type Measurement string

const (
	MeasurementMetric   Measurement = "metric"
	MeasurementImperial Measurement = "imperial"
)

// WeightType tells whether a carrier charged the real or the cubed weight
type WeightType string

const (
	WeightTypeReal  WeightType = "real"
	WeightTypeCubed WeightType = "cubed"
)

// Response statuses returned by the provider
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Valid reports whether o is a known object kind
func (o Object) Valid() bool {
	return o == ObjectDocument || o == ObjectNotDocument
}

// Valid reports whether t is a known quote type
func (t QuoteType) Valid() bool {
	return t == QuoteTypeSimple || t == QuoteTypeAdvanced || t == QuoteTypeItems
}

// Valid reports whether p is a known tax payer
func (p TaxPayer) Valid() bool {
	return p == TaxPayerSender || p == TaxPayerReceiver
}

// Valid reports whether m is a known unit system
func (m Measurement) Valid() bool {
	return m == MeasurementMetric || m == MeasurementImperial
}

// QuotationRequest is the payload accepted by the provider's POST /quotation
type QuotationRequest struct {
	ChannelCode             *int        `json:"channel_code,omitempty"`
	ChannelIdentifierNumber string      `json:"channel_identifier_number,omitempty"`
	Object                  Object      `json:"object"`
	Type                    QuoteType   `json:"type"`
	Tax                     TaxPayer    `json:"tax"`
	Insurance               bool        `json:"insurance"`
	CurrencyQuote           string      `json:"currency_quote"`
	CurrencyPayment         string      `json:"currency_payment"`
	Measurement             Measurement `json:"measurement"`
	ResidentialDelivery     bool        `json:"residential_delivery"`
	NonStackable            bool        `json:"non_stackable"`
	AddressSender           Address     `json:"address_sender"`
	AddressReceiver         Address     `json:"address_receiver"`
	Boxes                   []Box       `json:"boxes"`
	Items                   []Item      `json:"items,omitempty"`
}

// Address is a sender or receiver address. Every field is optional.
type Address struct {
	AddressCode    *int   `json:"address_code,omitempty"`
	CountryCode    string `json:"country_code,omitempty"`
	StateCode      string `json:"state_code,omitempty"`
	State          string `json:"state,omitempty"`
	PostalCode     string `json:"postal_code,omitempty"`
	City           string `json:"city,omitempty"`
	Street         string `json:"street,omitempty"`
	Number         string `json:"number,omitempty"`
	District       string `json:"district,omitempty"`
	Complement     string `json:"complement,omitempty"`
	Description    string `json:"description,omitempty"`
	Name           string `json:"name,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	PhoneExtension string `json:"phone_extension,omitempty"`
	Type           string `json:"type,omitempty"` // pf (person) or pj (company)
	FederalTaxID   string `json:"federal_tax_id,omitempty"`
	StateTaxID     string `json:"state_tax_id,omitempty"`
	Foreign        *bool  `json:"foreign,omitempty"`
}

// Box is a package with its dimensions
type Box struct {
	BoxCode       *int    `json:"box_code,omitempty"`
	BoxIdentifier string  `json:"box_identifier,omitempty"`
	Name          string  `json:"name"`
	Height        float64 `json:"height"`
	Width         float64 `json:"width"`
	Depth         float64 `json:"depth"`
	Weight        float64 `json:"weight,omitempty"`
	Price         float64 `json:"price,omitempty"`
}

// Item is a declared good inside a box.
// BoxID is the zero-based index of the box holding the item.
type Item struct {
	BoxID       *int    `json:"box_id,omitempty"`
	SKU         string  `json:"sku,omitempty"`
	EAN         string  `json:"ean,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	HSCode      string  `json:"hscode,omitempty"`
	Weight      float64 `json:"weight"`
	Quantity    int     `json:"quantity"`
	UnitValue   float64 `json:"unit_value"`
}

// QuotationResponse is the provider's answer.
// Raw keeps the exact upstream body so it can be relayed untouched.
type QuotationResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    *QuotationData  `json:"data"`
	Raw     json.RawMessage `json:"-"`
}

// QuotationData carries the quotation header and its carrier offers
type QuotationData struct {
	Quotation               string    `json:"quotation"`
	Finished                bool      `json:"finished"`
	Date                    string    `json:"date"`
	Description             string    `json:"description,omitempty"`
	Channel                 string    `json:"channel,omitempty"`
	ChannelIdentifierNumber string    `json:"channel_identifier_number,omitempty"`
	Object                  string    `json:"object"`
	Type                    string    `json:"type"`
	Tax                     string    `json:"tax"`
	Insurance               bool      `json:"insurance"`
	CurrencyQuote           string    `json:"currency_quote"`
	CurrencyPayment         string    `json:"currency_payment"`
	Measurement             string    `json:"measurement,omitempty"`
	Carriers                []Carrier `json:"carriers"`
}

// WeightDetails tells which weight the carrier charged
type WeightDetails struct {
	Type   WeightType `json:"type"`
	Weight string     `json:"weight"`
}

// Carrier is one offer. Monetary fields are decimal strings.
type Carrier struct {
	Code                  int           `json:"code"`
	Name                  string        `json:"name"`
	URLImage              string        `json:"url_image"`
	ValidUntil            string        `json:"valid_until"`
	TransitDays           int           `json:"transit_days"`
	WeightDetails         WeightDetails `json:"weight_details"`
	Freight               string        `json:"freight"`
	FreightFinal          string        `json:"freight_final"`
	Insurance             string        `json:"insurance"`
	InsuranceFinal        string        `json:"insurance_final"`
	Tax                   string        `json:"tax"`
	TaxFinal              string        `json:"tax_final"`
	CurrencyQuotePrice    string        `json:"currency_quote_price"`
	CurrencyQuoteAmount   string        `json:"currency_quote_amount"`
	CurrencyPaymentAmount string        `json:"currency_payment_amount"`
}

// Carriers returns the carrier list, or nil when the response has no data
func (r *QuotationResponse) Carriers() []Carrier {
	if r == nil || r.Data == nil {
		return nil
	}
	return r.Data.Carriers
}

var validUntilLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseValidUntil parses a carrier's valid_until timestamp.
// Timestamps without a zone are read as UTC.
func ParseValidUntil(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range validUntilLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
