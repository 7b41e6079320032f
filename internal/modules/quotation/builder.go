package quotation

import (
	"fmt"
	"math"
	"strings"

	"github.com/aristath/freightquote/internal/domain"
)

// Envelope box values
const (
	envelopeHeight = 1.0
	envelopeWeight = 0.1
	envelopePrice  = DefaultBoxPrice
	minBoxPrice    = 0.01
	maxHSCodeLen   = 10
)

// BuildRequest converts form state into a provider request.
// All field problems are reported together in a *ValidationError.
func BuildRequest(form FormState) (domain.QuotationRequest, error) {
	verr := &ValidationError{}

	if !form.Object.Valid() {
		verr.add("object", "unknown object %q", form.Object)
	}
	if !form.Type.Valid() {
		verr.add("type", "unknown quotation type %q", form.Type)
	}
	if !form.Tax.Valid() {
		verr.add("tax", "unknown tax payer %q", form.Tax)
	}
	if !form.Measurement.Valid() {
		verr.add("measurement", "unknown measurement %q", form.Measurement)
	}

	currencyQuote := normalizeCode(form.CurrencyQuote)
	if !isCurrencyCode(currencyQuote) {
		verr.add("currency_quote", "must be a 3-letter currency code")
	}
	currencyPayment := normalizeCode(form.CurrencyPayment)
	if !isCurrencyCode(currencyPayment) {
		verr.add("currency_payment", "must be a 3-letter currency code")
	}

	sender := normalizeAddress(form.Sender)
	if sender.CountryCode == "" {
		verr.add("address_sender.country_code", "is required")
	}
	receiver := normalizeAddress(form.Receiver)
	if receiver.CountryCode == "" {
		verr.add("address_receiver.country_code", "is required")
	}

	boxes := buildBoxes(form, verr)

	req := domain.QuotationRequest{
		Object:              form.Object,
		Type:                form.Type,
		Tax:                 form.Tax,
		Insurance:           form.Insurance,
		CurrencyQuote:       currencyQuote,
		CurrencyPayment:     currencyPayment,
		Measurement:         form.Measurement,
		ResidentialDelivery: form.ResidentialDelivery,
		NonStackable:        form.NonStackable,
		AddressSender:       sender,
		AddressReceiver:     receiver,
		Boxes:               boxes,
	}

	if includesItems(form.Type, form.Object) {
		req.Items = buildItems(form.Items, len(boxes), verr)
	}

	if err := verr.orNil(); err != nil {
		return domain.QuotationRequest{}, err
	}
	return req, nil
}

// includesItems reports whether items are sent for this quotation
func includesItems(t domain.QuoteType, o domain.Object) bool {
	return (t == domain.QuoteTypeAdvanced || t == domain.QuoteTypeItems) && o != domain.ObjectDocument
}

func buildBoxes(form FormState, verr *ValidationError) []domain.Box {
	if len(form.Boxes) == 0 {
		verr.add("boxes", "at least one box is required")
		return nil
	}

	boxes := make([]domain.Box, len(form.Boxes))
	copy(boxes, form.Boxes)

	if form.Object == domain.ObjectDocument {
		if env, ok := FindEnvelope(form.EnvelopeType); ok {
			if width, depth, ok := env.Size(); ok {
				boxes[0].Name = env.Label
				boxes[0].Height = envelopeHeight
				boxes[0].Width = width
				boxes[0].Depth = depth
				boxes[0].Weight = envelopeWeight
				boxes[0].Price = envelopePrice
			}
		}
	}

	for i := range boxes {
		b := &boxes[i]
		field := fmt.Sprintf("boxes[%d]", i)

		b.Name = strings.TrimSpace(b.Name)
		if b.Name == "" {
			b.Name = fmt.Sprintf("Caixa %d", i+1)
		}
		b.Price = normalizePrice(b.Price)

		if !positive(b.Height) {
			verr.add(field+".height", "must be greater than 0")
		}
		if !positive(b.Width) {
			verr.add(field+".width", "must be greater than 0")
		}
		if !positive(b.Depth) {
			verr.add(field+".depth", "must be greater than 0")
		}
		if !positive(b.Weight) {
			verr.add(field+".weight", "must be greater than 0")
		}
	}

	return boxes
}

func buildItems(items []domain.Item, boxCount int, verr *ValidationError) []domain.Item {
	if len(items) == 0 {
		verr.add("items", "at least one item is required")
		return nil
	}

	out := make([]domain.Item, len(items))
	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)

		it.Name = strings.TrimSpace(it.Name)
		it.HSCode = strings.TrimSpace(it.HSCode)
		it.CountryCode = normalizeCode(it.CountryCode)

		if it.Name == "" {
			verr.add(field+".name", "is required")
		}
		if it.Quantity < 1 {
			verr.add(field+".quantity", "must be at least 1")
		}
		if !positive(it.UnitValue) {
			verr.add(field+".unit_value", "must be greater than 0")
		}
		if !positive(it.Weight) {
			verr.add(field+".weight", "must be greater than 0")
		}
		if it.BoxID == nil {
			zero := 0
			it.BoxID = &zero
		} else {
			boxID := *it.BoxID
			if boxID < 0 || boxID >= boxCount {
				verr.add(field+".box_id", "must reference an existing box")
			}
			it.BoxID = &boxID
		}
		if len(it.HSCode) > maxHSCodeLen {
			verr.add(field+".hscode", "must have at most %d characters", maxHSCodeLen)
		}

		out[i] = it
	}
	return out
}

// normalizePrice applies the default box value to missing prices and a floor to the rest
func normalizePrice(p float64) float64 {
	if p == 0 || math.IsNaN(p) {
		return DefaultBoxPrice
	}
	return math.Max(minBoxPrice, p)
}

func positive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func normalizeAddress(a domain.Address) domain.Address {
	a.CountryCode = normalizeCode(a.CountryCode)
	a.StateCode = normalizeCode(a.StateCode)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.City = strings.TrimSpace(a.City)
	a.Street = strings.TrimSpace(a.Street)
	a.Number = strings.TrimSpace(a.Number)
	a.District = strings.TrimSpace(a.District)
	a.Complement = strings.TrimSpace(a.Complement)
	a.Description = strings.TrimSpace(a.Description)
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.TrimSpace(a.Email)
	a.Phone = strings.TrimSpace(a.Phone)
	a.PhoneExtension = strings.TrimSpace(a.PhoneExtension)
	a.Type = strings.ToLower(strings.TrimSpace(a.Type))
	a.FederalTaxID = strings.TrimSpace(a.FederalTaxID)
	a.StateTaxID = strings.TrimSpace(a.StateTaxID)
	return a
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
