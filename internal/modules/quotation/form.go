// Package quotation turns quotation form state into provider requests and
// ranks the carrier offers that come back.
package quotation

import (
	"fmt"

	"github.com/aristath/freightquote/internal/domain"
)

// Defaults for new boxes and items
const (
	DefaultBoxHeight    = 10.0
	DefaultBoxWidth     = 15.0
	DefaultBoxDepth     = 20.0
	DefaultBoxWeight    = 2.5
	DefaultBoxPrice     = 10.0
	DefaultItemValue    = 50.0
	DefaultItemWeight   = 1.0
	DefaultItemCountry  = "BR"
	DefaultEnvelopeType = "envelope_a4"
)

// FormState is the editable state of a quotation form
type FormState struct {
	Object              domain.Object      `json:"object"`
	Type                domain.QuoteType   `json:"type"`
	Tax                 domain.TaxPayer    `json:"tax"`
	Insurance           bool               `json:"insurance"`
	CurrencyQuote       string             `json:"currency_quote"`
	CurrencyPayment     string             `json:"currency_payment"`
	Measurement         domain.Measurement `json:"measurement"`
	ResidentialDelivery bool               `json:"residential_delivery"`
	NonStackable        bool               `json:"non_stackable"`
	Sender              domain.Address     `json:"address_sender"`
	Receiver            domain.Address     `json:"address_receiver"`
	Boxes               []domain.Box       `json:"boxes"`
	Items               []domain.Item      `json:"items"`
	EnvelopeType        string             `json:"envelope_type"`
}

// DefaultFormState returns the state a new form starts from
func DefaultFormState() FormState {
	box := newBox(1)
	item := newItem(1)
	item.Weight = DefaultBoxWeight

	return FormState{
		Object:          domain.ObjectDocument,
		Type:            domain.QuoteTypeSimple,
		Tax:             domain.TaxPayerSender,
		CurrencyQuote:   "USD",
		CurrencyPayment: "BRL",
		Measurement:     domain.MeasurementMetric,
		Sender:          domain.Address{CountryCode: "BR", StateCode: "CE"},
		Receiver:        domain.Address{CountryCode: "PT", StateCode: "11"},
		Boxes:           []domain.Box{box},
		Items:           []domain.Item{item},
		EnvelopeType:    DefaultEnvelopeType,
	}
}

func newBox(n int) domain.Box {
	return domain.Box{
		Name:   fmt.Sprintf("Caixa %d", n),
		Height: DefaultBoxHeight,
		Width:  DefaultBoxWidth,
		Depth:  DefaultBoxDepth,
		Weight: DefaultBoxWeight,
		Price:  DefaultBoxPrice,
	}
}

func newItem(n int) domain.Item {
	boxID := 0
	return domain.Item{
		BoxID:       &boxID,
		Name:        fmt.Sprintf("Item %d", n),
		CountryCode: DefaultItemCountry,
		Weight:      DefaultItemWeight,
		Quantity:    1,
		UnitValue:   DefaultItemValue,
	}
}

// AddBox appends a box with default dimensions
func (f *FormState) AddBox() {
	f.Boxes = append(f.Boxes, newBox(len(f.Boxes)+1))
}

// RemoveBox removes the box at index i. The last remaining box is never removed.
// Items in the removed box move to box 0 and items in later boxes shift down.
func (f *FormState) RemoveBox(i int) {
	if len(f.Boxes) <= 1 || i < 0 || i >= len(f.Boxes) {
		return
	}

	f.Boxes = append(f.Boxes[:i:i], f.Boxes[i+1:]...)

	for idx := range f.Items {
		boxID := f.Items[idx].BoxID
		if boxID == nil {
			continue
		}
		switch {
		case *boxID == i:
			zero := 0
			f.Items[idx].BoxID = &zero
		case *boxID > i:
			shifted := *boxID - 1
			f.Items[idx].BoxID = &shifted
		}
	}
}

// AddItem appends an item placed in box 0
func (f *FormState) AddItem() {
	f.Items = append(f.Items, newItem(len(f.Items)+1))
}

// RemoveItem removes the item at index i. The last remaining item is never removed.
func (f *FormState) RemoveItem(i int) {
	if len(f.Items) <= 1 || i < 0 || i >= len(f.Items) {
		return
	}
	f.Items = append(f.Items[:i:i], f.Items[i+1:]...)
}

// SetSenderCountry changes the sender country and clears its division
func (f *FormState) SetSenderCountry(code string) {
	f.Sender.CountryCode = code
	f.Sender.StateCode = ""
}

// SetReceiverCountry changes the receiver country and clears its division
func (f *FormState) SetReceiverCountry(code string) {
	f.Receiver.CountryCode = code
	f.Receiver.StateCode = ""
}

// ItemsVisible reports whether the form collects items
func (f *FormState) ItemsVisible() bool {
	return f.Type != domain.QuoteTypeSimple && f.Object != domain.ObjectDocument
}
