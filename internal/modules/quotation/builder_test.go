package quotation

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/aristath/freightquote/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parcelForm() FormState {
	form := DefaultFormState()
	form.Object = domain.ObjectNotDocument
	return form
}

func fieldNames(err error) []string {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	names := make([]string, len(verr.Errors))
	for i, fe := range verr.Errors {
		names[i] = fe.Field
	}
	return names
}

func TestBuildRequest_Defaults(t *testing.T) {
	req, err := BuildRequest(parcelForm())
	require.NoError(t, err)

	assert.Equal(t, domain.ObjectNotDocument, req.Object)
	assert.Equal(t, "USD", req.CurrencyQuote)
	assert.Equal(t, "BRL", req.CurrencyPayment)
	assert.Equal(t, "BR", req.AddressSender.CountryCode)
	assert.Equal(t, "PT", req.AddressReceiver.CountryCode)
	require.Len(t, req.Boxes, 1)
	assert.Equal(t, "Caixa 1", req.Boxes[0].Name)
	assert.Nil(t, req.Items)
}

func TestBuildRequest_DocumentUsesEnvelope(t *testing.T) {
	form := DefaultFormState()
	form.AddBox()

	req, err := BuildRequest(form)
	require.NoError(t, err)

	require.Len(t, req.Boxes, 2)
	env := req.Boxes[0]
	assert.Equal(t, "Envelope A4", env.Name)
	assert.Equal(t, 1.0, env.Height)
	assert.Equal(t, 22.0, env.Width)
	assert.Equal(t, 31.0, env.Depth)
	assert.Equal(t, 0.1, env.Weight)
	assert.Equal(t, 10.0, env.Price)
	assert.Equal(t, "Caixa 2", req.Boxes[1].Name)

	// Form state is not modified
	assert.Equal(t, "Caixa 1", form.Boxes[0].Name)
}

func TestBuildRequest_UnknownEnvelopeKeepsBox(t *testing.T) {
	form := DefaultFormState()
	form.EnvelopeType = "envelope_custom"

	req, err := BuildRequest(form)
	require.NoError(t, err)
	assert.Equal(t, "Caixa 1", req.Boxes[0].Name)
	assert.Equal(t, 10.0, req.Boxes[0].Height)
}

func TestBuildRequest_NonDocumentIgnoresEnvelope(t *testing.T) {
	req, err := BuildRequest(parcelForm())
	require.NoError(t, err)
	assert.Equal(t, 20.0, req.Boxes[0].Depth)
}

func TestBuildRequest_PriceNormalization(t *testing.T) {
	tests := []struct {
		price float64
		want  float64
	}{
		{0, 10},
		{math.NaN(), 10},
		{-5, 0.01},
		{0.001, 0.01},
		{42.5, 42.5},
	}

	for _, tt := range tests {
		form := parcelForm()
		form.Boxes[0].Price = tt.price
		req, err := BuildRequest(form)
		require.NoError(t, err)
		assert.Equal(t, tt.want, req.Boxes[0].Price, "price %v", tt.price)
	}
}

func TestBuildRequest_ItemsInclusion(t *testing.T) {
	tests := []struct {
		object    domain.Object
		typ       domain.QuoteType
		wantItems bool
	}{
		{domain.ObjectNotDocument, domain.QuoteTypeSimple, false},
		{domain.ObjectNotDocument, domain.QuoteTypeAdvanced, true},
		{domain.ObjectNotDocument, domain.QuoteTypeItems, true},
		{domain.ObjectDocument, domain.QuoteTypeAdvanced, false},
		{domain.ObjectDocument, domain.QuoteTypeItems, false},
	}

	for _, tt := range tests {
		form := DefaultFormState()
		form.Object = tt.object
		form.Type = tt.typ

		req, err := BuildRequest(form)
		require.NoError(t, err)

		body, err := json.Marshal(req)
		require.NoError(t, err)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &decoded))

		_, has := decoded["items"]
		assert.Equal(t, tt.wantItems, has, "%s/%s", tt.object, tt.typ)
	}
}

func TestBuildRequest_ItemValidation(t *testing.T) {
	form := parcelForm()
	form.Type = domain.QuoteTypeItems
	form.AddItem()
	bad := 3
	form.Items[0].Quantity = 0
	form.Items[0].UnitValue = 0
	form.Items[1].Weight = -1
	form.Items[1].BoxID = &bad
	form.Items[1].HSCode = "12345678901"

	_, err := BuildRequest(form)
	require.Error(t, err)

	assert.ElementsMatch(t, []string{
		"items[0].quantity",
		"items[0].unit_value",
		"items[1].weight",
		"items[1].box_id",
		"items[1].hscode",
	}, fieldNames(err))
}

func TestBuildRequest_ItemDefaultsBoxID(t *testing.T) {
	form := parcelForm()
	form.Type = domain.QuoteTypeAdvanced
	form.Items[0].BoxID = nil

	req, err := BuildRequest(form)
	require.NoError(t, err)
	require.Len(t, req.Items, 1)
	require.NotNil(t, req.Items[0].BoxID)
	assert.Equal(t, 0, *req.Items[0].BoxID)
}

func TestBuildRequest_AggregatesErrors(t *testing.T) {
	form := FormState{
		Object:          "parcel",
		Type:            "express",
		Tax:             "nobody",
		Measurement:     "nautical",
		CurrencyQuote:   "US",
		CurrencyPayment: "",
	}

	_, err := BuildRequest(form)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{
		"object",
		"type",
		"tax",
		"measurement",
		"currency_quote",
		"currency_payment",
		"address_sender.country_code",
		"address_receiver.country_code",
		"boxes",
	}, fieldNames(err))
	assert.Contains(t, err.Error(), "invalid quotation form")
}

func TestBuildRequest_BoxDimensions(t *testing.T) {
	form := parcelForm()
	form.Boxes[0].Height = 0
	form.Boxes[0].Weight = -2

	_, err := BuildRequest(form)
	assert.ElementsMatch(t, []string{"boxes[0].height", "boxes[0].weight"}, fieldNames(err))
}

func TestBuildRequest_NormalizesAddresses(t *testing.T) {
	form := parcelForm()
	form.Sender = domain.Address{CountryCode: " br ", StateCode: "ce", City: "  Fortaleza "}
	form.CurrencyQuote = "usd"

	req, err := BuildRequest(form)
	require.NoError(t, err)
	assert.Equal(t, "BR", req.AddressSender.CountryCode)
	assert.Equal(t, "CE", req.AddressSender.StateCode)
	assert.Equal(t, "Fortaleza", req.AddressSender.City)
	assert.Equal(t, "USD", req.CurrencyQuote)
}
