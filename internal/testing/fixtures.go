package testing

import (
	"encoding/json"

	"github.com/aristath/freightquote/internal/domain"
)

// SampleQuotationJSON is a provider answer with three carriers.
// Sea Cargo is the cheapest, Express Air the fastest.
const SampleQuotationJSON = `{
	"status": "success",
	"message": "Cotação realizada com sucesso",
	"data": {
		"quotation": "QT-000123",
		"finished": true,
		"date": "2026-10-17 10:00:00",
		"object": "not_doc",
		"type": "simple",
		"tax": "sender",
		"insurance": true,
		"currency_quote": "USD",
		"currency_payment": "BRL",
		"measurement": "metric",
		"carriers": [
			{
				"code": 10, "name": "Express Air", "url_image": "https://img.example/express.png",
				"valid_until": "2026-10-20T18:00:00Z", "transit_days": 3,
				"weight_details": {"type": "cubed", "weight": "3.75"},
				"freight": "80.00", "freight_final": "85.00",
				"insurance": "5.00", "insurance_final": "5.50",
				"tax": "0", "tax_final": "0",
				"currency_quote_price": "5.40", "currency_quote_amount": "90.50",
				"currency_payment_amount": "488.70"
			},
			{
				"code": 20, "name": "Sea Cargo", "url_image": "https://img.example/sea.png",
				"valid_until": "2026-10-20T18:00:00Z", "transit_days": 25,
				"weight_details": {"type": "real", "weight": "2.5"},
				"freight": "30.00", "freight_final": "32.00",
				"insurance": "0", "insurance_final": "0",
				"tax": "0", "tax_final": "0",
				"currency_quote_price": "5.40", "currency_quote_amount": "32.00",
				"currency_payment_amount": "172.80"
			},
			{
				"code": 30, "name": "Standard Post", "url_image": "https://img.example/post.png",
				"valid_until": "2026-10-20T18:00:00Z", "transit_days": 10,
				"weight_details": {"type": "real", "weight": "2.5"},
				"freight": "50.00", "freight_final": "52.00",
				"insurance": "2.00", "insurance_final": "2.10",
				"tax": "0", "tax_final": "0",
				"currency_quote_price": "5.40", "currency_quote_amount": "54.10",
				"currency_payment_amount": "292.14"
			}
		]
	}
}`

// SampleQuotationResponse decodes SampleQuotationJSON, keeping the raw body
func SampleQuotationResponse() *domain.QuotationResponse {
	var resp domain.QuotationResponse
	if err := json.Unmarshal([]byte(SampleQuotationJSON), &resp); err != nil {
		panic(err)
	}
	resp.Raw = json.RawMessage(SampleQuotationJSON)
	return &resp
}
