// Package domain holds the provider contract types and the interfaces that
// decouple the quotation module from concrete clients.
package domain

import "context"

// QuoteProvider requests carrier offers from the remote quotation service.
// Implementations return *shipsmart.ProviderError for non-2xx upstream answers.
type QuoteProvider interface {
	Quote(ctx context.Context, req QuotationRequest) (*QuotationResponse, error)
	// QuoteRaw posts body exactly as received
	QuoteRaw(ctx context.Context, body []byte) (*QuotationResponse, error)
}

// CredentialUpdater accepts new provider credentials at runtime
type CredentialUpdater interface {
	SetCredentials(apiKey, apiURL string)
}
