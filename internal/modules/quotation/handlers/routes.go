package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all quotation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/quotation", func(r chi.Router) {
		// Provider proxy
		r.Post("/", h.HandleQuote)

		// Form workflow
		r.Post("/form", h.HandleQuoteForm)
		r.Post("/build", h.HandleBuild)
		r.Post("/rank", h.HandleRank)

		// Reference data
		r.Get("/defaults", h.HandleGetDefaults)
		r.Get("/envelopes", h.HandleGetEnvelopes)
		r.Get("/countries", h.HandleGetCountries)
		r.Get("/countries/{code}/divisions", h.HandleGetDivisions)
		r.Get("/cubed-weight", h.HandleCubedWeight)

		// History
		r.Get("/history", h.HandleGetHistory)
		r.Get("/history/{id}", h.HandleGetHistoryEntry)
	})
}
