// Package handlers provides HTTP handlers for settings management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/aristath/freightquote/internal/config"
	"github.com/aristath/freightquote/internal/domain"
	"github.com/aristath/freightquote/internal/modules/settings"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for settings endpoints
type Handler struct {
	mu      sync.Mutex
	repo    *settings.Repository
	cfg     *config.Config
	updater domain.CredentialUpdater
	log     zerolog.Logger
}

// SettingUpdate is the body of PUT /api/settings/{key}
type SettingUpdate struct {
	Value string `json:"value"`
}

// SettingView is one listed setting
type SettingView struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// NewHandler creates a new settings handler.
// updater receives the effective credentials after every change and may be nil.
func NewHandler(repo *settings.Repository, cfg *config.Config, updater domain.CredentialUpdater, log zerolog.Logger) *Handler {
	return &Handler{
		repo:    repo,
		cfg:     cfg,
		updater: updater,
		log:     log.With().Str("handler", "settings").Logger(),
	}
}

// RegisterRoutes registers all settings routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.HandleGetAll)
		r.Put("/{key}", h.HandleUpdate)
	})
}

// HandleGetAll handles GET /api/settings
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	stored, err := h.repo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get all settings")
		http.Error(w, "Failed to get settings", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	effective := map[string]string{
		settings.KeyShipSmartAPIKey: h.cfg.ShipSmartAPIKey,
		settings.KeyShipSmartAPIURL: h.cfg.ShipSmartAPIURL,
	}
	h.mu.Unlock()

	keys := make([]string, 0, len(settings.AllowedKeys))
	for key := range settings.AllowedKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	views := make([]SettingView, 0, len(keys))
	for _, key := range keys {
		view := SettingView{
			Key:         key,
			Value:       effective[key],
			Description: settings.AllowedKeys[key],
			Source:      "unset",
		}
		if v, ok := stored[key]; ok && v != "" {
			view.Source = "database"
		} else if view.Value != "" {
			view.Source = "environment"
		}
		if settings.SecretKeys[key] {
			view.Value = settings.Mask(view.Value)
		}
		views = append(views, view)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"settings":   views,
		"configured": h.configured(),
	})
}

// HandleUpdate handles PUT /api/settings/{key}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if _, ok := settings.AllowedKeys[key]; !ok {
		http.Error(w, "Unknown setting key", http.StatusBadRequest)
		return
	}

	var update SettingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	value := strings.TrimSpace(update.Value)
	if key == settings.KeyShipSmartAPIURL && value != "" {
		value = strings.TrimRight(value, "/")
		if u, err := url.Parse(value); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			http.Error(w, "Invalid URL", http.StatusBadRequest)
			return
		}
	}

	if err := h.repo.Set(key, value); err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to update setting")
		status := http.StatusInternalServerError
		if errors.Is(err, settings.ErrUnknownKey) {
			status = http.StatusBadRequest
		}
		http.Error(w, "Failed to update setting", status)
		return
	}

	h.mu.Lock()
	if err := h.cfg.UpdateFromSettings(h.repo); err != nil {
		h.mu.Unlock()
		h.log.Error().Err(err).Msg("Failed to reload settings")
		http.Error(w, "Failed to reload settings", http.StatusInternalServerError)
		return
	}
	apiKey, apiURL := h.cfg.ShipSmartAPIKey, h.cfg.ShipSmartAPIURL
	h.mu.Unlock()

	if h.updater != nil {
		h.updater.SetCredentials(apiKey, apiURL)
		h.log.Info().Str("key", key).Msg("Provider credentials refreshed after settings update")
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":        key,
		"updated":    true,
		"configured": apiKey != "" && apiURL != "",
	})
}

func (h *Handler) configured() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg.HasProviderCredentials()
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
