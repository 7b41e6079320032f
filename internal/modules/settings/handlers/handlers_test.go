package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/freightquote/internal/config"
	"github.com/aristath/freightquote/internal/modules/settings"
	testingpkg "github.com/aristath/freightquote/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router  http.Handler
	repo    *settings.Repository
	cfg     *config.Config
	updater *testingpkg.MockCredentialUpdater
}

func setup(t *testing.T) testEnv {
	t.Setenv("QUOTE_DATA_DIR", t.TempDir())
	t.Setenv("SHIPSMART_API_KEY", "env-secret-key")
	t.Setenv("SHIPSMART_API_URL", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	db, cleanup := testingpkg.NewTestDB(t, "config")
	t.Cleanup(cleanup)

	repo := settings.NewRepository(db.Conn(), zerolog.Nop())
	updater := &testingpkg.MockCredentialUpdater{}
	handler := NewHandler(repo, cfg, updater, zerolog.Nop())

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})

	return testEnv{router: router, repo: repo, cfg: cfg, updater: updater}
}

func put(router http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/api/settings/"+key, bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getAll(t *testing.T, router http.Handler) map[string]SettingView {
	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Settings []SettingView `json:"settings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	views := map[string]SettingView{}
	for _, v := range body.Settings {
		views[v.Key] = v
	}
	return views
}

func TestHandleGetAll_MasksSecrets(t *testing.T) {
	env := setup(t)

	views := getAll(t, env.router)

	key := views[settings.KeyShipSmartAPIKey]
	assert.Equal(t, "****-key", key.Value)
	assert.Equal(t, "environment", key.Source)

	apiURL := views[settings.KeyShipSmartAPIURL]
	assert.Equal(t, "", apiURL.Value)
	assert.Equal(t, "unset", apiURL.Source)
}

func TestHandleUpdate_RefreshesCredentials(t *testing.T) {
	env := setup(t)

	w := put(env.router, settings.KeyShipSmartAPIURL, `{"value":"https://api.shipsmart.test/"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["configured"])

	assert.Equal(t, 1, env.updater.Calls)
	assert.Equal(t, "env-secret-key", env.updater.APIKey)
	assert.Equal(t, "https://api.shipsmart.test", env.updater.APIURL)

	stored, err := env.repo.Get(settings.KeyShipSmartAPIURL)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "https://api.shipsmart.test", *stored)

	views := getAll(t, env.router)
	assert.Equal(t, "database", views[settings.KeyShipSmartAPIURL].Source)
}

func TestHandleUpdate_Rejections(t *testing.T) {
	env := setup(t)

	assert.Equal(t, http.StatusBadRequest, put(env.router, "display_mode", `{"value":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, put(env.router, settings.KeyShipSmartAPIKey, `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, put(env.router, settings.KeyShipSmartAPIURL, `{"value":"ftp://x"}`).Code)
	assert.Equal(t, 0, env.updater.Calls)
}
