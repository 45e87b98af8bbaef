package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/erazemk/oprema/internal/store"
)

// SettingsHandler handles the persisted sheet URLs.
type SettingsHandler struct {
	DB *sql.DB
}

// List handles GET /api/settings.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := store.ListSettings(r.Context(), h.DB)
	if err != nil {
		writeError(w, "list settings", err)
		return
	}
	jsonResponse(w, http.StatusOK, settings)
}

// Update handles PUT /api/settings. Only known keys are accepted; an empty
// value clears the setting.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	for key, value := range req {
		if !store.IsSettingKey(key) {
			jsonError(w, http.StatusBadRequest, "unknown setting: "+key)
			return
		}
		value = strings.TrimSpace(value)
		if value != "" {
			u, err := url.Parse(value)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				jsonError(w, http.StatusBadRequest, key+" must be an http(s) url")
				return
			}
		}
		req[key] = value
	}

	for key, value := range req {
		if err := store.SetSetting(r.Context(), h.DB, key, value); err != nil {
			writeError(w, "update settings", err)
			return
		}
	}

	slog.Info("settings updated", "user", GetPrincipal(r.Context()).Email, "keys", len(req))
	h.List(w, r)
}
