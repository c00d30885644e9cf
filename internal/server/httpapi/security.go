package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/creatorpay/core/internal/audit"
	"github.com/creatorpay/core/internal/provider"
	"github.com/gorilla/mux"
)

func (a *API) handleSecurityEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := audit.Filter{
		Type:     audit.EventType(q.Get("type")),
		Severity: audit.Severity(q.Get("severity")),
		Source:   q.Get("source"),
		Target:   q.Get("target"),
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC 3339")
			return
		}
		f.Since = since
	}
	if v := q.Get("limit"); v != "" {
		var limit int
		if err := json.Unmarshal([]byte(v), &limit); err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = limit
	}

	writeJSON(w, http.StatusOK, provider.Result{Success: true, Data: a.audit.Query(f)})
}

func (a *API) handleResolveEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !a.audit.Resolve(id) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, provider.Result{Success: true, Message: "event resolved"})
}

func (a *API) handleSecurityStats(w http.ResponseWriter, r *http.Request) {
	window := 24 * time.Hour
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "window must be a positive duration")
			return
		}
		window = d
	}
	writeJSON(w, http.StatusOK, provider.Result{Success: true, Data: a.audit.GetStats(window)})
}

// --- provider configuration ---

func (a *API) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, provider.Result{
		Success: true,
		Data:    map[string]string{"provider": a.providers.CurrentProvider()},
	})
}

type configureProviderRequest struct {
	Enabled         *bool   `json:"enabled"`
	Provider        *string `json:"provider"`
	SupabaseURL     *string `json:"supabase_url"`
	SupabaseAnonKey *string `json:"supabase_anon_key"`
	CustomBaseURL   *string `json:"custom_base_url"`
	CustomAPIKey    *string `json:"custom_api_key"`
	ShareURLBase    *string `json:"share_url_base"`
}

// handleConfigureProvider merges a partial provider configuration and
// rebuilds the active backend. Misconfiguration is not an HTTP error; the
// manager falls back to mock and records the fallback.
func (a *API) handleConfigureProvider(w http.ResponseWriter, r *http.Request) {
	var req configureProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	a.providers.Configure(r.Context(), provider.Overrides{
		Enabled:         req.Enabled,
		Provider:        req.Provider,
		SupabaseURL:     req.SupabaseURL,
		SupabaseAnonKey: req.SupabaseAnonKey,
		CustomBaseURL:   req.CustomBaseURL,
		CustomAPIKey:    req.CustomAPIKey,
		ShareURLBase:    req.ShareURLBase,
	})
	writeJSON(w, http.StatusOK, provider.Result{
		Success: true,
		Data:    map[string]string{"provider": a.providers.CurrentProvider()},
		Message: "provider configuration updated",
	})
}
