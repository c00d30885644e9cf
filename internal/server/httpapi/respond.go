package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/creatorpay/core/internal/provider"
)

// writeJSON writes any payload with the given status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeResult maps a provider Result onto HTTP: okStatus on success,
// failStatus otherwise. The envelope itself is passed through unchanged so
// clients see the same shape regardless of backend.
func writeResult(w http.ResponseWriter, res provider.Result, okStatus, failStatus int) {
	if res.Success {
		writeJSON(w, okStatus, res)
		return
	}
	writeJSON(w, failStatus, res)
}

// writeError writes a failed envelope with the given message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, provider.Result{Success: false, Error: msg})
}
