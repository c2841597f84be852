package contact

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

type response struct {
	OK     bool              `json:"ok"`
	Error  string            `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Handler serves POST requests carrying a JSON Message. A nil sender answers
// 503 so the page can tell the form is disabled.
func Handler(sender Sender) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, response{Error: "method not allowed"})
			return
		}
		if sender == nil {
			writeJSON(w, http.StatusServiceUnavailable, response{Error: ErrNotConfigured.Error()})
			return
		}

		var m Message
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
		if err := dec.Decode(&m); err != nil {
			writeJSON(w, http.StatusBadRequest, response{Error: "invalid JSON body"})
			return
		}

		var verr *ValidationError
		if err := Validate(m); errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, response{Error: "validation failed", Fields: verr.Fields})
			return
		}

		if err := sender.Send(r.Context(), m); err != nil {
			slog.Error("Contact delivery failed", "error", err)
			writeJSON(w, http.StatusBadGateway, response{Error: "no pudimos enviar tu mensaje, probá más tarde"})
			return
		}
		writeJSON(w, http.StatusOK, response{OK: true})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}
