package api

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes v as the response body with the given status.
// A nil v writes only the status line.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
