package server

import (
	"encoding/json"
	"net/http"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// readJSON decodes a request body of at most maxBodyBytes into v.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// writeError sends {"error": msg}. Validation failures also carry msg as
// "message", which is what mobile clients display.
func writeError(w http.ResponseWriter, status int, msg string) {
	body := ErrorResponse{Error: msg}
	if status == http.StatusBadRequest || status == http.StatusUnprocessableEntity || status == http.StatusConflict {
		body.Message = msg
	}
	writeJSON(w, status, body)
}
