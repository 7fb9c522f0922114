package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// writeJSON writes v with the given status. Encoding failures are logged;
// headers are already out by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

// writeError writes the `{"error": ...}` shape.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServerError logs the error and returns a 500 with its message.
func writeServerError(w http.ResponseWriter, err error) {
	zap.L().Error("handler failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

// decodeBody parses a JSON request body into v. An empty body is allowed and
// leaves v zero-valued.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
