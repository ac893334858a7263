package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/notesvault/notesvault/internal/catalog"
)

// Every mutating response carries an explicit success flag and a
// human-readable message; the admin UI branches on them.

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, message string, extra map[string]interface{}) {
	body := map[string]interface{}{
		"success": true,
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// writeError maps the catalog error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var validation *catalog.ValidationError
	var storage *catalog.StorageError
	switch {
	case errors.As(err, &validation):
		writeFailure(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "Not found")
	case errors.Is(err, catalog.ErrDuplicateKey):
		writeFailure(w, http.StatusConflict, "Subject already exists")
	case errors.As(err, &storage):
		writeFailure(w, http.StatusInternalServerError, "Storage operation failed")
	default:
		writeFailure(w, http.StatusInternalServerError, "Internal server error")
	}
}
