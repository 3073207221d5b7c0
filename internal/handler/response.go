package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/filesmanager/internal/service"
	"github.com/templui/filesmanager/internal/validation"
)

// maxBodyBytes bounds JSON request bodies, base64 content included.
const maxBodyBytes = 64 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON body into v, answering the client itself when it can't.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "Invalid JSON")
	return false
}

type errorMapping struct {
	err     error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{service.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{service.ErrMissingName, http.StatusBadRequest, "Missing name"},
	{service.ErrMissingType, http.StatusBadRequest, "Missing type"},
	{service.ErrMissingData, http.StatusBadRequest, "Missing data"},
	{service.ErrInvalidData, http.StatusBadRequest, "Invalid data"},
	{service.ErrParentNotFound, http.StatusBadRequest, "Parent not found"},
	{service.ErrParentNotFolder, http.StatusBadRequest, "Parent is not a folder"},
	{service.ErrNotAFile, http.StatusBadRequest, "A folder doesn't have content"},
	{service.ErrNotFound, http.StatusNotFound, "Not found"},
	{service.ErrMissingEmail, http.StatusBadRequest, "Missing email"},
	{service.ErrMissingPassword, http.StatusBadRequest, "Missing password"},
	{service.ErrEmailAlreadyExists, http.StatusBadRequest, "Already exist"},
	{validation.ErrEmailTooLong, http.StatusBadRequest, "Email too long"},
	{validation.ErrPasswordTooLong, http.StatusBadRequest, "Password too long"},
}

// writeServiceError answers with the client-facing message for a service error.
// Anything unknown is logged and hidden behind a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.message)
			return
		}
	}

	slog.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
