package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/templui/filesmanager/internal/service"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{service.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{service.ErrNotFound, http.StatusNotFound, "Not found"},
		{fmt.Errorf("wrapped: %w", service.ErrParentNotFolder), http.StatusBadRequest, "Parent is not a folder"},
		{service.ErrInvalidData, http.StatusBadRequest, "Invalid data"},
		{service.ErrEmailAlreadyExists, http.StatusBadRequest, "Already exist"},
		{errors.New("connection reset by peer"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/files", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, `{"error":"`+tt.body+`"}`, rec.Body.String())
		})
	}
}

// letters yields an endless run of 'A'.
type letters struct{}

func (letters) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'A'
	}
	return len(p), nil
}

func TestDecodeJSONTooLarge(t *testing.T) {
	body := io.MultiReader(strings.NewReader(`{"data":"`), io.LimitReader(letters{}, maxBodyBytes+1))
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	rec := httptest.NewRecorder()

	var v map[string]string
	assert.False(t, decodeJSON(rec, req, &v))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
