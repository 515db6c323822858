package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysteria-backend-go/internal/services"
)

func TestWriteServiceErrorMapsStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteServiceError(w, services.ErrTooManyRequests("Please wait before voting again"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Please wait before voting again", body.Error)
}

func TestWriteServiceErrorHidesInternalCause(t *testing.T) {
	w := httptest.NewRecorder()
	WriteServiceError(w, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body.Error)
}

func TestWriteServiceErrorUnwrapsContext(t *testing.T) {
	wrapped := services.WrapError(services.ErrNotFound("Comment not found"), "approve comment")
	w := httptest.NewRecorder()
	WriteServiceError(w, wrapped)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, "Vote recorded")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Vote recorded", body.Message)
}
