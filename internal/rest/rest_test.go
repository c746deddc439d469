package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	// given
	rec := httptest.NewRecorder()

	// when
	WriteError(rec, http.StatusBadRequest, "Invalid amount", "amount must be positive")

	// then
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Invalid amount", body.Error)
	assert.Equal(t, "amount must be positive", body.Details)
}

func TestWriteJSON(t *testing.T) {
	// given
	rec := httptest.NewRecorder()

	// when
	WriteJSON(rec, http.StatusCreated, map[string]int{"id": 7})

	// then
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":7}`, rec.Body.String())
}
