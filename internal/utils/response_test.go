package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, WriteJSON(rec, http.StatusTeapot, ErrorResponse("brewing", "short and stout")))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "brewing", body.Message)
	assert.Equal(t, "short and stout", body.Error)
	assert.False(t, body.Timestamp.IsZero())
}

func TestSuccessResponse(t *testing.T) {
	resp := SuccessResponse("ok", map[string]string{"status": "UP"})
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Error)
	assert.Equal(t, map[string]string{"status": "UP"}, resp.Data)
}
