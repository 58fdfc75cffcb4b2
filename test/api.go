package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func MakeJsonBody(t *testing.T, body any) io.Reader {
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// MakeAuthedRequest - Builds a request carrying the API key. A nil body sends no body at all.
func MakeAuthedRequest(t *testing.T, method string, target string, apiKey string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		reader = MakeJsonBody(t, body)
	}
	r := httptest.NewRequest(method, target, reader)
	r.Header.Set("Authorization", "Bearer "+apiKey)
	return r
}

func AssertApiError(t *testing.T, w *httptest.ResponseRecorder, errcode string, error string) {
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	jsonErr := make(map[string]any)
	err := json.Unmarshal(w.Body.Bytes(), &jsonErr)
	assert.NoError(t, err)
	assert.Equal(t, errcode, jsonErr["errcode"])
	assert.Equal(t, error, jsonErr["error"])
}

func AssertJsonBody(t *testing.T, w *httptest.ResponseRecorder, expected any) {
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	expectedJson, err := json.Marshal(expected)
	assert.NoError(t, err)
	assert.JSONEq(t, string(expectedJson), w.Body.String())
}
