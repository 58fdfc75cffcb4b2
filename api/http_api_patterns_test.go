package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vantaai/trustserv/test"
	"github.com/vantaai/trustserv/trust"
)

func TestReloadPatternsWrongMethod(t *testing.T) {
	t.Parallel()

	api := makeApi(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet /*this should be POST*/, "/api/v1/patterns/reload", nil)
	httpReloadPatternsApi(api.Api, w, r)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	test.AssertApiError(t, w, ErrcodeUnrecognized, "Method not allowed")
}

func TestReloadPatterns(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(file, []byte("nsfw_keywords: [\"spicy\"]\n"), 0600))

	pubsub := test.NewMemoryPubsub(t)
	t.Cleanup(func() {
		_ = pubsub.Close()
	})
	manager, err := trust.NewManager(context.Background(), file, nil, trust.Config{}, pubsub)
	require.NoError(t, err)
	api, err := NewApi(&Config{ApiKey: testApiKey}, test.NewMemoryStorage(t), nil, manager)
	require.NoError(t, err)

	assert.Equal(t, 88, manager.Analyze(context.Background(), "spicy").Score)
	assert.Equal(t, 100, manager.Analyze(context.Background(), "peppery").Score)

	require.NoError(t, os.WriteFile(file, []byte("nsfw_keywords: [\"peppery\"]\n"), 0600))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/patterns/reload", nil)
	httpReloadPatternsApi(api, w, r)
	require.Equal(t, http.StatusOK, w.Code)

	res := &reloadPatternsResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), res))
	assert.NotEmpty(t, res.RequestId)

	// The reload happens asynchronously via pubsub
	assert.Eventually(t, func() bool {
		return manager.Analyze(context.Background(), "peppery").Score == 88
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 100, manager.Analyze(context.Background(), "spicy").Score)
}
