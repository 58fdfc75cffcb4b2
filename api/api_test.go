package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vantaai/trustserv/ai"
	"github.com/vantaai/trustserv/queue"
	"github.com/vantaai/trustserv/test"
	"github.com/vantaai/trustserv/trust"
)

const testApiKey = "do_not_use_in_production_otherwise_sadness_will_be_created"

type testApi struct {
	*Api
	db      *test.MemoryStorage
	manager *trust.Manager
}

// makeApi - Creates an API backed by memory storage and a classifier which flags anything containing
// test.KeywordToxic with test.ToxicScore.
func makeApi(t *testing.T) *testApi {
	db := test.NewMemoryStorage(t)
	assert.NotNil(t, db)

	pubsub := test.NewMemoryPubsub(t)
	assert.NotNil(t, pubsub)
	t.Cleanup(func() {
		_ = pubsub.Close()
	})

	classifier := ai.ClassifierFunc(func(ctx context.Context, text string) (*ai.Verdict, error) {
		if text == test.KeywordIntentionalFail {
			return nil, test.SimulatedError
		}
		if text == test.KeywordToxic {
			return &ai.Verdict{Toxic: true, Score: test.ToxicScore}, nil
		}
		return &ai.Verdict{Toxic: false, Score: 0}, nil
	})
	manager, err := trust.NewManager(context.Background(), "", classifier, trust.Config{}, pubsub)
	require.NoError(t, err)

	pool, err := queue.NewPool(&queue.PoolConfig{
		ConcurrentPools: 5,
		SizePerPool:     10,
	}, manager, db, test.MustMakeAuditQueue(1, ""))
	require.NoError(t, err)
	require.NotNil(t, pool)

	api, err := NewApi(&Config{
		ApiKey: testApiKey,
	}, db, pool, manager)
	assert.NoError(t, err)
	assert.NotNil(t, api)

	return &testApi{
		Api:     api,
		db:      db,
		manager: manager,
	}
}

func TestAuthenticatedApiNoAuth(t *testing.T) {
	t.Parallel()

	api := makeApi(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/example", nil)
	//r.Header.Set("Authorization", "Bearer WRONG_TOKEN") // we don't want auth on this test, so don't set it
	upstream := func(a *Api, w http.ResponseWriter, r *http.Request) {
		assert.Fail(t, "should not be called")
	}
	handler := api.httpAuthenticatedRequestHandler(upstream)
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	test.AssertApiError(t, w, ErrcodeUnauthorized, "Not allowed")
}

func TestAuthenticatedApiWrongAuth(t *testing.T) {
	t.Parallel()

	api := makeApi(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/example", nil)
	r.Header.Set("Authorization", "Bearer WRONG_TOKEN")
	upstream := func(a *Api, w http.ResponseWriter, r *http.Request) {
		assert.Fail(t, "should not be called")
	}
	handler := api.httpAuthenticatedRequestHandler(upstream)
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	test.AssertApiError(t, w, ErrcodeUnauthorized, "Not allowed")
}

func TestAuthenticatedApi(t *testing.T) {
	t.Parallel()

	api := makeApi(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/example", nil)
	r.Header.Set("Authorization", "Bearer "+api.apiKey)
	called := false
	upstream := func(a *Api, w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}
	handler := api.httpAuthenticatedRequestHandler(upstream)
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestBindTo(t *testing.T) {
	t.Parallel()

	api := makeApi(t)
	mux := http.NewServeMux()
	assert.NoError(t, api.BindTo(mux))

	for path, expectedCode := range map[string]int{
		"/":                    http.StatusOK,
		"/health":              http.StatusOK,
		"/ready":               http.StatusOK,
		"/nope":                http.StatusNotFound,
		"/api/v1/analyze":      http.StatusUnauthorized, // no auth header
		"/api/v1/analyses/abc": http.StatusUnauthorized,
	} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, path, nil)
		mux.ServeHTTP(w, r)
		assert.Equal(t, expectedCode, w.Code, path)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/nope", nil)
	mux.ServeHTTP(w, r)
	test.AssertApiError(t, w, ErrcodeUnrecognized, "not implemented")
}

func TestBindToWithoutApiKey(t *testing.T) {
	t.Parallel()

	api := makeApi(t)
	api.apiKey = ""
	mux := http.NewServeMux()
	assert.NoError(t, api.BindTo(mux))

	// The analysis API shouldn't exist at all, so falls through to the catch-all
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil)
	mux.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadyWaitsForClassifier(t *testing.T) {
	t.Parallel()

	lazy := ai.NewLazyClassifier(func(ctx context.Context) (ai.ToxicityClassifier, error) {
		return ai.ClassifierFunc(func(ctx context.Context, text string) (*ai.Verdict, error) {
			return &ai.Verdict{Toxic: false, Score: 0}, nil
		}), nil
	})
	manager, err := trust.NewManager(context.Background(), "", lazy, trust.Config{}, nil)
	require.NoError(t, err)
	api, err := NewApi(&Config{}, test.NewMemoryStorage(t), nil, manager)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	httpReady(api, w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	test.AssertApiError(t, w, ErrcodeNotReady, "Classifier is still loading")

	// Liveness doesn't care
	w = httptest.NewRecorder()
	httpHealth(api, w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, lazy.Warm(context.Background()))
	w = httptest.NewRecorder()
	httpReady(api, w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}
