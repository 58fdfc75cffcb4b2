package api

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vantaai/trustserv/metrics"
	"github.com/vantaai/trustserv/queue"
	"github.com/vantaai/trustserv/storage"
)

type Config struct {
	// Optional. If empty, the analysis API will be disabled.
	ApiKey string
}

// Analyzer - Runs and persists analyses. Implemented by queue.Pool.
type Analyzer interface {
	Analyze(ctx context.Context, submission *queue.Submission) (*queue.Analysis, error)
}

// ScorerManager - Owns the active scorer. Implemented by trust.Manager.
type ScorerManager interface {
	RequestReload(ctx context.Context, requestedBy string) error
	Ready() bool
}

type Api struct {
	storage  storage.PersistentStorage
	analyzer Analyzer
	scorers  ScorerManager
	apiKey   string
}

func NewApi(config *Config, storage storage.PersistentStorage, analyzer Analyzer, scorers ScorerManager) (*Api, error) {
	return &Api{
		storage:  storage,
		analyzer: analyzer,
		scorers:  scorers,
		apiKey:   config.ApiKey,
	}, nil
}

func (a *Api) httpRequestHandler(upstream func(api *Api, w http.ResponseWriter, r *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstream(a, w, r)
	})
}

func (a *Api) httpAuthenticatedRequestHandler(upstream func(api *Api, w http.ResponseWriter, r *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expected := []byte("Bearer " + a.apiKey)
		if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), expected) != 1 {
			defer metrics.RecordHttpResponse(r.Method, "httpAuthenticatedRequestHandler", http.StatusUnauthorized)
			writeHttpError(w, http.StatusUnauthorized, ErrcodeUnauthorized, "Not allowed")
			return
		}

		upstream(a, w, r)
	})
}

func (a *Api) BindTo(mux *http.ServeMux) error {
	mux.Handle("/", a.httpRequestHandler(httpCatchAll))
	mux.Handle("/health", a.httpRequestHandler(httpHealth))
	mux.Handle("/ready", a.httpRequestHandler(httpReady))

	if a.apiKey != "" {
		logrus.Info("Enabling trustserv API")
		mux.Handle("/api/v1/analyze", a.httpAuthenticatedRequestHandler(httpAnalyzeApi))
		mux.Handle("/api/v1/analyze/batch", a.httpAuthenticatedRequestHandler(httpAnalyzeBatchApi))
		mux.Handle("/api/v1/analyses/{id}", a.httpAuthenticatedRequestHandler(httpGetAnalysisApi))
		mux.Handle("/api/v1/patterns/reload", a.httpAuthenticatedRequestHandler(httpReloadPatternsApi))
	}

	return nil
}
