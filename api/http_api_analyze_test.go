package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vantaai/trustserv/storage"
	"github.com/vantaai/trustserv/test"
	"github.com/vantaai/trustserv/trust"
)

func TestAnalyzeWrongMethod(t *testing.T) {
	t.Parallel()

	api := makeApi(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet /*this should be POST*/, "/api/v1/analyze", nil)
	httpAnalyzeApi(api.Api, w, r)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	test.AssertApiError(t, w, ErrcodeUnrecognized, "Method not allowed")
}

func TestAnalyzeBadRequests(t *testing.T) {
	t.Parallel()

	api := makeApi(t)

	cases := []struct {
		body    string
		errcode string
		error   string
	}{
		{`not json`, ErrcodeBadJson, "Unable to parse request body"},
		{`{}`, ErrcodeInvalidParam, "content is required"},
		{`{"content": "hi", "source": "carrier_pigeon"}`, ErrcodeInvalidParam, "unknown source 'carrier_pigeon'"},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(c.body))
		httpAnalyzeApi(api.Api, w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code, c.body)
		test.AssertApiError(t, w, c.errcode, c.error)
	}
	assert.Equal(t, 0, api.db.Count())
}

func TestAnalyzeTooLarge(t *testing.T) {
	t.Parallel()

	api := makeApi(t)

	body := fmt.Sprintf(`{"content": "%s"}`, strings.Repeat("a", maxBodyBytes))
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	httpAnalyzeApi(api.Api, w, r)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	test.AssertApiError(t, w, ErrcodeTooLarge, "Request body too large")
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	api := makeApi(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", test.MakeJsonBody(t, map[string]any{
		"content": "please login to secure your paypal account at https://bit.ly/xyz",
		"source":  SourceLink,
	}))
	httpAnalyzeApi(api.Api, w, r)
	require.Equal(t, http.StatusOK, w.Code)

	res := &analyzeResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), res))
	assert.NotEmpty(t, res.ReportId)
	test.AssertJsonBody(t, w, &analyzeResponse{
		ReportId:     res.ReportId,
		Score:        63,
		IsSuspicious: true,
		Reason:       "Suspicious domains/links + Spoofed brand phishing attempt: paypal",
		Findings: []trust.Finding{
			{Category: trust.CategorySuspiciousDomain, Detail: "Suspicious domains/links", Penalty: 12},
			{Category: trust.CategoryBrandSpoof, Detail: "Spoofed brand phishing attempt: paypal", Penalty: 25},
		},
		Links: []string{"https://bit.ly/xyz"},
	})

	// ... and it should be stored, including the source
	stored, err := api.db.GetAnalysis(context.Background(), res.ReportId)
	assert.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, SourceLink, stored.Source)
	assert.Equal(t, 63, stored.Score)
}

func TestAnalyzeDefaultsAndClassifier(t *testing.T) {
	t.Parallel()

	api := makeApi(t)

	for content, expected := range map[string]*analyzeResponse{
		"": {
			Score:    100,
			Reason:   trust.NoRedFlagsReason,
			Findings: []trust.Finding{},
			Links:    []string{},
		},
		test.KeywordToxic: {
			Score:        10,
			IsSuspicious: true,
			Reason:       "Toxic content flagged by ML (score: 0.90)",
			Findings: []trust.Finding{
				{Category: trust.CategoryClassifier, Detail: "Toxic content flagged by ML (score: 0.90)", Penalty: 90},
			},
			Links: []string{},
		},
		test.KeywordIntentionalFail: {
			Score:  100,
			Reason: "ML toxicity check skipped due to error",
			Findings: []trust.Finding{
				{Category: trust.CategoryClassifier, Detail: "ML toxicity check skipped due to error", Penalty: 0},
			},
			Links: []string{},
		},
	} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", test.MakeJsonBody(t, map[string]any{
			"content": content, // no source: defaults to chat
		}))
		httpAnalyzeApi(api.Api, w, r)
		require.Equal(t, http.StatusOK, w.Code, content)

		res := &analyzeResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), res))
		expected.ReportId = res.ReportId
		assert.Equal(t, expected, res, content)

		stored, err := api.db.GetAnalysis(context.Background(), res.ReportId)
		assert.NoError(t, err)
		assert.Equal(t, SourceChat, stored.Source)
	}
}

func TestAnalyzeBatch(t *testing.T) {
	t.Parallel()

	api := makeApi(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/batch", test.MakeJsonBody(t, map[string]any{
		"items": []map[string]any{
			{"content": "hello, how are you"},
			{"content": "check out this xxx video now", "source": SourceChat},
			{"content": "malware.exe", "source": SourceFile},
		},
	}))
	httpAnalyzeBatchApi(api.Api, w, r)
	require.Equal(t, http.StatusOK, w.Code)

	res := &analyzeBatchResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), res))
	require.Len(t, res.Results, 3)
	assert.Equal(t, 100, res.Results[0].Score)
	assert.Equal(t, 88, res.Results[1].Score)
	assert.Equal(t, 65, res.Results[2].Score)
	assert.True(t, res.Results[2].IsSuspicious)
	assert.Equal(t, 3, api.db.Count())
}

func TestAnalyzeBatchLimits(t *testing.T) {
	t.Parallel()

	api := makeApi(t)

	tooMany := make([]map[string]any, MaxBatchItems+1)
	for i := range tooMany {
		tooMany[i] = map[string]any{"content": "hello"}
	}

	cases := []struct {
		body    any
		errcode string
		error   string
	}{
		{map[string]any{}, ErrcodeInvalidParam, "items are required"},
		{map[string]any{"items": tooMany}, ErrcodeInvalidParam, fmt.Sprintf("at most %d items are allowed", MaxBatchItems)},
		{map[string]any{"items": []any{map[string]any{"content": "a"}, nil}}, ErrcodeInvalidParam, "item 1: content is required"},
		{map[string]any{"items": []any{map[string]any{"content": "a", "source": "fax"}}}, ErrcodeInvalidParam, "item 0: unknown source 'fax'"},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/batch", test.MakeJsonBody(t, c.body))
		httpAnalyzeBatchApi(api.Api, w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		test.AssertApiError(t, w, c.errcode, c.error)
	}
	assert.Equal(t, 0, api.db.Count())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/analyze/batch", nil)
	httpAnalyzeBatchApi(api.Api, w, r)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestGetAnalysis(t *testing.T) {
	t.Parallel()

	api := makeApi(t)
	mux := http.NewServeMux()
	require.NoError(t, api.BindTo(mux))

	stored := &storage.StoredAnalysis{
		Id:            storage.NextId(),
		ContentDigest: storage.DigestContent("malware.exe"),
		Source:        SourceFile,
		Score:         65,
		IsSuspicious:  true,
		Reason:        "Dangerous file type: .exe",
		Categories:    []string{string(trust.CategoryFileType)},
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, api.db.InsertAnalysis(context.Background(), stored))

	w := httptest.NewRecorder()
	r := test.MakeAuthedRequest(t, http.MethodGet, "/api/v1/analyses/"+stored.Id, testApiKey, nil)
	mux.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	test.AssertJsonBody(t, w, stored)

	for _, id := range []string{"missing", storage.NextId()} {
		w = httptest.NewRecorder()
		r = test.MakeAuthedRequest(t, http.MethodGet, "/api/v1/analyses/"+id, testApiKey, nil)
		mux.ServeHTTP(w, r)
		assert.Equal(t, http.StatusNotFound, w.Code, id)
		test.AssertApiError(t, w, ErrcodeNotFound, "Analysis not found")
	}

	w = httptest.NewRecorder()
	r = test.MakeAuthedRequest(t, http.MethodGet, "/api/v1/analyses/"+test.ErrorAnalysisId, testApiKey, nil)
	mux.ServeHTTP(w, r)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	test.AssertApiError(t, w, ErrcodeUnknown, "Error")

	w = httptest.NewRecorder()
	r = test.MakeAuthedRequest(t, http.MethodDelete, "/api/v1/analyses/"+stored.Id, testApiKey, nil)
	mux.ServeHTTP(w, r)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
