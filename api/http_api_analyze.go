package api

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/vantaai/trustserv/metrics"
	"github.com/vantaai/trustserv/queue"
	"github.com/vantaai/trustserv/trust"
)

// MaxBatchItems - The most items accepted by a single batch request.
const MaxBatchItems = 100

const SourceChat = "chat"
const SourceLink = "link"
const SourceFile = "file"

var knownSources = []string{SourceChat, SourceLink, SourceFile}

type analyzeRequest struct {
	Content *string `json:"content"`
	Source  string  `json:"source"`
}

type analyzeBatchRequest struct {
	Items []*analyzeRequest `json:"items"`
}

type analyzeResponse struct {
	ReportId     string          `json:"report_id"`
	Score        int             `json:"score"`
	IsSuspicious bool            `json:"is_suspicious"`
	Reason       string          `json:"reason"`
	Findings     []trust.Finding `json:"findings"`
	Links        []string        `json:"links"`
}

type analyzeBatchResponse struct {
	Results []*analyzeResponse `json:"results"`
}

func (req *analyzeRequest) toSubmission() (*queue.Submission, error) {
	if req == nil || req.Content == nil {
		return nil, errors.New("content is required")
	}
	source := req.Source
	if source == "" {
		source = SourceChat
	}
	if !slices.Contains(knownSources, source) {
		return nil, fmt.Errorf("unknown source '%s'", source)
	}
	return &queue.Submission{
		Content: *req.Content,
		Source:  source,
	}, nil
}

func toAnalyzeResponse(analysis *queue.Analysis) *analyzeResponse {
	return &analyzeResponse{
		ReportId:     analysis.ReportId,
		Score:        analysis.Result.Score,
		IsSuspicious: analysis.Result.IsSuspicious,
		Reason:       analysis.Result.Reason,
		Findings:     analysis.Result.Findings,
		Links:        analysis.Links,
	}
}

// writeParseError - Distinguishes oversized bodies from malformed ones.
func writeParseError(errs *errorResponder, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		errs.text(http.StatusRequestEntityTooLarge, ErrcodeTooLarge, "Request body too large")
		return
	}
	errs.text(http.StatusBadRequest, ErrcodeBadJson, "Unable to parse request body")
}

func httpAnalyzeApi(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpAnalyzeApi")
	t := metrics.StartRequestTimer(r.Method, "httpAnalyzeApi")
	defer t.ObserveDuration()

	errs := newErrorResponder("httpAnalyzeApi", w, r)

	if r.Method != http.MethodPost {
		errs.methodNotAllowed()
		return
	}

	req, err := parseJsonBody[analyzeRequest](w, r)
	if err != nil {
		writeParseError(errs, err)
		return
	}
	submission, err := req.toSubmission()
	if err != nil {
		errs.text(http.StatusBadRequest, ErrcodeInvalidParam, err.Error())
		return
	}

	analysis, err := api.analyzer.Analyze(r.Context(), submission)
	if err != nil {
		errs.err(http.StatusInternalServerError, ErrcodeUnknown, err)
		return
	}

	err = respondJson("httpAnalyzeApi", r, w, toAnalyzeResponse(analysis))
	if err != nil {
		errs.err(http.StatusInternalServerError, ErrcodeUnknown, err)
		return
	}
}

func httpAnalyzeBatchApi(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpAnalyzeBatchApi")
	t := metrics.StartRequestTimer(r.Method, "httpAnalyzeBatchApi")
	defer t.ObserveDuration()

	errs := newErrorResponder("httpAnalyzeBatchApi", w, r)

	if r.Method != http.MethodPost {
		errs.methodNotAllowed()
		return
	}

	req, err := parseJsonBody[analyzeBatchRequest](w, r)
	if err != nil {
		writeParseError(errs, err)
		return
	}
	if len(req.Items) == 0 {
		errs.text(http.StatusBadRequest, ErrcodeInvalidParam, "items are required")
		return
	}
	if len(req.Items) > MaxBatchItems {
		errs.text(http.StatusBadRequest, ErrcodeInvalidParam, fmt.Sprintf("at most %d items are allowed", MaxBatchItems))
		return
	}

	submissions := make([]*queue.Submission, len(req.Items))
	for i, item := range req.Items {
		submission, err := item.toSubmission()
		if err != nil {
			errs.text(http.StatusBadRequest, ErrcodeInvalidParam, fmt.Sprintf("item %d: %s", i, err.Error()))
			return
		}
		submissions[i] = submission
	}
	metrics.RecordBatchSize(len(submissions))

	results := make([]*analyzeResponse, len(submissions))
	analysisErrs := make([]error, len(submissions))
	wg := sync.WaitGroup{}
	for i, submission := range submissions {
		wg.Add(1)
		go func(i int, submission *queue.Submission) {
			defer wg.Done()
			analysis, err := api.analyzer.Analyze(r.Context(), submission)
			if err != nil {
				analysisErrs[i] = err
				return
			}
			results[i] = toAnalyzeResponse(analysis)
		}(i, submission)
	}
	wg.Wait()

	if err := errors.Join(analysisErrs...); err != nil {
		errs.err(http.StatusInternalServerError, ErrcodeUnknown, err)
		return
	}

	err = respondJson("httpAnalyzeBatchApi", r, w, &analyzeBatchResponse{Results: results})
	if err != nil {
		errs.err(http.StatusInternalServerError, ErrcodeUnknown, err)
		return
	}
}
