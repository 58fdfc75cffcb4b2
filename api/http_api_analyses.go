package api

import (
	"net/http"

	"github.com/vantaai/trustserv/metrics"
	"github.com/vantaai/trustserv/storage"
)

func httpGetAnalysisApi(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpGetAnalysisApi")
	t := metrics.StartRequestTimer(r.Method, "httpGetAnalysisApi")
	defer t.ObserveDuration()

	errs := newErrorResponder("httpGetAnalysisApi", w, r)

	if r.Method != http.MethodGet {
		errs.methodNotAllowed()
		return
	}

	id := r.PathValue("id")
	if !storage.IsValidId(id) {
		// It can't exist, so don't bother asking the database
		errs.text(http.StatusNotFound, ErrcodeNotFound, "Analysis not found")
		return
	}

	analysis, err := api.storage.GetAnalysis(r.Context(), id)
	if err != nil {
		errs.err(http.StatusInternalServerError, ErrcodeUnknown, err)
		return
	}
	if analysis == nil {
		errs.text(http.StatusNotFound, ErrcodeNotFound, "Analysis not found")
		return
	}

	err = respondJson("httpGetAnalysisApi", r, w, analysis)
	if err != nil {
		errs.err(http.StatusInternalServerError, ErrcodeUnknown, err)
		return
	}
}
