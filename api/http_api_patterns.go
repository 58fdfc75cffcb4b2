package api

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vantaai/trustserv/metrics"
	"github.com/vantaai/trustserv/storage"
)

type reloadPatternsResponse struct {
	RequestId string `json:"request_id"`
}

func httpReloadPatternsApi(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpReloadPatternsApi")
	t := metrics.StartRequestTimer(r.Method, "httpReloadPatternsApi")
	defer t.ObserveDuration()

	errs := newErrorResponder("httpReloadPatternsApi", w, r)

	if r.Method != http.MethodPost {
		errs.methodNotAllowed()
		return
	}

	requestId := storage.NextId()
	logrus.WithField("request_id", requestId).Info("Pattern reload requested over the API")
	if err := api.scorers.RequestReload(r.Context(), requestId); err != nil {
		errs.err(http.StatusInternalServerError, ErrcodeUnknown, err)
		return
	}

	err := respondJson("httpReloadPatternsApi", r, w, &reloadPatternsResponse{RequestId: requestId})
	if err != nil {
		errs.err(http.StatusInternalServerError, ErrcodeUnknown, err)
		return
	}
}
