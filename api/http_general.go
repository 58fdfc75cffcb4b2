package api

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vantaai/trustserv/metrics"
)

func writePlainOk(action string, w http.ResponseWriter, r *http.Request, body string) {
	defer metrics.RecordHttpResponse(r.Method, action, http.StatusOK)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// httpHealth - Liveness. Always OK while the process can serve requests.
func httpHealth(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpHealth")
	t := metrics.StartRequestTimer(r.Method, "httpHealth")
	defer t.ObserveDuration()

	writePlainOk("httpHealth", w, r, "OK")
}

// httpReady - Readiness. Unavailable until the classifier, if any, has finished loading.
func httpReady(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpReady")
	t := metrics.StartRequestTimer(r.Method, "httpReady")
	defer t.ObserveDuration()

	if !api.scorers.Ready() {
		errs := newErrorResponder("httpReady", w, r)
		errs.text(http.StatusServiceUnavailable, ErrcodeNotReady, "Classifier is still loading")
		return
	}
	writePlainOk("httpReady", w, r, "OK")
}

func httpCatchAll(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpCatchAll")
	t := metrics.StartRequestTimer(r.Method, "httpCatchAll")
	defer t.ObserveDuration()

	// To appease blackbox exporters
	if r.URL.Path == "/" {
		writePlainOk("httpCatchAll", w, r, "ok")
		return
	}

	logrus.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Debug("Unhandled request")

	errs := newErrorResponder("httpCatchAll", w, r)
	errs.text(http.StatusNotFound, ErrcodeUnrecognized, "not implemented")
}
