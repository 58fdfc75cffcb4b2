package api

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vantaai/trustserv/metrics"
)

const ErrcodeUnauthorized = "TS_UNAUTHORIZED"
const ErrcodeUnrecognized = "TS_UNRECOGNIZED"
const ErrcodeNotFound = "TS_NOT_FOUND"
const ErrcodeBadJson = "TS_BAD_JSON"
const ErrcodeInvalidParam = "TS_INVALID_PARAM"
const ErrcodeTooLarge = "TS_TOO_LARGE"
const ErrcodeNotReady = "TS_NOT_READY"
const ErrcodeUnknown = "TS_UNKNOWN"

func writeHttpError(w http.ResponseWriter, code int, errcode string, msg string) {
	b, _ := json.Marshal(map[string]string{
		"errcode": errcode,
		"error":   msg,
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

type errorResponder struct {
	action string
	w      http.ResponseWriter
	r      *http.Request
}

func (e *errorResponder) text(httpCode int, errcode string, error string) {
	defer metrics.RecordHttpResponse(e.r.Method, e.action, httpCode)
	writeHttpError(e.w, httpCode, errcode, error)
}

func (e *errorResponder) err(httpCode int, errcode string, err error) {
	logrus.WithFields(logrus.Fields{
		"action":  e.action,
		"status":  httpCode,
		"errcode": errcode,
	}).WithError(err).Error("Request failed")
	e.text(httpCode, errcode, "Error")
}

func (e *errorResponder) methodNotAllowed() {
	e.text(http.StatusMethodNotAllowed, ErrcodeUnrecognized, "Method not allowed")
}

func newErrorResponder(action string, w http.ResponseWriter, r *http.Request) *errorResponder {
	return &errorResponder{
		action: action,
		w:      w,
		r:      r,
	}
}
