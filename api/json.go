package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/vantaai/trustserv/metrics"
)

// maxBodyBytes - Request bodies larger than this are rejected before parsing.
const maxBodyBytes = 4 << 20

// parseJsonBody - Reads at most maxBodyBytes of the request and decodes them into a new T. Oversized bodies fail
// with *http.MaxBytesError.
func parseJsonBody[T any](w http.ResponseWriter, r *http.Request) (*T, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	val := new(T)
	if err = json.Unmarshal(b, val); err != nil {
		return nil, err
	}
	return val, nil
}

func respondJson(action string, r *http.Request, w http.ResponseWriter, val any) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	defer metrics.RecordHttpResponse(r.Method, action, http.StatusOK)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
	return nil
}
