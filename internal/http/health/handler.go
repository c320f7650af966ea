// Package health serves the liveness probe. Dependency checks live on the
// admin healthcheck page instead.
package health

import (
	"net/http"
)

// Path is where the liveness probe is routed.
const Path = "/health"

// StatusHealthy is the only status the liveness probe reports.
const StatusHealthy = "healthy"

// Response is the payload for the health endpoint.
type Response struct {
	Status string `json:"status"`
}

// body is fixed, so it is encoded once.
var body = []byte(`{"status":"` + StatusHealthy + `"}` + "\n")

// Handler answers GET and HEAD with 200 and a JSON status; HEAD gets no body.
func Handler(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	_, _ = w.Write(body)
}
