// Package health reports whether audioscribe can accept transcription work.
//
// Liveness (/healthz) only says the process is up and serving HTTP.
// Readiness (/readyz) evaluates the registered [Checker]s against what a
// transcription run needs: a writable artifact work dir is required for any
// run, while the acquisition tools (yt-dlp, ffmpeg) only matter for
// remote-video sources. Tool checks are therefore registered as optional —
// when only optional checks fail, /readyz stays 200 and reports "degraded"
// instead of marking an upload-only deployment unready.
//
// The JSON body carries a top-level "status" ("ok", "degraded", or "fail")
// and a "checks" map with each checker's individual outcome.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// checkTimeout bounds a single readiness check. Tool lookups and work-dir
// probes are local operations; anything slower than this is itself a failure.
const checkTimeout = 5 * time.Second

// Readiness statuses, in order of increasing severity.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)

// Checker is a named readiness probe. Check returns nil when the dependency
// can serve a transcription run and an error describing why not otherwise.
type Checker struct {
	// Name keys the check's outcome in the JSON response (e.g. "work_dir",
	// "ytdlp", "ffmpeg").
	Name string

	// Check probes the dependency. It must respect context cancellation.
	Check func(ctx context.Context) error

	// Optional marks dependencies that only some source kinds need. A failing
	// optional check degrades readiness instead of failing it.
	Optional bool
}

// report is the JSON response body for both endpoints.
type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves /healthz and /readyz. It is safe for concurrent use; the
// checker list is fixed at construction time.
type Handler struct {
	checkers []Checker
}

// New creates a [Handler] that evaluates the given checkers, in order, on
// each /readyz request.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz is the liveness probe. A process that can answer it is alive, so
// it unconditionally reports ok.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, report{Status: statusOK})
}

// Readyz runs every registered checker and aggregates the outcome: any
// required failure makes the whole report "fail" with HTTP 503, failures
// confined to optional checkers make it "degraded" with HTTP 200.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.checkers))
	status := statusOK

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		switch {
		case err == nil:
			checks[c.Name] = statusOK
		case c.Optional:
			checks[c.Name] = statusDegraded + ": " + err.Error()
			if status == statusOK {
				status = statusDegraded
			}
		default:
			checks[c.Name] = statusFail + ": " + err.Error()
			status = statusFail
		}
	}

	code := http.StatusOK
	if status == statusFail {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, report{Status: status, Checks: checks})
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// writeJSON encodes v as JSON with the given status code. On encoding
// failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"fail"}`, http.StatusInternalServerError)
	}
}
