// Package server exposes the transcription pipeline over a small HTTP API.
//
// One endpoint does the work: POST /v1/transcriptions accepts either a
// multipart file upload or a JSON body naming a video URL, runs one pipeline
// invocation, and returns both transcripts. The interactive presentation
// layer is out of scope; callers get JSON, or a single transcript as
// text/plain via the output query parameter for export-as-file use.
//
// The server also wires the operational endpoints: /healthz, /readyz, and
// Prometheus /metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/audioscribe/internal/acquire"
	"github.com/MrWong99/audioscribe/internal/health"
	"github.com/MrWong99/audioscribe/internal/observe"
	"github.com/MrWong99/audioscribe/internal/pipeline"
)

// defaultMaxBodyBytes caps the request body of a single transcription
// request, the uploaded audio file included.
const defaultMaxBodyBytes = 256 << 20 // 256 MiB

// multipartMemory is how much of a parsed multipart body stays in memory
// before spilling to temp files.
const multipartMemory = 32 << 20

// shutdownGrace is how long in-flight requests get to finish after the
// serve context is cancelled.
const shutdownGrace = 15 * time.Second

// Runner executes one transcription pipeline run. Satisfied by
// *pipeline.Pipeline; an interface so handler tests can stub outcomes.
type Runner interface {
	Run(ctx context.Context, src acquire.Source) (*pipeline.Result, error)
}

// Option is a functional option for [New].
type Option func(*Server)

// WithMaxBodyBytes overrides the request body cap. Defaults to 256 MiB.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBody = n }
}

// Server is the audioscribe HTTP front end.
type Server struct {
	addr    string
	runner  Runner
	metrics *observe.Metrics
	health  *health.Handler
	handler http.Handler
	maxBody int64
}

// New assembles a Server listening on addr. The health handler and metrics
// may be nil (endpoints degrade gracefully in tests).
func New(addr string, runner Runner, m *observe.Metrics, h *health.Handler, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		runner:  runner,
		metrics: m,
		health:  h,
		maxBody: defaultMaxBodyBytes,
	}
	for _, o := range opts {
		o(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/transcriptions", s.handleTranscribe)
	mux.Handle("GET /metrics", promhttp.Handler())
	if h != nil {
		h.Register(mux)
	}

	s.handler = http.Handler(mux)
	if m != nil {
		s.handler = observe.Middleware(m)(mux)
	}
	return s
}

// Handler returns the server's root handler, middleware included. Exposed
// for httptest-based tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
// within a grace period. Returns the first non-shutdown error.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.handler,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// transcribeRequest is the JSON body for URL-based transcriptions.
type transcribeRequest struct {
	URL string `json:"url"`
}

// transcribeResponse is the JSON response for a successful run.
type transcribeResponse struct {
	FormattedTranscript string `json:"formatted_transcript"`
	FlatTranscript      string `json:"flat_transcript"`
	Chunks              int    `json:"chunks"`
}

// errorResponse is the JSON body for failed runs.
type errorResponse struct {
	Error string `json:"error"`
}

// handleTranscribe dispatches on the request content type: multipart form
// data carries an uploaded audio file, JSON carries a video URL. Either way
// the request blocks for the full pipeline run.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	src, ok := s.sourceFromRequest(w, r)
	if !ok {
		return
	}

	result, err := s.runner.Run(r.Context(), src)
	if err != nil {
		s.writeRunError(w, r, err)
		return
	}

	switch output := r.URL.Query().Get("output"); output {
	case "":
		writeJSON(w, http.StatusOK, transcribeResponse{
			FormattedTranscript: result.Formatted,
			FlatTranscript:      result.Flat,
			Chunks:              result.Chunks,
		})
	case "formatted":
		writePlainText(w, "formatted_transcript.txt", result.Formatted)
	case "flat":
		writePlainText(w, "flat_transcript.txt", result.Flat)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "output must be \"formatted\" or \"flat\"",
		})
	}
}

// sourceFromRequest builds the acquisition source from the request body.
// On failure it writes the error response and returns ok=false.
func (s *Server) sourceFromRequest(w http.ResponseWriter, r *http.Request) (acquire.Source, bool) {
	// Enforce the body cap on the wire, not just on the in-memory portion of
	// the multipart parse. Reads past the limit fail with *http.MaxBytesError.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or malformed Content-Type"})
		return nil, false
	}

	switch {
	case ct == "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			writeJSON(w, bodyErrStatus(err), errorResponse{Error: "parse multipart form: " + err.Error()})
			return nil, false
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: `multipart field "file" is required`})
			return nil, false
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			writeJSON(w, bodyErrStatus(err), errorResponse{Error: "read upload: " + err.Error()})
			return nil, false
		}

		format := r.FormValue("format")
		if format == "" {
			format = strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
		}
		return acquire.Upload{Data: data, Format: format}, true

	case ct == "application/json":
		var req transcribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, bodyErrStatus(err), errorResponse{Error: "decode request body: " + err.Error()})
			return nil, false
		}
		if req.URL == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: `"url" is required`})
			return nil, false
		}
		return acquire.RemoteVideo{URL: req.URL}, true

	default:
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{
			Error: "Content-Type must be multipart/form-data or application/json",
		})
		return nil, false
	}
}

// bodyErrStatus distinguishes an over-limit body from a malformed one.
func bodyErrStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// writeRunError maps a pipeline failure to an HTTP status. Acquisition
// failures are the caller's input going wrong (bad URL, bad format);
// recognizer failures are an upstream dependency going wrong.
func (s *Server) writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		switch stageErr.Stage {
		case pipeline.StageAcquire:
			status = http.StatusUnprocessableEntity
		case pipeline.StageTranscribe:
			status = http.StatusBadGateway
		}
	}

	observe.Logger(r.Context()).Error("transcription request failed",
		slog.Int("status", status),
		slog.Any("err", err),
	)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
	}
}

// writePlainText writes body as a downloadable text file.
func writePlainText(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}
