package main

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/trip-export/internal/export"
	"github.com/sells-group/trip-export/internal/monitoring"
	"github.com/sells-group/trip-export/internal/publish"
	"github.com/sells-group/trip-export/internal/service"
	"github.com/sells-group/trip-export/internal/store"
)

// server holds the dependencies of the HTTP handlers. archive and collector
// are nil when no store is configured.
type server struct {
	exporter  *service.Exporter
	archive   store.Store
	collector *monitoring.Collector
	gatherer  prometheus.Gatherer
	lookback  int
}

// buildRouter wires every route onto a chi router.
func buildRouter(s *server, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/run", s.handleForm)
	r.Post("/run", s.handleFormRun)

	r.Route("/api", func(r chi.Router) {
		r.Post("/exports", s.handleCreateExport)
		r.Get("/exports", s.handleListExports)
		r.Get("/exports/{tripID}/preview", s.handlePreview)
		r.Get("/status", s.handleStatus)
	})
	return r
}

// requestLogger writes one zap line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

var formTmpl = template.Must(template.New("form").Parse(`<!doctype html>
<title>Generate Trip JSON</title>
<h2>Generate JSON by Trip_ID</h2>
<form method="post">
  <input type="text" name="trip_id" placeholder="Trip_ID" value="{{.TripID}}" required>
  <button type="submit">Run</button>
</form>
<p>{{.Message}}</p>
{{if .Link}}<p><a href="{{.Link}}">{{.Link}}</a></p>{{end}}
`))

type formView struct {
	TripID  string
	Message string
	Link    string
}

func renderForm(w http.ResponseWriter, v formView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTmpl.Execute(w, v); err != nil {
		zap.L().Error("render form", zap.Error(err))
	}
}

func (s *server) handleForm(w http.ResponseWriter, _ *http.Request) {
	renderForm(w, formView{})
}

// handleFormRun always answers 200 and reports the outcome in the page.
func (s *server) handleFormRun(w http.ResponseWriter, r *http.Request) {
	tripID := r.FormValue("trip_id")
	res, err := s.exporter.Run(r.Context(), tripID)
	view := formView{TripID: tripID}
	switch {
	case err == nil:
		view.Message = "JSON for Trip_ID " + res.TripID + " written to " + res.Target + " successfully."
		view.Link = res.Ref.URL
	case errors.Is(err, service.ErrInvalidTripID):
		view.Message = "Trip_ID is required."
	case export.IsNotFound(err):
		view.Message = err.Error()
	default:
		view.Message = "Error writing export: " + err.Error()
	}
	renderForm(w, view)
}

func (s *server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TripID string `json:"trip_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.exporter.Run(r.Context(), req.TripID)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	exp, err := s.exporter.Preview(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	body, err := publish.Render(exp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *server) handleListExports(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "export archive is not configured")
		return
	}

	q := r.URL.Query()
	filter := store.ExportFilter{
		TripID: q.Get("trip_id"),
		Status: store.ExportStatus(q.Get("status")),
	}
	switch filter.Status {
	case "", store.StatusPublished, store.StatusFailed:
	default:
		writeError(w, http.StatusBadRequest, "status must be published or failed")
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	recs, err := s.archive.ListExports(r.Context(), filter)
	if err != nil {
		zap.L().Error("list exports", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list exports")
		return
	}
	if recs == nil {
		recs = []store.ExportRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"exports": recs})
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"target":  s.exporter.Target(),
		"archive": s.archive != nil,
	}
	if s.collector != nil {
		snap, err := s.collector.Collect(r.Context(), s.lookback)
		if err != nil {
			zap.L().Error("collect status", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to collect status")
			return
		}
		resp["exports"] = snap
	}
	writeJSON(w, http.StatusOK, resp)
}

// errorStatus maps export errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidTripID):
		return http.StatusBadRequest
	case export.IsNotFound(err):
		return http.StatusNotFound
	case export.IsSourceUnavailable(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
