// Package web serves stored evaluation runs over HTTP.
package web

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/metalagman/preserve/internal/db"
	"github.com/metalagman/preserve/internal/report"
	"github.com/rs/zerolog/log"
)

// Server provides the read-only run browser.
type Server struct {
	store *db.Store
	index *template.Template
}

//go:embed templates/*.html
var templatesFS embed.FS

// NewServer creates a new web server.
func NewServer(store *db.Store) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Server{store: store, index: tmpl}, nil
}

// Routes returns the router for the web UI.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /runs/{id}", s.handleRun)
	mux.HandleFunc("GET /runs/{id}/results.json", s.handleRunJSON)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.index.Execute(w, runs); err != nil {
		log.Error().Err(err).Msg("render index")
	}
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	d, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.WriteHTML(w, d, ""); err != nil {
		log.Error().Err(err).Str("run_id", d.RunID).Msg("render run")
	}
}

func (s *Server) handleRunJSON(w http.ResponseWriter, r *http.Request) {
	d, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(d); err != nil {
		log.Error().Err(err).Str("run_id", d.RunID).Msg("encode run")
	}
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (report.Data, bool) {
	id := r.PathValue("id")
	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return report.Data{}, false
	}
	if err != nil {
		serverError(w, err)
		return report.Data{}, false
	}
	results, err := s.store.Results(r.Context(), id)
	if err != nil {
		serverError(w, err)
		return report.Data{}, false
	}
	d := report.New(run.ID, results)
	if !run.FinishedAt.IsZero() {
		d.GeneratedAt = run.FinishedAt
	}
	return d, true
}

func serverError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("web request failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
