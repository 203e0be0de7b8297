// Package api serves the HTTP control surface polled by the dashboard.
package api

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-channels/logging"
	"github.com/aluiziolira/go-scrape-channels/models"
	"github.com/aluiziolira/go-scrape-channels/pipeline"
	lru "github.com/hashicorp/golang-lru/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Controller is the part of the scrape controller the HTTP surface drives.
type Controller interface {
	Start(ctx context.Context) bool
	Status() models.Status
	SnapshotVersioned() (models.Snapshot, uint64)
	ExportNow() (*pipeline.ExportResult, error)
}

// Server exposes the scrape controller to the dashboard over HTTP.
type Server struct {
	ctrl     Controller
	gatherer prometheus.Gatherer
	cache    *lru.Cache[uint64, []byte]
	mux      *http.ServeMux
	handler  http.Handler
	log      zerolog.Logger
}

// NewServer wires handlers onto an HTTP mux. Encoded snapshots are cached per
// store version, up to cacheSize entries.
func NewServer(ctrl Controller, gatherer prometheus.Gatherer, cacheSize int) (*Server, error) {
	cache, err := lru.New[uint64, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache: %w", err)
	}
	s := &Server{
		ctrl:     ctrl,
		gatherer: gatherer,
		cache:    cache,
		mux:      http.NewServeMux(),
		log:      logging.NewLogger("api"),
	}
	s.routes()
	s.handler = hlog.NewHandler(s.log)(hlog.AccessHandler(s.logRequest)(s.mux))
	return s, nil
}

// ServeHTTP satisfies the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/scrape/start", s.handleStart)
	s.mux.HandleFunc("/api/scrape/status", s.handleStatus)
	s.mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("/api/export", s.handleExport)
	if s.gatherer != nil {
		s.mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) logRequest(r *http.Request, status, size int, duration time.Duration) {
	// polled endpoints log at debug
	ev := hlog.FromRequest(r).Info()
	if r.URL.Path == "/api/scrape/status" || r.URL.Path == "/health" {
		ev = hlog.FromRequest(r).Debug()
	}
	ev.Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

type statusResponse struct {
	State    string `json:"state"`
	Message  string `json:"message"`
	RowCount int    `json:"row_count"`
}

type startResponse struct {
	Started bool           `json:"started"`
	Status  statusResponse `json:"status"`
}

type snapshotResponse struct {
	Columns []string         `json:"columns"`
	Rows    [][]models.Value `json:"rows"`
	Version uint64           `json:"version"`
}

func newStatusResponse(st models.Status) statusResponse {
	return statusResponse{State: st.Label(), Message: st.Message(), RowCount: st.RowCount}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// handleStart answers 202 when this call began the run and 409 otherwise.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	started := s.ctrl.Start(r.Context())
	code := http.StatusAccepted
	if !started {
		code = http.StatusConflict
	}
	writeJSON(w, code, startResponse{
		Started: started,
		Status:  newStatusResponse(s.ctrl.Status()),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, newStatusResponse(s.ctrl.Status()))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	snap, version := s.ctrl.SnapshotVersioned()
	body, ok := s.cache.Get(version)
	if !ok {
		columns := snap.Columns
		if columns == nil {
			columns = []string{}
		}
		rows := snap.Rows
		if rows == nil {
			rows = [][]models.Value{}
		}
		encoded, err := json.Marshal(snapshotResponse{Columns: columns, Rows: rows, Version: version})
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("encode snapshot")
			http.Error(w, "encode snapshot", http.StatusInternalServerError)
			return
		}
		body = encoded
		s.cache.Add(version, body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	res, err := s.ctrl.ExportNow()
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("export failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if res == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	name := filepath.Base(res.Path)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
