package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/impactlens/impact-analyzer/pkg/logging"
	"github.com/impactlens/impact-analyzer/pkg/model"
	"github.com/impactlens/impact-analyzer/pkg/pubsub"
)

//go:embed static/*
var staticFiles embed.FS

// Server serves the impact report, the dependency graph, and live
// analysis-progress events to the dashboard
type Server struct {
	router    *mux.Router
	publisher pubsub.Publisher

	mu     sync.RWMutex
	report *model.ImpactReport
}

// NewServer creates a new web server
func NewServer() *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// analysis_status: keep last events, replay only the current state
	ssePublisher.ConfigureTopic("analysis_status", pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})

	// impact_report: replay the latest summary to new subscribers
	ssePublisher.ConfigureTopic("impact_report", pubsub.TopicConfig{
		BufferSize: 1,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// SetReport stores the latest impact report for the API
func (s *Server) SetReport(report *model.ImpactReport) {
	s.mu.Lock()
	s.report = report
	s.mu.Unlock()
}

// PublishStatus publishes an analysis status event
func (s *Server) PublishStatus(state, message string, step, total int) error {
	return s.publisher.Publish("analysis_status", state, pubsub.AnalysisStatus{
		State:   state,
		Message: message,
		Step:    step,
		Total:   total,
	})
}

// PublishReportSummary announces a completed report to subscribers
func (s *Server) PublishReportSummary(report *model.ImpactReport, edges int) error {
	return s.publisher.Publish("impact_report", "complete", pubsub.ReportSummary{
		Services: len(report.Graph),
		Edges:    edges,
		Direct:   len(report.Direct),
		Indirect: len(report.Indirect),
		Risk:     string(report.Risk),
	})
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)
	api.HandleFunc("/graph", s.handleGraph).Methods(http.MethodGet)
	api.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(static)))
}

// handleReport serves the full impact report as JSON
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	report := s.report
	s.mu.RUnlock()

	if report == nil {
		http.Error(w, `{"error":"analysis not complete"}`, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, report)
}

// handleGraph serves just the dependency graph portion
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	report := s.report
	s.mu.RUnlock()

	if report == nil {
		http.Error(w, `{"error":"analysis not complete"}`, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, report.Graph)
}

// handleEvents streams pub/sub events for one topic over SSE
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = "analysis_status"
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.Debug("SSE write failed, client gone", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// Start runs the HTTP server on the given port, blocking
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("web server listening", "addr", addr)
	return http.ListenAndServe(addr, logging.RequestIDMiddleware(s.router))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}
