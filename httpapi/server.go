// Package httpapi exposes the operator-facing HTTP surface: queue introspection, a manual requeue
// trigger, and a Prometheus scrape endpoint. Grounded on the pack's gorilla/mux REST server shape
// (mux.NewRouter, a PathPrefix subrouter, one handler per route).
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/conductor-oss/decider-go/execution"
	"github.com/conductor-oss/decider-go/queue"
)

// Server is the operator HTTP surface. Build with New.
type Server struct {
	router    *mux.Router
	http      *http.Server
	Queue     queue.Queue
	Execution *execution.Service
	Logger    *zap.Logger
}

// New builds a Server bound to addr. A nil logger falls back to zap.NewNop().
func New(addr string, q queue.Queue, svc *execution.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router:    mux.NewRouter(),
		Queue:     q,
		Execution: svc,
		Logger:    logger,
	}
	s.setupRoutes()
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.loggingMiddleware(s.router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/queues").Subrouter()
	api.HandleFunc("", s.handleListQueues).Methods(http.MethodGet)
	api.HandleFunc("/{name}", s.handleQueueSize).Methods(http.MethodGet)
	api.HandleFunc("/{name}/requeue", s.handleRequeue).Methods(http.MethodPost)
}

// Start begins serving and blocks until ListenAndServe returns.
func (s *Server) Start() error {
	s.Logger.Info("httpapi server starting", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleListQueues(w http.ResponseWriter, r *http.Request) {
	detail, err := s.Queue.QueuesDetail()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleQueueSize(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	size, err := s.Queue.GetSize(name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"size": size})
}

func (s *Server) handleRequeue(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	count, err := s.Execution.RequeuePendingTasksOfType(r.Context(), name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"requeued": count})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("encode response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.Logger.Debug("request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
