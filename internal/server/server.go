// Package server exposes the planner over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/hammamikhairi/nutriplan/internal/analytics"
	"github.com/hammamikhairi/nutriplan/internal/logger"
	"github.com/hammamikhairi/nutriplan/internal/planner"
)

// Server wires the HTTP routes to the planner and analytics services.
type Server struct {
	planner  *planner.Planner
	tracker  *analytics.Tracker
	waitlist *analytics.Waitlist
	log      *logger.Logger
}

// New creates a server. Call Handler for tests or ListenAndServe to run it.
func New(p *planner.Planner, tracker *analytics.Tracker, waitlist *analytics.Waitlist, log *logger.Logger) *Server {
	return &Server{
		planner:  p,
		tracker:  tracker,
		waitlist: waitlist,
		log:      log.With("http"),
	}
}

// Handler returns the routed handler with logging and CORS applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/targets", s.handleTargets).Methods(http.MethodPost)
	r.HandleFunc("/api/plans", s.handleCreatePlan).Methods(http.MethodPost)
	r.HandleFunc("/api/plans/{id}", s.handleGetPlan).Methods(http.MethodGet)
	r.HandleFunc("/api/plans/{id}/sections/{section}", s.handleSection).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{userID}/plans", s.handleUserPlans).Methods(http.MethodGet)
	r.HandleFunc("/api/track-visit", s.handleTrackVisit).Methods(http.MethodPost)
	r.HandleFunc("/api/waitlist", s.handleWaitlist).Methods(http.MethodPost)

	return allowAll().Handler(s.logging(r))
}

func allowAll() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve accepts connections on ln until ctx is cancelled, then stops
// accepting and waits up to shutdownTimeout for in-flight requests.
// Request contexts are not derived from ctx, so a shutdown lets a running
// plan generation finish and store its result.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	return serve(ctx, ln, &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}, shutdownTimeout, s.log)
}

func serve(ctx context.Context, ln net.Listener, srv *http.Server, shutdownTimeout time.Duration, log *logger.Logger) error {
	addr := ln.Addr().String()
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on %s", addr)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down %s", addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// logging records method, path, status and duration of every request.
func (s *Server) logging(next http.Handler) http.Handler {
	return requestLogger(s.log, next)
}

func requestLogger(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Debug("REQ: %s %s", r.Method, r.URL.Path)

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		log.Info("RES: %d - %s %s - %v", wrapper.statusCode, r.Method, r.URL.Path, time.Since(start))
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
