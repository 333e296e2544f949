// Package health runs a small standalone HTTP server exposing liveness and
// readiness endpoints, wired the same way the fleet server's own boundary
// is: a *http.Server over an http.ServeMux, started in a goroutine and
// stopped with context-bound Shutdown.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Check is a single named readiness probe result.
type Check struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// StatusResponse is the JSON body served by both /health and /ready.
type StatusResponse struct {
	Status string           `json:"status"`
	Uptime string           `json:"uptime"`
	Checks map[string]Check `json:"checks,omitempty"`
}

// CheckFunc reports whether a dependency is healthy and a human message.
type CheckFunc func() (ok bool, message string)

// Server serves /health and /ready on its own listener, independent of the
// fleet boundary's own mux, so orchestrators can probe liveness without
// routing through application handlers.
type Server struct {
	mu      sync.RWMutex
	ready   bool
	checks  map[string]CheckFunc
	started time.Time

	httpSrv *http.Server
}

// NewServer builds a health server bound to host:port. It is not ready
// until SetReady(true) is called.
func NewServer(host string, port int) *Server {
	s := &Server{
		checks:  make(map[string]CheckFunc),
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/ready", s.readyHandler)

	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: mux,
	}
	return s
}

// Start begins serving in a background goroutine. Start does not block;
// errors other than http.ErrServerClosed are reported on errc.
func (s *Server) Start() <-chan error {
	errc := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
			return
		}
		errc <- nil
	}()
	return errc
}

// SetReady flips the server's readiness flag.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// RegisterCheck adds a named readiness probe. A failing check makes /ready
// report 503 even when SetReady(true) has been called.
func (s *Server) RegisterCheck(name string, check CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Stop gracefully shuts the server down and marks it not ready.
func (s *Server) Stop(ctx context.Context) error {
	s.SetReady(false)
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status: "ok",
		Uptime: time.Since(s.started).String(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ready := s.ready
	checks := make(map[string]CheckFunc, len(s.checks))
	for name, check := range s.checks {
		checks[name] = check
	}
	s.mu.RUnlock()

	results := make(map[string]Check, len(checks))
	allPassing := true
	for name, check := range checks {
		ok, msg := check()
		results[name] = Check{
			Name:      name,
			Status:    statusString(ok),
			Message:   msg,
			Timestamp: time.Now(),
		}
		if !ok {
			allPassing = false
		}
	}

	resp := StatusResponse{
		Uptime: time.Since(s.started).String(),
		Checks: results,
	}
	code := http.StatusOK
	if ready && allPassing {
		resp.Status = "ready"
	} else {
		resp.Status = "not ready"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func statusString(ok bool) string {
	if ok {
		return "ok"
	}
	return "fail"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
