// Package server implements the HTTP boundary adapters: stateless
// translation between JSON/form payloads and the Fleet Store, World Model,
// and Task Planner operations. Routing and lifecycle follow the same
// net/http.Server-over-ServeMux shape the teacher's relay package uses.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fenwicklabs/turtlefleet/pkg/audit"
	"github.com/fenwicklabs/turtlefleet/pkg/fleet"
	"github.com/fenwicklabs/turtlefleet/pkg/observability"
	"github.com/fenwicklabs/turtlefleet/pkg/task"
	"github.com/fenwicklabs/turtlefleet/pkg/world"
)

// Server owns every shared component and exposes it through the HTTP
// boundary. There are no package-level globals: every handler closes over
// this single value.
type Server struct {
	fleet   *fleet.Store
	world   *world.World
	tasks   *task.Planner
	metrics *observability.Registry
	audit   *audit.RingStore
	log     *slog.Logger

	httpSrv *http.Server
}

// New builds a Server bound to addr. It does not start listening until
// Start is called.
func New(addr string, f *fleet.Store, w *world.World, t *task.Planner, m *observability.Registry, a *audit.RingStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{fleet: f, world: w, tasks: t, metrics: m, audit: a, log: log}
	s.httpSrv = &http.Server{Addr: addr, Handler: s.buildMux()}
	return s
}

func (s *Server) buildMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /poll/{id}", s.handlePoll)
	mux.HandleFunc("POST /update/{id}", s.handleUpdate)
	mux.HandleFunc("GET /get_position/{id}", s.handleGetPosition)
	mux.HandleFunc("POST /scan_report/{id}", s.handleScanReport)
	mux.HandleFunc("POST /add_commands", s.handleAddCommands)
	mux.HandleFunc("POST /clear_queue", s.handleClearQueue)
	mux.HandleFunc("GET /pathfind/{id}/{x}/{y}/{z}", s.handlePathfind)
	mux.HandleFunc("POST /find_and_mine/{id}/{name}", s.handleFindAndMine)
	mux.HandleFunc("POST /chat_command", s.handleChatCommand)
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /world", s.handleRoot)
	mux.HandleFunc("GET /world_data", s.handleWorldData)
	mux.HandleFunc("GET /audit", s.handleAudit)

	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Gatherer(), promhttp.HandlerOpts{}))
	}

	return mux
}

// Start serves in the foreground; it returns nil on a clean Shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv.BaseContext = func(net.Listener) context.Context { return ctx }
	s.log.Info("fleet server starting", "addr", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// reRegisterBody is returned, with HTTP 200, to any agent-facing
// operation addressed to an id the store has never registered. See §7.
var reRegisterBody = []byte(`{"error":"re-register"}`)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeReRegister(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(reRegisterBody)
}

func isUnknownAgent(err error) bool {
	var unknown fleet.ErrUnknownAgent
	return errors.As(err, &unknown)
}

func decodeStatus(r *http.Request) (*fleet.Status, error) {
	if r.ContentLength == 0 {
		return nil, nil
	}
	var st fleet.Status
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	status, err := decodeStatus(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status payload"})
		return
	}
	id := s.fleet.Register(status)
	if s.metrics != nil {
		s.metrics.ObserveRegister()
	}
	if s.audit != nil {
		s.audit.Append(audit.EventRegister, string(id), "agent registered")
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": string(id)})
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	id := fleet.AgentID(r.PathValue("id"))
	status, err := decodeStatus(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status payload"})
		return
	}
	newStatus := fleet.DefaultStatus()
	if status != nil {
		newStatus = *status
	}

	cmds, err := s.fleet.DrainQueue(id, newStatus)
	if err != nil {
		if isUnknownAgent(err) {
			writeReRegister(w)
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if s.metrics != nil {
		s.metrics.ObservePoll(len(cmds))
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": cmds})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := fleet.AgentID(r.PathValue("id"))
	status, err := decodeStatus(r)
	if err != nil || status == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status payload"})
		return
	}
	if err := s.fleet.UpdateStatus(id, *status); err != nil {
		if isUnknownAgent(err) {
			writeReRegister(w)
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	id := fleet.AgentID(r.PathValue("id"))
	status, err := s.fleet.GetStatus(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Turtle not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"x": status.X, "y": status.Y, "z": status.Z, "dir": int(status.Dir),
	})
}

func (s *Server) handleScanReport(w http.ResponseWriter, r *http.Request) {
	id := fleet.AgentID(r.PathValue("id"))
	if _, err := s.fleet.GetStatus(id); err != nil {
		writeReRegister(w)
		return
	}

	var payload struct {
		Blocks map[string]string `json:"blocks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid scan payload"})
		return
	}

	errs := s.world.Ingest(payload.Blocks)
	if s.metrics != nil {
		s.metrics.ObserveIngest(len(payload.Blocks)-len(errs), len(errs))
	}
	for _, e := range errs {
		s.log.Warn("scan entry skipped", "error", e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "ingested": len(payload.Blocks) - len(errs)})
}

func (s *Server) handleAddCommands(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}
	id := fleet.AgentID(r.FormValue("turtle_id"))
	commands := r.FormValue("commands")

	if err := s.tasks.Process(id, commands); err != nil {
		s.log.Warn("add_commands failed", "agent_id", id, "error", err)
	} else if s.audit != nil {
		s.audit.Append(audit.EventAddCommands, string(id), fmt.Sprintf("added commands: %s", commands))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}
	id := fleet.AgentID(r.FormValue("turtle_id"))
	if err := s.fleet.ClearQueue(id); err == nil && s.audit != nil {
		s.audit.Append(audit.EventClearQueue, string(id), "queue cleared")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handlePathfind(w http.ResponseWriter, r *http.Request) {
	id := fleet.AgentID(r.PathValue("id"))
	x, errX := strconv.Atoi(r.PathValue("x"))
	y, errY := strconv.Atoi(r.PathValue("y"))
	z, errZ := strconv.Atoi(r.PathValue("z"))
	if errX != nil || errY != nil || errZ != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid coordinates"})
		return
	}
	if _, err := s.fleet.GetStatus(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Turtle not found"})
		return
	}

	cmd := fmt.Sprintf("goto %d %d %d", x, y, z)
	if err := s.tasks.Process(id, cmd); err != nil {
		s.log.Warn("pathfind failed", "agent_id", id, "error", err)
	} else if s.audit != nil {
		s.audit.Append(audit.EventPathfind, string(id), cmd)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleFindAndMine(w http.ResponseWriter, r *http.Request) {
	id := fleet.AgentID(r.PathValue("id"))
	name := r.PathValue("name")

	if _, err := s.fleet.GetStatus(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Turtle not found"})
		return
	}

	if err := s.tasks.Process(id, "mine "+name); err != nil {
		s.log.Warn("find_and_mine failed", "agent_id", id, "name", name, "error", err)
	} else if s.audit != nil {
		s.audit.Append(audit.EventFindAndMine, string(id), "mine "+name)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleChatCommand(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "invalid request body"})
		return
	}

	id, err := s.tasks.ProcessChat(payload.Command)
	if errors.Is(err, task.ErrNoAgentsAvailable) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "no agents available"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	if s.audit != nil {
		s.audit.Append(audit.EventChatCommand, string(id), payload.Command)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": fmt.Sprintf("dispatched to agent %s", id)})
}

func (s *Server) handleWorldData(w http.ResponseWriter, r *http.Request) {
	turtles := make(map[string]any)
	for _, a := range s.fleet.List() {
		turtles[string(a.ID)] = map[string]any{
			"x": a.Status.X, "y": a.Status.Y, "z": a.Status.Z,
			"dir":       a.Status.Dir.String(),
			"fuel":      a.Status.Fuel,
			"inventory": a.Status.Inventory,
			"queue":     len(a.Queue),
		}
	}

	cells := s.world.Snapshot()
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Coord.X != cells[j].Coord.X {
			return cells[i].Coord.X < cells[j].Coord.X
		}
		if cells[i].Coord.Y != cells[j].Coord.Y {
			return cells[i].Coord.Y < cells[j].Coord.Y
		}
		return cells[i].Coord.Z < cells[j].Coord.Z
	})
	blocks := make([]map[string]any, 0, len(cells))
	for _, c := range cells {
		blocks = append(blocks, map[string]any{
			"x": c.Coord.X, "y": c.Coord.Y, "z": c.Coord.Z,
			"name": c.Name, "color": c.Color,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"turtles": turtles, "blocks": blocks})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var events []audit.Event
	if s.audit != nil {
		events = s.audit.Recent()
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!doctype html><html><head><title>turtlefleet</title></head><body>")
	fmt.Fprint(w, "<h1>turtlefleet</h1><table border=\"1\"><tr><th>id</th><th>x</th><th>y</th><th>z</th><th>dir</th><th>queue</th></tr>")
	for _, a := range s.fleet.List() {
		fmt.Fprintf(w, "<tr><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%s</td><td>%d</td></tr>",
			a.ID, a.Status.X, a.Status.Y, a.Status.Z, a.Status.Dir.String(), len(a.Queue))
	}
	fmt.Fprint(w, "</table>")
	fmt.Fprintf(w, "<p>%d known blocks</p>", s.world.Len())
	fmt.Fprint(w, "</body></html>")
}
