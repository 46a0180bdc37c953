// Package web exposes the engine over HTTP: JSON endpoints for state and
// commands, SSE streams for live frames, and the embedded frontend.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Schwaller/graphlens/pkg/engine"
	"github.com/Schwaller/graphlens/pkg/host"
	"github.com/Schwaller/graphlens/pkg/layout"
	"github.com/Schwaller/graphlens/pkg/logging"
	"github.com/Schwaller/graphlens/pkg/pubsub"
	"gonum.org/v1/gonum/spatial/r2"
)

//go:embed static/*
var staticFiles embed.FS

// PointerRequest is a pointer event from the frontend, in screen
// coordinates.
type PointerRequest struct {
	Kind string  `json:"kind"` // move, down, up, dblclick, wheel
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	DY   float64 `json:"dy,omitempty"` // wheel notches
}

// LayoutRequest selects a layout mode.
type LayoutRequest struct {
	Mode string `json:"mode"`
}

// FocusRequest sets or clears the focal node.
type FocusRequest struct {
	ID string `json:"id"`
}

// ViewRequest is a programmatic camera command.
type ViewRequest struct {
	Action string   `json:"action"` // reset, fit, set
	Zoom   float64  `json:"zoom,omitempty"`
	PanX   float64  `json:"panX,omitempty"`
	PanY   float64  `json:"panY,omitempty"`
	Nodes  []string `json:"nodes,omitempty"` // fit: subset to frame
}

// GraphSummary describes the loaded dataset.
type GraphSummary struct {
	Nodes    int    `json:"nodes"`
	Edges    int    `json:"edges"`
	Layout   string `json:"layout"`
	Focal    string `json:"focal,omitempty"`
	Selected string `json:"selected,omitempty"`
	Moving   bool   `json:"moving"`
}

// Server wires the HTTP surface to the engine host.
type Server struct {
	router    *mux.Router
	host      *host.Host
	publisher pubsub.Publisher
}

// NewServer creates the HTTP server around a running host.
func NewServer(h *host.Host, publisher pubsub.Publisher) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		host:      h,
		publisher: publisher,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/frame", s.handleFrame).Methods("GET")
	s.router.HandleFunc("/api/hulls", s.handleHulls).Methods("GET")
	s.router.HandleFunc("/api/pointer", s.handlePointer).Methods("POST")
	s.router.HandleFunc("/api/layout", s.handleLayout).Methods("POST")
	s.router.HandleFunc("/api/focus", s.handleFocus).Methods("POST")
	s.router.HandleFunc("/api/view", s.handleView).Methods("POST")

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("static assets missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// Router exposes the handler for tests and custom servers.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	switch topic {
	case pubsub.TopicFrame, pubsub.TopicSelection, pubsub.TopicDataset:
	default:
		http.Error(w, fmt.Sprintf("unknown topic %q", topic), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial comment establishes the stream (Safari needs it).
	fmt.Fprintf(w, ": connected\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.DebugContext(r.Context(), "SSE client gone", "topic", topic, "error", err)
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	var summary GraphSummary
	s.host.DoSync(func(e *engine.Engine) {
		summary = GraphSummary{
			Nodes:    e.Model().NodeCount(),
			Edges:    len(e.Model().Edges()),
			Layout:   e.LayoutMode().String(),
			Focal:    e.FocalNode(),
			Selected: e.SelectedID(),
			Moving:   e.Active(),
		}
	})
	writeJSON(w, summary)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.host.Frame())
}

func (s *Server) handleHulls(w http.ResponseWriter, r *http.Request) {
	padding := 20.0
	if v := r.URL.Query().Get("padding"); v != "" {
		if _, err := fmt.Sscanf(v, "%f", &padding); err != nil || padding < 0 {
			http.Error(w, "invalid padding", http.StatusBadRequest)
			return
		}
	}

	var blobs map[string]interface{}
	s.host.DoSync(func(e *engine.Engine) {
		blobs = make(map[string]interface{})
		for kind, curve := range e.CategoryBlobs(padding) {
			blobs[kind] = curve
		}
	})
	writeJSON(w, blobs)
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var ok bool
	s.host.DoSync(func(e *engine.Engine) {
		ok = true
		switch req.Kind {
		case "move":
			e.PointerMove(req.X, req.Y)
		case "down":
			e.PointerDown(req.X, req.Y)
		case "up":
			e.PointerUp(req.X, req.Y)
		case "dblclick":
			e.DoubleClick(req.X, req.Y)
		case "wheel":
			e.Wheel(req.X, req.Y, req.DY)
		default:
			ok = false
		}
	})
	if !ok {
		http.Error(w, fmt.Sprintf("unknown pointer kind %q", req.Kind), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mode, err := layout.ParseMode(req.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.host.Do(func(e *engine.Engine) { e.SetLayoutMode(mode) })
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	var req FocusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.host.Do(func(e *engine.Engine) { e.SetFocalNode(req.ID) })
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var ok bool
	s.host.DoSync(func(e *engine.Engine) {
		ok = true
		switch req.Action {
		case "reset":
			e.ResetView()
		case "fit":
			e.FitToBounds(req.Nodes...)
		case "set":
			e.SetView(req.Zoom, r2.Vec{X: req.PanX, Y: req.PanY})
		default:
			ok = false
		}
	})
	if !ok {
		http.Error(w, fmt.Sprintf("unknown view action %q", req.Action), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("response encode failed", "error", err)
	}
}

// Start serves on the given port until the listener fails.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("web server listening", "addr", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, s.router)
}
