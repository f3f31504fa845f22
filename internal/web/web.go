package web

import (
	"crypto/subtle"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"readycal/internal/calendar"
	"readycal/internal/config"
	"readycal/internal/ics"
	appLog "readycal/internal/log"
	"readycal/internal/model"
	"readycal/internal/tooltip"
)

// Server exposes the calendar controller over an HTTP JSON API plus a small
// embedded static shell.
type Server struct {
	cfg        *config.Config
	controller *calendar.Controller
	mux        *http.ServeMux
}

// embeddedStatic contains the exported static UI shell.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server around an already-loaded controller.
func NewServer(cfg *config.Config, controller *calendar.Controller) *Server {
	s := &Server{
		cfg:        cfg,
		controller: controller,
		mux:        http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password is treated as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays unauthenticated for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="readycal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleAddEvent)
	s.mux.HandleFunc("PUT /api/events/{id}", s.handleUpdateEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)
	s.mux.HandleFunc("POST /api/events/{id}/duplicate", s.handleDuplicateEvent)

	s.mux.HandleFunc("GET /api/options", s.handleOptions)
	s.mux.HandleFunc("GET /api/selection", s.handleGetSelection)
	s.mux.HandleFunc("PUT /api/selection", s.handlePutSelection)

	s.mux.HandleFunc("GET /api/view", s.handleGetView)
	s.mux.HandleFunc("PUT /api/view", s.handlePutView)
	s.mux.HandleFunc("POST /api/navigate", s.handleNavigate)

	s.mux.HandleFunc("POST /api/click", s.handleClick)
	s.mux.HandleFunc("GET /api/tooltip", s.handleGetTooltip)
	s.mux.HandleFunc("POST /api/tooltip/reposition", s.handleRepositionTooltip)
	s.mux.HandleFunc("POST /api/tooltip/close", s.handleCloseTooltip)

	s.mux.HandleFunc("GET /export.ics", s.handleExportICS)

	// Static shell; all non-API paths fall back to this handler.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON response shape for GET /api/events.
type eventsResponse struct {
	Events      []model.CalendarEvent `json:"events"`
	Total       int                   `json:"total"`
	Selection   model.FilterSelection `json:"selection"`
	View        calendar.View         `json:"view"`
	CurrentDate time.Time             `json:"currentDate"`
}

// handleListEvents returns the filtered view of the merged set along with
// the page state that produced it. ?all=1 skips filtering.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	var events []model.CalendarEvent
	if r.URL.Query().Get("all") == "1" {
		events = s.controller.Events()
	} else {
		events = s.controller.FilteredEvents()
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Events:      events,
		Total:       len(s.controller.Events()),
		Selection:   s.controller.Selection(),
		View:        s.controller.CurrentView(),
		CurrentDate: s.controller.CurrentDate(),
	})
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.CalendarEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}
	created := s.controller.AddEvent(ev)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.CalendarEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}
	ev.ID = r.PathValue("id")
	if !s.controller.UpdateEvent(ev) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// handleDeleteEvent removes an event. The UI's confirmation dialog is
// represented by a required confirm=true query parameter.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "deletion requires confirm=true")
		return
	}
	if !s.controller.DeleteEvent(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDuplicateEvent(w http.ResponseWriter, r *http.Request) {
	clone, ok := s.controller.DuplicateEvent(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusCreated, clone)
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Options())
}

func (s *Server) handleGetSelection(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Selection())
}

func (s *Server) handlePutSelection(w http.ResponseWriter, r *http.Request) {
	var sel model.FilterSelection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		writeError(w, http.StatusBadRequest, "invalid selection payload")
		return
	}
	s.controller.SetSelection(sel)
	writeJSON(w, http.StatusOK, s.controller.Selection())
}

// viewResponse is the JSON shape for the view/date cursor.
type viewResponse struct {
	View        calendar.View `json:"view"`
	CurrentDate time.Time     `json:"currentDate"`
}

func (s *Server) handleGetView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, viewResponse{
		View:        s.controller.CurrentView(),
		CurrentDate: s.controller.CurrentDate(),
	})
}

func (s *Server) handlePutView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View calendar.View `json:"view"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid view payload")
		return
	}
	if err := s.controller.SetView(req.View); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewResponse{
		View:        s.controller.CurrentView(),
		CurrentDate: s.controller.CurrentDate(),
	})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action calendar.NavAction `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid navigate payload")
		return
	}
	if err := s.controller.Navigate(req.Action); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewResponse{
		View:        s.controller.CurrentView(),
		CurrentDate: s.controller.CurrentDate(),
	})
}

// clickRequest carries the clicked event plus the client-side geometry the
// placement calculator needs.
type clickRequest struct {
	EventID  string           `json:"eventId"`
	Modifier bool             `json:"modifier"`
	Anchor   tooltip.Rect     `json:"anchor"`
	Size     tooltip.Size     `json:"size"`
	Viewport tooltip.Viewport `json:"viewport"`
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid click payload")
		return
	}

	result, err := s.controller.Click(req.EventID, req.Modifier, req.Anchor, req.Size, req.Viewport)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetTooltip(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Tooltip())
}

func (s *Server) handleRepositionTooltip(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid reposition payload")
		return
	}
	writeJSON(w, http.StatusOK, s.controller.Reposition(req.Anchor, req.Size, req.Viewport))
}

func (s *Server) handleCloseTooltip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason calendar.CloseReason `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid close payload")
		return
	}
	if req.Reason == "" {
		req.Reason = calendar.CloseExplicit
	}
	s.controller.CloseTooltip(req.Reason)
	writeJSON(w, http.StatusOK, s.controller.Tooltip())
}

// handleExportICS serves the current filtered event set as an iCalendar
// document, so the readiness calendar can be subscribed from other tools.
func (s *Server) handleExportICS(w http.ResponseWriter, _ *http.Request) {
	body := ics.Export(s.controller.FilteredEvents())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="readycal.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// staticFileServer serves the embedded static shell from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Never serve HTML for unmatched /api/* paths; a 404 is correct there.
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			http.NotFound(w, r)
			return
		}

		fileServer.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
