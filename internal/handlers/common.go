package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/olahol/melody"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lehigh-university-libraries/mviewer/internal/config"
	"github.com/lehigh-university-libraries/mviewer/internal/metrics"
	"github.com/lehigh-university-libraries/mviewer/internal/models"
	"github.com/lehigh-university-libraries/mviewer/internal/montage"
	"github.com/lehigh-university-libraries/mviewer/internal/session"
	"github.com/lehigh-university-libraries/mviewer/internal/storage"
)

type Handler struct {
	sessionStore *storage.SessionStore
	melody       *melody.Melody
	toolkit      montage.Toolkit
	template     *models.ViewState
	cfg          *config.Config
}

// New builds a handler whose sessions start from a copy of template
func New(cfg *config.Config, toolkit montage.Toolkit, template *models.ViewState) *Handler {
	h := &Handler{
		sessionStore: storage.New(),
		melody:       melody.New(),
		toolkit:      toolkit,
		template:     template,
		cfg:          cfg,
	}

	h.melody.Config.MaxMessageSize = cfg.MaxMessageSize
	if len(cfg.AllowedOrigins) > 0 {
		h.melody.Upgrader.CheckOrigin = h.checkOrigin
	}
	h.melody.HandleConnect(h.handleConnect)
	h.melody.HandleMessage(h.handleMessage)
	h.melody.HandleDisconnect(h.handleDisconnect)
	h.melody.HandleError(func(s *melody.Session, err error) {
		slog.Debug("Websocket error", "remote", s.Request.RemoteAddr, "err", err)
	})

	return h
}

// Router registers every route and wraps them in recovery, CORS and
// request timing middleware.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/ws", h.HandleSocket).Methods("GET")
	r.HandleFunc("/api/sessions", h.HandleSessions).Methods("GET", "POST")
	r.HandleFunc("/api/sessions/{id}", h.HandleSessionDetail).Methods("GET", "PUT", "DELETE")
	r.HandleFunc("/api/sessions/{id}/commands", h.HandleSessionCommand).Methods("POST")
	r.HandleFunc("/api/sessions/{id}/display", h.HandleSessionDisplay).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/files/{name}", h.HandleSessionFile).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	r.PathPrefix("/").HandlerFunc(h.HandleStatic)

	r.Use(metrics.Middleware(routeTemplate))

	origins := h.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"}),
		handlers.AllowedOrigins(origins),
	)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(cors(r))
}

// Shutdown disconnects every websocket client and closes all sessions
func (h *Handler) Shutdown() {
	if err := h.melody.Close(); err != nil {
		slog.Debug("Closing websocket hub", "err", err)
	}
	h.sessionStore.CloseAll()
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return ""
	}
	return tpl
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	slog.Warn("Rejected websocket origin", "origin", origin)
	return false
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*session.Session, bool) {
	sess, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (h *Handler) newSession(respond session.Responder, onClose func(string)) (*session.Session, error) {
	sess, err := session.New(session.Options{
		WorkspaceRoot: h.cfg.WorkspaceRoot,
		Toolkit:       h.toolkit,
		Template:      h.template,
		PickRadius:    h.cfg.PickRadius,
		ArchiveDir:    h.cfg.SampleArchive,
		Respond:       respond,
		OnClose: func(id string) {
			h.sessionStore.Delete(id)
			if onClose != nil {
				onClose(id)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	h.sessionStore.Set(sess)
	return sess, nil
}
