package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/lehigh-university-libraries/mviewer/internal/session"
)

const commandTimeout = 2 * time.Minute

// CommandResponse carries the replies a command produced
type CommandResponse struct {
	Session string   `json:"session"`
	Replies []string `json:"replies"`
}

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		sessionList := make([]session.Summary, 0, len(sessions))
		for _, sess := range sessions {
			sessionList = append(sessionList, sess.Summary())
		}
		h.writeJSON(w, sessionList)
	case "POST":
		// sessions created here have no socket; drive them through /commands
		sess, err := h.newSession(nil, nil)
		if err != nil {
			h.writeError(w, "Unable to create session: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		h.writeJSON(w, sess.Summary())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	sess, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		data, err := sess.View().ToWireJSON()
		if err != nil {
			h.writeError(w, "Unable to encode view: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(data); err != nil {
			slog.Error("Unable to write view", "err", err)
		}
	case "PUT":
		body, err := h.readBody(w, r)
		if err != nil {
			h.writeError(w, "Unable to read request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		h.runCommand(w, r, sess, "submitUpdateRequest "+body)
	case "DELETE":
		if err := sess.Close(); err != nil {
			h.writeError(w, "Session cleanup failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionCommand runs one wire command from the request body and
// returns its replies. Websocket clients of the same session see the
// replies too.
func (h *Handler) HandleSessionCommand(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	body, err := h.readBody(w, r)
	if err != nil {
		h.writeError(w, "Unable to read request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.runCommand(w, r, sess, body)
}

func (h *Handler) HandleSessionDisplay(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, sess.View().DisplayForm()); err != nil {
		slog.Error("Unable to write display form", "err", err)
	}
}

// HandleSessionFile serves an artifact from the session workspace
func (h *Handler) HandleSessionFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sess, ok := h.getSessionOrError(w, vars["id"])
	if !ok {
		return
	}
	path, err := sess.ArtifactPath(vars["name"])
	if err != nil {
		h.writeError(w, "Invalid file path", http.StatusBadRequest)
		return
	}
	// artifacts are rewritten in place on every render
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, path)
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxMessageSize))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func (h *Handler) runCommand(w http.ResponseWriter, r *http.Request, sess *session.Session, line string) {
	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()

	replies, err := sess.Do(ctx, line)
	if err != nil {
		code := http.StatusGatewayTimeout
		if errors.Is(err, session.ErrClosed) {
			code = http.StatusGone
		}
		h.writeError(w, "Command not completed: "+err.Error(), code)
		return
	}
	if replies == nil {
		replies = []string{}
	}
	h.writeJSON(w, CommandResponse{Session: sess.ID(), Replies: replies})
}
