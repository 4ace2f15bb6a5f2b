package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/olahol/melody"

	"github.com/lehigh-university-libraries/mviewer/internal/session"
)

// Greeting is the first message on every new connection
const Greeting = "mViewer server connection accepted."

const sessionKey = "session"

func (h *Handler) HandleSocket(w http.ResponseWriter, r *http.Request) {
	if err := h.melody.HandleRequest(w, r); err != nil {
		slog.Error("Websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
	}
}

// handleConnect gives each connection its own session. Replies are written
// back on the socket in the order the session produces them.
func (h *Handler) handleConnect(s *melody.Session) {
	respond := func(msg string) {
		if err := s.Write([]byte(msg)); err != nil {
			slog.Debug("Dropping reply for closed connection", "err", err)
		}
	}
	// the close command ends the connection along with the session
	onClose := func(string) {
		if !s.IsClosed() {
			s.Close()
		}
	}

	sess, err := h.newSession(respond, onClose)
	if err != nil {
		slog.Error("Unable to create session", "remote", s.Request.RemoteAddr, "err", err)
		s.CloseWithMsg(melody.FormatCloseMessage(1011, "unable to create session"))
		return
	}
	s.Set(sessionKey, sess)

	slog.Info("Client connected", "session", sess.ID(), "remote", s.Request.RemoteAddr)
	respond(Greeting)
}

func (h *Handler) handleMessage(s *melody.Session, msg []byte) {
	sess, ok := socketSession(s)
	if !ok {
		return
	}
	if err := sess.Submit(string(msg)); err != nil {
		if errors.Is(err, session.ErrClosed) {
			s.Write([]byte("ERROR: " + err.Error()))
			return
		}
		slog.Error("Unable to queue command", "session", sess.ID(), "err", err)
	}
}

func (h *Handler) handleDisconnect(s *melody.Session) {
	sess, ok := socketSession(s)
	if !ok {
		return
	}
	slog.Info("Client disconnected", "session", sess.ID())
	if err := sess.Close(); err != nil {
		slog.Error("Session cleanup failed", "session", sess.ID(), "err", err)
	}
}

func socketSession(s *melody.Session) (*session.Session, bool) {
	v, exists := s.Get(sessionKey)
	if !exists {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}
