package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/ppm-finder/internal/bumper"
	"github.com/sells-group/ppm-finder/internal/guided"
)

type eventRequest struct {
	Type bumper.EventType `json:"type"`
}

type bumperStatus struct {
	ProductBumper bool         `json:"productBumper"`
	ExitIntent    bool         `json:"exitIntent"`
	Phase         bumper.Phase `json:"phase"`
}

type guidedBody struct {
	Answers         guided.Answers         `json:"answers"`
	Personalization guided.Personalization `json:"personalization,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := s.sessions.Create(r.Context())
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": id})
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Reset(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvent applies a UI signal to the session's machine and mirrors
// panel open/close events into its home state.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.sessions.get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req eventRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.machine.Apply(ctx, req.Type); err != nil {
		writeError(w, err)
		return
	}
	if name, open, ok := bumper.Overlay(req.Type); ok {
		if open {
			sess.overlays.Open(name)
		} else {
			sess.overlays.Close(name)
		}
	}
	writeJSON(w, http.StatusOK, status(sess))
}

func (s *Server) handleBumpers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.sessions.get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.machine.Tick(ctx)
	writeJSON(w, http.StatusOK, status(sess))
}

func status(sess *session) bumperStatus {
	return bumperStatus{
		ProductBumper: sess.machine.ShouldShowProductBumper(),
		ExitIntent:    sess.machine.ShouldShowExitIntentBumper(),
		Phase:         sess.machine.Phase(),
	}
}

func (s *Server) handleGetGuided(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.sessions.get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, guidedBody{
		Answers:         sess.guided.Answers(ctx),
		Personalization: sess.guided.Personalization(ctx),
	})
}

func (s *Server) handlePutGuided(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.sessions.get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var body guidedBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.guided.SaveAnswers(ctx, body.Answers); err != nil {
		writeError(w, err)
		return
	}
	if body.Personalization != nil {
		if err := sess.guided.SavePersonalization(ctx, body.Personalization); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, guidedBody{
		Answers:         sess.guided.Answers(ctx),
		Personalization: sess.guided.Personalization(ctx),
	})
}
