package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/keygraph/pkg/dataset"
	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/session"
	"github.com/matzehuels/keygraph/pkg/surface"
)

// sessionView is the JSON form of a session handle.
type sessionView struct {
	ID        string     `json:"id"`
	State     string     `json:"state"`
	StartedAt time.Time  `json:"started_at"`
	Nodes     int        `json:"nodes"`
	Edges     int        `json:"edges"`
	Empty     bool       `json:"empty,omitempty"`
	Error     *errorInfo `json:"error,omitempty"`
}

func viewOf(h *session.Handle) sessionView {
	v := sessionView{
		ID:        h.ID,
		State:     string(h.State()),
		StartedAt: h.StartedAt,
		Nodes:     h.Graph().NodeCount(),
		Edges:     h.Graph().EdgeCount(),
		Empty:     h.Empty(),
	}
	if err := h.Err(); err != nil {
		v.Error = &errorInfo{Code: string(errors.GetCode(err)), Message: errors.UserMessage(err)}
	}
	return v
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	format := dataset.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = dataset.FormatYAML
	}
	ds, err := dataset.Read(http.MaxBytesReader(w, r.Body, maxBodyBytes), format)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	h, err := s.opts.Lifecycle.StartSession(r.Context(), ds)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	respondJSON(w, http.StatusCreated, viewOf(h))
}

func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) {
	h := s.opts.Lifecycle.Current()
	if h == nil {
		s.respondError(w, r, errors.New(errors.ErrCodeNotFound, "no active session"), 0)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(h))
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	h := s.opts.Lifecycle.Current()
	if h == nil {
		s.respondError(w, r, errors.New(errors.ErrCodeNotFound, "no active session"), 0)
		return
	}
	s.opts.Lifecycle.StopSession(h)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Assistant
// =============================================================================

type chatRequest struct {
	Dialogue string `json:"dialogue"`
}

type chatResponse struct {
	Reply   string          `json:"reply"`
	Data    dataset.Dataset `json:"data"`
	Cached  bool            `json:"cached,omitempty"`
	Session *sessionView    `json:"session,omitempty"`
}

// chat runs the assistant on the posted dialogue and presents the reply.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	if s.opts.Assistant == nil {
		s.respondError(w, r, errors.New(errors.ErrCodeUnsupported, "no assistant is configured"), 0)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode chat request"), 0)
		return
	}

	reply, err := s.opts.Assistant.Exchange(r.Context(), req.Dialogue)
	if err != nil {
		status := 0
		if errors.Is(err, errors.ErrCodeInvalidFormat) || errors.Is(err, errors.ErrCodeInternal) {
			// The assistant, not the caller, produced the bad reply.
			status = http.StatusBadGateway
		}
		s.respondError(w, r, err, status)
		return
	}
	s.opts.Logger.Info("assistant replied", "keywords", len(reply.Data.Keywords), "cached", reply.Cached)

	h, err := s.opts.Lifecycle.StartSession(r.Context(), reply.Data)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadGateway)
		return
	}
	v := viewOf(h)
	respondJSON(w, http.StatusOK, chatResponse{Reply: reply.Text, Data: reply.Data, Cached: reply.Cached, Session: &v})
}

// =============================================================================
// Presentation
// =============================================================================

type graphResponse struct {
	Session  *sessionView        `json:"session,omitempty"`
	Elements []surface.Element   `json:"elements"`
	Styles   elements.StyleTable `json:"styles"`
	Frame    surface.Frame       `json:"frame"`
}

func (s *Server) graph(w http.ResponseWriter, _ *http.Request) {
	resp := graphResponse{
		Elements: s.opts.Canvas.Elements(),
		Styles:   s.opts.Canvas.Styles(),
		Frame:    s.opts.Canvas.Snapshot(),
	}
	if resp.Elements == nil {
		resp.Elements = []surface.Element{}
	}
	if h := s.opts.Lifecycle.Current(); h != nil {
		v := viewOf(h)
		resp.Session = &v
	}
	respondJSON(w, http.StatusOK, resp)
}

// frames streams canvas frames as server-sent events until the client
// goes away. Slow clients skip frames and only ever see the latest one.
func (s *Server) frames(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New(errors.ErrCodeUnsupported, "streaming is not supported"), 0)
		return
	}

	frames, cancel := s.opts.Canvas.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	ping := time.NewTicker(keepAlive)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case f, ok := <-frames:
			if !ok {
				return
			}
			data, err := json.Marshal(f)
			if err != nil {
				s.opts.Logger.Error("encode frame", "err", err)
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: frame\ndata: %s\n\n", f.Version, data); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}
