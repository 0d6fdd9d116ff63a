package stream

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	sessionhandler "github.com/zhouzirui/persona-chat/internal/handler/session"
	sessionsvc "github.com/zhouzirui/persona-chat/internal/service/session"
	"github.com/zhouzirui/persona-chat/pkg/utils"
)

const defaultKeepAlive = 15 * time.Second

// EventsHandler streams session events over Server-Sent Events.
type EventsHandler struct {
	sessions  *sessionsvc.Manager
	logger    *zap.Logger
	keepAlive time.Duration
}

// NewEvents creates an SSE handler.
func NewEvents(sessions *sessionsvc.Manager, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{sessions: sessions, logger: logger.Named("sse"), keepAlive: defaultKeepAlive}
}

// RegisterRoutes mounts GET /sessions/{sessionID}/events.
func (h *EventsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/events", h.handleEvents)
}

func (h *EventsHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionhandler.Lookup(h.sessions, w, r)
	if !ok {
		return
	}

	// Subscribe before the first snapshot so nothing between the two is lost.
	events, cancel := s.Events().Subscribe()
	defer cancel()

	sse, err := utils.NewSSEWriter(w)
	if err != nil {
		_ = utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger := h.logger.With(zap.String("session", s.ID))
	logger.Debug("stream opened")
	defer logger.Debug("stream closed")

	if err := sse.Event(string(sessionsvc.EventState), s.Snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := sse.Event(string(ev.Type), ev.Data); err != nil {
				logger.Debug("write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := sse.Comment("keep-alive"); err != nil {
				return
			}
		}
	}
}
