package session

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/persona-chat/internal/service/conversation"
	sessionsvc "github.com/zhouzirui/persona-chat/internal/service/session"
	"github.com/zhouzirui/persona-chat/pkg/utils"
)

const maxBodyBytes = 64 << 10

// Handler serves the session REST endpoints.
type Handler struct {
	sessions *sessionsvc.Manager
	logger   *zap.Logger
}

// New creates a session handler.
func New(sessions *sessionsvc.Manager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sessions: sessions, logger: logger.Named("session-handler")}
}

// RegisterRoutes mounts the session routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreate)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Delete("/", h.handleDelete)
		r.Post("/select", h.handleSelect)
		r.Post("/back", h.handleBack)
		r.Post("/messages", h.handleMessage)
		r.Post("/speak", h.handleSpeak)
	})
}

// Lookup resolves the {sessionID} URL parameter, answering 404 itself when
// the session does not exist.
func Lookup(sessions *sessionsvc.Manager, w http.ResponseWriter, r *http.Request) (*sessionsvc.Session, bool) {
	s, err := sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		_ = utils.RespondError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

// StatusFor maps session and controller errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, sessionsvc.ErrSessionNotFound), errors.Is(err, sessionsvc.ErrSessionClosed),
		errors.Is(err, sessionsvc.ErrUnknownCharacter):
		return http.StatusNotFound
	case errors.Is(err, conversation.ErrAwaitingResponse), errors.Is(err, sessionsvc.ErrAlreadyChatting):
		return http.StatusConflict
	case errors.Is(err, conversation.ErrEmptyInput), errors.Is(err, conversation.ErrNoActiveCharacter):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	h.respond(w, http.StatusCreated, s.Snapshot())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	s, ok := Lookup(h.sessions, w, r)
	if !ok {
		return
	}
	h.respond(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Remove(chi.URLParam(r, "sessionID")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	s, ok := Lookup(h.sessions, w, r)
	if !ok {
		return
	}

	var payload struct {
		CharacterID string `json:"characterId"`
	}
	if err := utils.DecodeJSON(w, r, maxBodyBytes, &payload); err != nil {
		_ = utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.CharacterID) == "" {
		_ = utils.RespondError(w, http.StatusBadRequest, "characterId is required")
		return
	}

	if err := s.OnSelect(payload.CharacterID); err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) handleBack(w http.ResponseWriter, r *http.Request) {
	s, ok := Lookup(h.sessions, w, r)
	if !ok {
		return
	}
	s.OnBack()
	h.respond(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	s, ok := Lookup(h.sessions, w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, maxBodyBytes, &payload); err != nil {
		_ = utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.Dispatch(payload.Text); err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusAccepted, s.Snapshot())
}

func (h *Handler) handleSpeak(w http.ResponseWriter, r *http.Request) {
	s, ok := Lookup(h.sessions, w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, maxBodyBytes, &payload); err != nil {
		_ = utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		_ = utils.RespondError(w, http.StatusUnprocessableEntity, "text is required")
		return
	}

	ref, err := s.Speak(r.Context(), payload.Text)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]string{"audioUrl": ref.URL})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("request failed", zap.Error(err))
	}
	_ = utils.RespondError(w, status, err.Error())
}

func (h *Handler) respond(w http.ResponseWriter, status int, payload any) {
	if err := utils.RespondJSON(w, status, payload); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}
