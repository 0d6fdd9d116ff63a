// Package upstream serves the persona endpoints the chat client talks to,
// so the client can run against a local service.
package upstream

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	middlewarePkg "github.com/zhouzirui/persona-chat/internal/middleware"
	chatModel "github.com/zhouzirui/persona-chat/internal/model/chat"
	speechModel "github.com/zhouzirui/persona-chat/internal/model/speech"
	aiService "github.com/zhouzirui/persona-chat/internal/service/ai"
	speechService "github.com/zhouzirui/persona-chat/internal/service/speech"
	"github.com/zhouzirui/persona-chat/pkg/utils"
)

const maxBodyBytes = 64 << 10

// Handler answers /api/chat/, /api/speak/ and /audio/{clipID}.
type Handler struct {
	generator aiService.Generator
	tts       speechService.Synthesizer
	clips     *speechService.ClipStore
	publicURL string
	logger    *zap.Logger
}

// Options configures New. TTS may be nil, in which case /api/speak/ answers 503.
type Options struct {
	Generator aiService.Generator
	TTS       speechService.Synthesizer
	Clips     *speechService.ClipStore
	PublicURL string
	Logger    *zap.Logger
}

// New creates an upstream handler.
func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	generator := opts.Generator
	if generator == nil {
		generator = aiService.NewPlaceholderGenerator()
	}
	clips := opts.Clips
	if clips == nil {
		clips = speechService.NewClipStore(64)
	}
	return &Handler{
		generator: generator,
		tts:       opts.TTS,
		clips:     clips,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		logger:    logger.Named("upstream"),
	}
}

// NewRouter mounts the handler behind the shared middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the upstream routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat/", h.handleChat)
	r.Post("/api/speak/", h.handleSpeak)
	r.Get("/audio/{clipID}", h.handleAudio)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatModel.Request
	if err := utils.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		_ = utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		_ = utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.generator.Reply(r.Context(), req.Character, req.Message)
	if err != nil {
		h.logger.Warn("reply generation failed", zap.String("character", req.Character), zap.Error(err))
		_ = utils.RespondError(w, http.StatusBadGateway, "failed to generate a reply")
		return
	}

	_ = utils.RespondJSON(w, http.StatusOK, chatModel.Response{Response: &reply})
}

func (h *Handler) handleSpeak(w http.ResponseWriter, r *http.Request) {
	if h.tts == nil {
		_ = utils.RespondError(w, http.StatusServiceUnavailable, "speech synthesis is not configured")
		return
	}

	var req speechModel.Request
	if err := utils.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		_ = utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		_ = utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	audio, err := h.tts.Synthesize(r.Context(), req.Text)
	if err != nil {
		h.logger.Warn("synthesis failed", zap.Error(err))
		_ = utils.RespondError(w, http.StatusBadGateway, "failed to synthesize speech")
		return
	}

	clip := h.clips.Put(audio)
	h.logger.Debug("clip stored", zap.String("clip", clip.ID), zap.Int("bytes", len(audio.Data)))
	_ = utils.RespondJSON(w, http.StatusOK, speechModel.Response{AudioURL: h.publicURL + "/audio/" + clip.ID})
}

func (h *Handler) handleAudio(w http.ResponseWriter, r *http.Request) {
	clip, ok := h.clips.Get(chi.URLParam(r, "clipID"))
	if !ok {
		_ = utils.RespondError(w, http.StatusNotFound, "audio not found")
		return
	}

	w.Header().Set("Content-Type", clip.Audio.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(clip.Audio.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(clip.Audio.Data)
}
