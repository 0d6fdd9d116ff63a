package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/persona-chat/internal/handler/persona"
	"github.com/zhouzirui/persona-chat/internal/handler/session"
	"github.com/zhouzirui/persona-chat/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/persona-chat/internal/middleware"
	personaModel "github.com/zhouzirui/persona-chat/internal/model/persona"
	sessionService "github.com/zhouzirui/persona-chat/internal/service/session"
	"github.com/zhouzirui/persona-chat/pkg/utils"
)

// NewRouter wires the browser-facing routes to the session manager.
func NewRouter(characters personaModel.Store, sessions *sessionService.Manager, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": sessions.Len(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		persona.New(characters).RegisterRoutes(api)
		session.New(sessions, logger).RegisterRoutes(api)
		stream.NewEvents(sessions, logger).RegisterRoutes(api)
		stream.NewWebSocket(sessions, logger).RegisterRoutes(api)
	})

	return r
}
