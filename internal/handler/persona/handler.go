package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/persona-chat/internal/model/persona"
	"github.com/zhouzirui/persona-chat/pkg/utils"
)

// Handler serves the character registry.
type Handler struct {
	characters persona.Store
}

// New creates a registry handler.
func New(characters persona.Store) *Handler {
	return &Handler{characters: characters}
}

// RegisterRoutes mounts the registry routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/characters", h.handleList)
	r.Get("/characters/{characterID}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	_ = utils.RespondJSON(w, http.StatusOK, h.characters.List())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, ok := h.characters.FindByID(chi.URLParam(r, "characterID"))
	if !ok {
		_ = utils.RespondError(w, http.StatusNotFound, "character not found")
		return
	}
	_ = utils.RespondJSON(w, http.StatusOK, c)
}
