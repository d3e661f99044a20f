package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"berean/backend/internal/persona"
)

// PersonaHandler serves the static persona catalog.
type PersonaHandler struct {
	registry *persona.Registry
}

func NewPersonaHandler(registry *persona.Registry) *PersonaHandler {
	return &PersonaHandler{registry: registry}
}

// HandleListPersonas godoc
// @Summary      List available personas
// @Description  Returns display metadata for every persona in the catalog.
// @Tags         Personas
// @Produce      json
// @Success      200  {array}  model.Persona
// @Router       /v1/personas [get]
func (h *PersonaHandler) HandleListPersonas(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.registry.List())
}

// HandleGetPersona godoc
// @Summary      Get one persona
// @Tags         Personas
// @Produce      json
// @Param        personaID  path  string  true  "Persona ID"
// @Success      200  {object}  model.Persona
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/personas/{personaID} [get]
func (h *PersonaHandler) HandleGetPersona(w http.ResponseWriter, r *http.Request) {
	personaID := chi.URLParam(r, "personaID")
	p, err := h.registry.Get(personaID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}
