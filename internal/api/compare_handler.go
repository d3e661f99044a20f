package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"berean/backend/internal/export"
	"berean/backend/internal/interfaces"
	"berean/backend/internal/model"
	"berean/backend/internal/persona"
	"berean/backend/internal/service"
)

// CompareHandler handles HTTP requests for multi-persona comparisons.
type CompareHandler struct {
	service  interfaces.CompareService
	registry *persona.Registry
}

func NewCompareHandler(svc interfaces.CompareService, registry *persona.Registry) *CompareHandler {
	return &CompareHandler{service: svc, registry: registry}
}

// HandleCompare streams one comparison dispatch as multiplexed SSE events,
// each frame tagged with the persona it belongs to. Tokens of different
// personas interleave freely; within one persona the order is the arrival
// order of upstream bytes.
func (h *CompareHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)

	var req service.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendStreamError(w, "Invalid request body")
		return
	}
	if err := validateRequest(&req); err != nil {
		sendStreamError(w, err.Error())
		return
	}

	eventChan := make(chan model.CompareEvent)
	go h.service.HandleCompare(r.Context(), &req, eventChan)

	clientGone := false
	for event := range eventChan {
		if clientGone || r.Context().Err() != nil {
			clientGone = true
			continue
		}
		if err := writeStreamEvent(w, event); err != nil {
			clientGone = true
		}
	}

	if !clientGone && r.Context().Err() == nil {
		writeStreamRaw(w, doneSentinel)
	}
}

// GetComparisons godoc
// @Summary      List settled comparison sessions
// @Tags         Comparisons
// @Produce      json
// @Success      200  {array}   model.ComparisonSession
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/comparisons [get]
func (h *CompareHandler) GetComparisons(w http.ResponseWriter, r *http.Request) {
	comparisons, err := h.service.ListComparisons(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	if comparisons == nil {
		comparisons = []model.ComparisonSession{}
	}
	respondWithJSON(w, http.StatusOK, comparisons)
}

// GetComparison godoc
// @Summary      Get one settled comparison session
// @Tags         Comparisons
// @Produce      json
// @Param        comparisonID  path  string  true  "Comparison ID"
// @Success      200  {object}  model.ComparisonSession
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/comparisons/{comparisonID} [get]
func (h *CompareHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	comparisonID := chi.URLParam(r, "comparisonID")
	comparison, err := h.service.GetComparison(r.Context(), comparisonID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, comparison)
}

// HandleDeleteComparison godoc
// @Summary      Delete a comparison session
// @Tags         Comparisons
// @Produce      json
// @Param        comparisonID  path  string  true  "Comparison ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/comparisons/{comparisonID} [delete]
func (h *CompareHandler) HandleDeleteComparison(w http.ResponseWriter, r *http.Request) {
	comparisonID := chi.URLParam(r, "comparisonID")
	if err := h.service.DeleteComparison(r.Context(), comparisonID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleExportComparison godoc
// @Summary      Export a comparison session as markdown text
// @Tags         Comparisons
// @Produce      text/markdown
// @Param        comparisonID  path  string  true  "Comparison ID"
// @Success      200  {string}  string
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/comparisons/{comparisonID}/export [get]
func (h *CompareHandler) HandleExportComparison(w http.ResponseWriter, r *http.Request) {
	comparisonID := chi.URLParam(r, "comparisonID")
	comparison, err := h.service.GetComparison(r.Context(), comparisonID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	doc := export.Comparison(comparison, func(id string) string {
		p, err := h.registry.Get(id)
		if err != nil {
			return id
		}
		return p.Name
	})
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="comparison-`+comparison.ID+`.md"`)
	if _, err := w.Write([]byte(doc)); err != nil {
		slog.Error("Failed to write export", "error", err)
	}
}
