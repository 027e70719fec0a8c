package handlers

import (
	"net/http"
	"strconv"

	"flowcanvas/application/commands"
	"flowcanvas/application/commands/bus"
	"flowcanvas/application/queries"
	querybus "flowcanvas/application/queries/bus"
	"flowcanvas/application/services"
	"flowcanvas/domain/core/aggregates"
	"flowcanvas/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CanvasHandler handles canvas lifecycle, view and save requests
type CanvasHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	service    *services.CanvasService
	logger     *zap.Logger
}

// NewCanvasHandler creates a new canvas handler
func NewCanvasHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, service *services.CanvasService, logger *zap.Logger) *CanvasHandler {
	return &CanvasHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		service:    service,
		logger:     logger,
	}
}

// CreateCanvasRequest represents the request body for opening a canvas
type CreateCanvasRequest struct {
	ID            string `json:"id,omitempty" validate:"omitempty,max=64"`
	Name          string `json:"name,omitempty" validate:"max=120"`
	SeedStartNode *bool  `json:"seedStartNode,omitempty"`
}

// GetPalette handles GET /palette
func (h *CanvasHandler) GetPalette(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetPaletteQuery{})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"items": result})
}

// CreateCanvas handles POST /canvases
func (h *CanvasHandler) CreateCanvas(w http.ResponseWriter, r *http.Request) {
	var req CreateCanvasRequest
	if r.ContentLength != 0 {
		body, err := readBody(r)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		if len(body) > 0 {
			if err := utils.DecodeAndValidate(body, &req); err != nil {
				respondError(w, h.logger, err)
				return
			}
		}
	}

	if req.ID == "" {
		req.ID = aggregates.NewCanvasID().String()
	}

	cmd := commands.CreateCanvasCommand{
		CanvasID:      req.ID,
		Name:          req.Name,
		SeedStartNode: req.SeedStartNode,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.respondSummary(w, r, req.ID, http.StatusCreated)
}

// ListCanvases handles GET /canvases
func (h *CanvasHandler) ListCanvases(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListCanvasesQuery{})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	canvases, _ := result.([]services.CanvasSummary)
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"items": canvases,
		"total": len(canvases),
	})
}

// GetCanvas handles GET /canvases/{canvasID} and returns the graph snapshot
func (h *CanvasHandler) GetCanvas(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ExportCanvasQuery{CanvasID: chi.URLParam(r, "canvasID")})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// DeleteCanvas handles DELETE /canvases/{canvasID}
func (h *CanvasHandler) DeleteCanvas(w http.ResponseWriter, r *http.Request) {
	cmd := commands.DeleteCanvasCommand{CanvasID: chi.URLParam(r, "canvasID")}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreCanvas handles POST /canvases/{canvasID}/restore
func (h *CanvasHandler) RestoreCanvas(w http.ResponseWriter, r *http.Request) {
	canvasID := chi.URLParam(r, "canvasID")
	if err := h.commandBus.Send(r.Context(), commands.RestoreCanvasCommand{CanvasID: canvasID}); err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respondSummary(w, r, canvasID, http.StatusOK)
}

// HandleGesture handles POST /canvases/{canvasID}/gestures
func (h *CanvasHandler) HandleGesture(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var g services.Gesture
	if err := utils.DecodeAndValidate(body, &g); err != nil {
		respondError(w, h.logger, err)
		return
	}

	result, err := h.service.HandleGesture(r.Context(), aggregates.CanvasID(chi.URLParam(r, "canvasID")), g)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// UpdateViewport handles PUT /canvases/{canvasID}/viewport
func (h *CanvasHandler) UpdateViewport(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var change services.ViewportChange
	if err := utils.DecodeAndValidate(body, &change); err != nil {
		respondError(w, h.logger, err)
		return
	}

	state, err := h.service.UpdateViewport(r.Context(), aggregates.CanvasID(chi.URLParam(r, "canvasID")), change)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, state)
}

// GetFrame handles GET /canvases/{canvasID}/frame?minimapWidth=&minimapHeight=
func (h *CanvasHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	width, err := floatParam(r, "minimapWidth")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	height, err := floatParam(r, "minimapHeight")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetFrameQuery{
		CanvasID:      chi.URLParam(r, "canvasID"),
		MinimapWidth:  width,
		MinimapHeight: height,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// SaveCanvas handles POST /canvases/{canvasID}/save
func (h *CanvasHandler) SaveCanvas(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.service.Save(r.Context(), aggregates.CanvasID(chi.URLParam(r, "canvasID")))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, receipt)
}

// ListVersions handles GET /canvases/{canvasID}/versions?limit=
func (h *CanvasHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, h.logger, utils.FieldError("limit", "limit must be an integer"))
			return
		}
		limit = n
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListVersionsQuery{
		CanvasID: chi.URLParam(r, "canvasID"),
		Limit:    limit,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"items": result})
}

func (h *CanvasHandler) respondSummary(w http.ResponseWriter, r *http.Request, canvasID string, status int) {
	summary, err := h.queryBus.Ask(r.Context(), queries.GetCanvasQuery{CanvasID: canvasID})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, status, summary)
}

func floatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, utils.FieldError(name, name+" must be a number")
	}
	return v, nil
}
