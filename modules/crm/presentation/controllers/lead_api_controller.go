package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	coreservices "github.com/flowcrm/flowcrm/modules/core/services"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/lead"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/stage"
	"github.com/flowcrm/flowcrm/modules/crm/presentation/mappers"
	"github.com/flowcrm/flowcrm/modules/crm/services"
	"github.com/flowcrm/flowcrm/pkg/application"
	"github.com/flowcrm/flowcrm/pkg/middleware"
)

type LeadAPIController struct {
	app      application.Application
	leads    *services.LeadService
	reorder  *services.ReorderService
	auth     *coreservices.AuthService
	basePath string
}

func NewLeadAPIController(app application.Application) application.Controller {
	return &LeadAPIController{
		app:      app,
		leads:    app.Service(services.LeadService{}).(*services.LeadService),
		reorder:  app.Service(services.ReorderService{}).(*services.ReorderService),
		auth:     app.Service(coreservices.AuthService{}).(*coreservices.AuthService),
		basePath: "/api/leads",
	}
}

func (c *LeadAPIController) Key() string {
	return c.basePath
}

func (c *LeadAPIController) Register(r *mux.Router) {
	commonMiddleware := []mux.MiddlewareFunc{
		middleware.Authorize(c.auth),
		middleware.RequireAuthenticated(),
	}

	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(commonMiddleware...)
	router.HandleFunc("", instrumentAPI("leads.list", c.List)).Methods(http.MethodGet)

	writeRouter := r.PathPrefix(c.basePath).Subrouter()
	writeRouter.Use(commonMiddleware...)
	writeRouter.Use(middleware.WithTransaction())
	writeRouter.HandleFunc("", instrumentAPI("leads.create", c.Create)).Methods(http.MethodPost)
	writeRouter.HandleFunc("", instrumentAPI("leads.reorder", c.Reorder)).Methods(http.MethodPatch)
	writeRouter.HandleFunc("/{id}", instrumentAPI("leads.update", c.Update)).Methods(http.MethodPut)
	writeRouter.HandleFunc("/{id}", instrumentAPI("leads.delete", c.Delete)).Methods(http.MethodDelete)
}

// List answers the full board: the caller's stages plus every lead in
// canonical order.
func (c *LeadAPIController) List(w http.ResponseWriter, r *http.Request) {
	leads, stages, err := c.leads.List(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "LEAD_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, mappers.BoardToViewModel(stages, leads))
}

func (c *LeadAPIController) Create(w http.ResponseWriter, r *http.Request) {
	var dto lead.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "LEAD_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, r, "LEAD_VALIDATION_FAILED", errs)
		return
	}

	created, err := c.leads.Create(r.Context(), &dto)
	if err != nil {
		if errors.Is(err, stage.ErrInvalidReference) {
			writeAPIError(w, r, http.StatusBadRequest, "LEAD_INVALID_STAGE", "stage does not exist")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "LEAD_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, mappers.LeadToViewModel(created))
}

// Reorder applies a drag-and-drop move batch and answers the canonical
// lead list so the client can replace its board state wholesale.
func (c *LeadAPIController) Reorder(w http.ResponseWriter, r *http.Request) {
	var dto lead.MoveBatchDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "LEAD_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, r, "LEAD_VALIDATION_FAILED", errs)
		return
	}

	moves := make([]lead.Move, 0, len(dto.Moves))
	for _, m := range dto.Moves {
		moves = append(moves, lead.Move{
			ID:       uuid.MustParse(m.ID),
			StageID:  uuid.MustParse(m.StageID),
			Position: m.Position,
		})
	}

	result, err := c.reorder.Reorder(r.Context(), moves)
	if err != nil {
		if errors.Is(err, stage.ErrInvalidReference) {
			writeAPIError(w, r, http.StatusBadRequest, "LEAD_INVALID_STAGE", "stage does not exist")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "LEAD_INTERNAL", "internal error")
		return
	}
	reorderMoves.Observe(float64(len(moves)))

	out := make([]interface{}, 0, len(result))
	for _, l := range result {
		out = append(out, mappers.LeadToViewModel(l))
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": out})
}

func (c *LeadAPIController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "LEAD_INVALID_ID", "invalid lead id")
		return
	}

	var dto lead.UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "LEAD_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, r, "LEAD_VALIDATION_FAILED", errs)
		return
	}

	updated, err := c.leads.Update(r.Context(), id, &dto)
	if err != nil {
		switch {
		case errors.Is(err, lead.ErrNotFound):
			writeAPIError(w, r, http.StatusNotFound, "LEAD_NOT_FOUND", "lead not found")
		case errors.Is(err, stage.ErrInvalidReference):
			writeAPIError(w, r, http.StatusBadRequest, "LEAD_INVALID_STAGE", "stage does not exist")
		default:
			writeAPIError(w, r, http.StatusInternalServerError, "LEAD_INTERNAL", "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, mappers.LeadToViewModel(updated))
}

func (c *LeadAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "LEAD_INVALID_ID", "invalid lead id")
		return
	}
	if err := c.leads.Delete(r.Context(), id); err != nil {
		if errors.Is(err, lead.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "LEAD_NOT_FOUND", "lead not found")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "LEAD_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
