package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	coreservices "github.com/flowcrm/flowcrm/modules/core/services"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/stage"
	"github.com/flowcrm/flowcrm/modules/crm/presentation/mappers"
	"github.com/flowcrm/flowcrm/modules/crm/presentation/viewmodels"
	"github.com/flowcrm/flowcrm/modules/crm/services"
	"github.com/flowcrm/flowcrm/pkg/application"
	"github.com/flowcrm/flowcrm/pkg/middleware"
)

type StageAPIController struct {
	app      application.Application
	stages   *services.StageService
	auth     *coreservices.AuthService
	basePath string
}

func NewStageAPIController(app application.Application) application.Controller {
	return &StageAPIController{
		app:      app,
		stages:   app.Service(services.StageService{}).(*services.StageService),
		auth:     app.Service(coreservices.AuthService{}).(*coreservices.AuthService),
		basePath: "/api/stages",
	}
}

func (c *StageAPIController) Key() string {
	return c.basePath
}

func (c *StageAPIController) Register(r *mux.Router) {
	commonMiddleware := []mux.MiddlewareFunc{
		middleware.Authorize(c.auth),
		middleware.RequireAuthenticated(),
	}

	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(commonMiddleware...)
	router.HandleFunc("", instrumentAPI("stages.list", c.List)).Methods(http.MethodGet)

	writeRouter := r.PathPrefix(c.basePath).Subrouter()
	writeRouter.Use(commonMiddleware...)
	writeRouter.Use(middleware.WithTransaction())
	writeRouter.HandleFunc("", instrumentAPI("stages.update", c.UpdateBatch)).Methods(http.MethodPatch)
}

func (c *StageAPIController) List(w http.ResponseWriter, r *http.Request) {
	stages, err := c.stages.List(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "STAGE_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stages": stageViewModels(stages)})
}

func (c *StageAPIController) UpdateBatch(w http.ResponseWriter, r *http.Request) {
	var dto stage.UpdateBatchDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "STAGE_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, r, "STAGE_VALIDATION_FAILED", errs)
		return
	}

	updates := make([]stage.Update, 0, len(dto.Stages))
	for _, s := range dto.Stages {
		updates = append(updates, stage.Update{
			ID:    uuid.MustParse(s.ID),
			Name:  s.Name,
			Order: s.Order,
		})
	}

	stages, err := c.stages.UpdateBatch(r.Context(), updates)
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "STAGE_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stages": stageViewModels(stages)})
}

func stageViewModels(stages []stage.Stage) []viewmodels.Stage {
	out := make([]viewmodels.Stage, 0, len(stages))
	for _, s := range stages {
		out = append(out, mappers.StageToViewModel(s))
	}
	return out
}
