package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"

	"github.com/flowcrm/flowcrm/modules/core/domain/aggregates/user"
	"github.com/flowcrm/flowcrm/modules/core/presentation/controllers/dtos"
	"github.com/flowcrm/flowcrm/modules/core/presentation/mappers"
	"github.com/flowcrm/flowcrm/modules/core/services"
	"github.com/flowcrm/flowcrm/pkg/application"
	"github.com/flowcrm/flowcrm/pkg/composables"
	"github.com/flowcrm/flowcrm/pkg/middleware"
)

type ProfileController struct {
	app      application.Application
	users    *services.UserService
	auth     *services.AuthService
	basePath string
}

func NewProfileController(app application.Application) application.Controller {
	return &ProfileController{
		app:      app,
		users:    app.Service(services.UserService{}).(*services.UserService),
		auth:     app.Service(services.AuthService{}).(*services.AuthService),
		basePath: "/api/profile",
	}
}

func (c *ProfileController) Key() string {
	return c.basePath
}

func (c *ProfileController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.Authorize(c.auth), middleware.RequireAuthenticated())
	router.HandleFunc("", c.Get).Methods(http.MethodGet)
	router.HandleFunc("", c.Update).Methods(http.MethodPut)
}

func (c *ProfileController) Get(w http.ResponseWriter, r *http.Request) {
	u, err := composables.UseUser(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusUnauthorized, "AUTH_REQUIRED", "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, mappers.UserToViewModel(u))
}

func (c *ProfileController) Update(w http.ResponseWriter, r *http.Request) {
	var dto dtos.UpdateProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PROFILE_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, r, "PROFILE_VALIDATION_FAILED", errs)
		return
	}

	updated, err := c.users.UpdateProfile(r.Context(), services.UpdateProfileParams{
		Name:            dto.Name,
		Email:           dto.Email,
		CurrentPassword: dto.CurrentPassword,
		NewPassword:     dto.NewPassword,
		AvatarData:      dto.Avatar,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			writeAPIError(w, r, http.StatusConflict, "PROFILE_EMAIL_TAKEN", "email already registered")
		case errors.Is(err, composables.ErrInvalidPassword):
			writeAPIError(w, r, http.StatusBadRequest, "PROFILE_INVALID_PASSWORD", "current password is incorrect")
		case errors.Is(err, services.ErrAvatarFormat):
			writeAPIError(w, r, http.StatusBadRequest, "PROFILE_INVALID_AVATAR", "avatar must be a png or jpeg data url")
		default:
			writeAPIError(w, r, http.StatusInternalServerError, "PROFILE_INTERNAL", "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, mappers.UserToViewModel(updated))
}
