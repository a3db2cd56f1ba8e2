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
	"github.com/flowcrm/flowcrm/pkg/configuration"
	"github.com/flowcrm/flowcrm/pkg/middleware"
)

type AuthController struct {
	app      application.Application
	auth     *services.AuthService
	basePath string
}

func NewAuthController(app application.Application) application.Controller {
	return &AuthController{
		app:      app,
		auth:     app.Service(services.AuthService{}).(*services.AuthService),
		basePath: "/api/auth",
	}
}

func (c *AuthController) Key() string {
	return c.basePath
}

func (c *AuthController) Register(r *mux.Router) {
	conf := configuration.Use()

	public := r.PathPrefix(c.basePath).Subrouter()
	if conf.RateLimit.Enabled {
		public.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerPeriod: conf.RateLimit.AuthRPM,
		}))
	}
	public.HandleFunc("/register", c.RegisterUser).Methods(http.MethodPost)
	public.HandleFunc("/login", c.Login).Methods(http.MethodPost)

	reset := r.PathPrefix(c.basePath + "/reset-password").Subrouter()
	if conf.RateLimit.Enabled {
		reset.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerPeriod: conf.RateLimit.ResetRPM,
		}))
	}
	reset.HandleFunc("/request", c.RequestPasswordReset).Methods(http.MethodPost)
	reset.HandleFunc("/confirm", c.ConfirmPasswordReset).Methods(http.MethodPost)

	private := r.PathPrefix(c.basePath).Subrouter()
	private.Use(middleware.Authorize(c.auth), middleware.RequireAuthenticated())
	private.HandleFunc("/me", c.Me).Methods(http.MethodGet)
	private.HandleFunc("/logout", c.Logout).Methods(http.MethodPost)
}

func (c *AuthController) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var dto dtos.RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "AUTH_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, r, "AUTH_VALIDATION_FAILED", errs)
		return
	}

	u, sess, err := c.auth.Register(r.Context(), services.RegisterParams{
		Name:     dto.Name,
		Email:    dto.Email,
		Password: dto.Password,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			writeAPIError(w, r, http.StatusConflict, "AUTH_EMAIL_TAKEN", "email already registered")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "AUTH_INTERNAL", "internal error")
		return
	}

	http.SetCookie(w, c.auth.Cookie(sess))
	writeJSON(w, http.StatusCreated, mappers.UserToViewModel(u))
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var dto dtos.LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "AUTH_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, r, "AUTH_VALIDATION_FAILED", errs)
		return
	}

	u, sess, err := c.auth.Authenticate(r.Context(), dto.Email, dto.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeAPIError(w, r, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS", "invalid email or password")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "AUTH_INTERNAL", "internal error")
		return
	}

	http.SetCookie(w, c.auth.Cookie(sess))
	writeJSON(w, http.StatusOK, mappers.UserToViewModel(u))
}

func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	conf := configuration.Use()
	if cookie, err := r.Cookie(conf.SidCookieKey); err == nil && cookie.Value != "" {
		if err := c.auth.Logout(r.Context(), cookie.Value); err != nil {
			composables.UseLogger(r.Context()).WithError(err).Warn("failed to delete session")
		}
	}
	http.SetCookie(w, c.auth.ExpiredCookie())
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	u, err := composables.UseUser(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusUnauthorized, "AUTH_REQUIRED", "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, mappers.UserToViewModel(u))
}

// RequestPasswordReset always answers 200 so the endpoint cannot be used to
// probe which addresses have accounts.
func (c *AuthController) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var dto dtos.RequestPasswordResetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "AUTH_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, r, "AUTH_VALIDATION_FAILED", errs)
		return
	}
	if err := c.auth.RequestPasswordReset(r.Context(), dto.Email); err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "AUTH_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (c *AuthController) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var dto dtos.ConfirmPasswordResetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "AUTH_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, r, "AUTH_VALIDATION_FAILED", errs)
		return
	}
	if err := c.auth.ConfirmPasswordReset(r.Context(), dto.Token, dto.Password); err != nil {
		if errors.Is(err, services.ErrInvalidResetToken) {
			writeAPIError(w, r, http.StatusBadRequest, "AUTH_INVALID_RESET_TOKEN", "invalid or expired reset token")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "AUTH_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
