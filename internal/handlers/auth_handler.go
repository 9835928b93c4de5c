package handlers

import (
	"errors"
	"net/http"

	"storefront-admin/internal/backend"
	"storefront-admin/internal/flash"
	"storefront-admin/internal/middleware"
	"storefront-admin/internal/models"
	"storefront-admin/internal/services"
	"storefront-admin/internal/session"
	"storefront-admin/internal/validation"

	"github.com/rs/zerolog"
)

type loginData struct {
	Email    string
	Password string
	Remember bool
}

type AuthHandler struct {
	loginService *services.LoginService
	view         *Renderer
	flash        *flash.Codec
	logger       zerolog.Logger
}

func NewAuthHandler(loginService *services.LoginService, view *Renderer, codec *flash.Codec, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		loginService: loginService,
		view:         view,
		flash:        codec,
		logger:       logger,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.GetSession(r)
	if !ok {
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}
	if store.State() == session.Authenticated {
		http.Redirect(w, r, "/add", http.StatusSeeOther)
		return
	}

	saved := store.Remembered()
	h.view.Render(w, http.StatusOK, "login", Page{
		Title:  "Login",
		Notice: h.flash.Pop(w, r),
		Data: loginData{
			Email:    saved.Email,
			Password: saved.Password,
			Remember: !saved.IsZero(),
		},
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.GetSession(r)
	if !ok {
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, http.StatusBadRequest, loginData{}, errorNotice("Invalid request body"))
		return
	}

	req := models.LoginRequest{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	remember := r.PostFormValue("remember") == "on"
	form := loginData{Email: req.Email, Remember: remember}

	err := h.loginService.Login(r.Context(), store, req, remember)
	if err == nil {
		redirectWithFlash(w, r, h.flash, h.logger, "/add", flash.Flash{Kind: flash.KindSuccess, Message: "Login successful!"})
		return
	}

	var fieldErrs validation.FieldErrors
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &fieldErrs):
		h.renderLogin(w, http.StatusUnprocessableEntity, form, errorNotice("Please enter both email and password."))
	case errors.Is(err, services.ErrNoTokenIssued):
		h.renderLogin(w, http.StatusOK, form, &flash.Flash{Kind: flash.KindWarning, Message: "Login succeeded, but no token was received."})
	case errors.As(err, &apiErr):
		h.renderLogin(w, http.StatusUnauthorized, form, errorNotice(userMessage(err, "Invalid email or password")))
	default:
		h.renderLogin(w, http.StatusBadGateway, form, errorNotice("Something went wrong. Please try again."))
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.GetSession(r)
	if !ok {
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}
	if err := h.loginService.Logout(r.Context(), store); err != nil {
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}
	redirectWithFlash(w, r, h.flash, h.logger, "/login", flash.Flash{Kind: flash.KindInfo, Message: "Logged out."})
}

// Session reports the browser's session state as JSON.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.GetSession(r)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Session unavailable")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": store.State() == session.Authenticated,
		"state":         store.State().String(),
		"email":         store.Remembered().Email,
	})
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, status int, data loginData, notice *flash.Flash) {
	h.view.Render(w, status, "login", Page{
		Title:  "Login",
		Notice: notice,
		Data:   data,
	})
}
