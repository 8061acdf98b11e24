package handler

import (
	"errors"
	"net/http"

	"lexisync/internal/auth"
	"lexisync/internal/domain"
	"lexisync/pkg/response"
)

type AuthHandler struct {
	controller *auth.Controller
}

func NewAuthHandler(controller *auth.Controller) *AuthHandler {
	return &AuthHandler{controller: controller}
}

func (h *AuthHandler) BeginLogin(w http.ResponseWriter, r *http.Request) {
	authz, err := h.controller.Begin(r.Context())
	if err != nil {
		if errors.Is(err, auth.ErrLoginInProgress) {
			response.Conflict(w, err.Error())
			return
		}
		response.BadGateway(w, err.Error())
		return
	}

	response.Accepted(w, &domain.BeginLoginResponse{
		UserCode:        authz.UserCode,
		VerificationURI: authz.VerificationURI,
	})
}

func (h *AuthHandler) CancelLogin(w http.ResponseWriter, r *http.Request) {
	h.controller.Cancel()
	response.Success(w, map[string]string{"message": "login cancelled"})
}

func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	phase, username := h.controller.Status()
	response.Success(w, &domain.AuthStatusResponse{
		Phase:    phase,
		Username: username,
	})
}
