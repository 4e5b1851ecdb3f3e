package handler

import (
	"encoding/json"
	"net/http"

	"sensor-ingest/internal/model"
	"sensor-ingest/internal/service"
	"sensor-ingest/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Wrap(model.ErrInvalidInput, "INVALID_INPUT", "Corpo da requisição inválido.", http.StatusBadRequest))
		return
	}

	if _, err := h.service.Register(r.Context(), payload.Username, payload.Password, payload.Role); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusCreated, "Usuário cadastrado com sucesso")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Wrap(model.ErrInvalidInput, "INVALID_INPUT", "Corpo da requisição inválido.", http.StatusBadRequest))
		return
	}

	token, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.LoginResponse{
		Message: "Login realizado com sucesso",
		Token:   token,
	})
}
