package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"sensor-ingest/internal/model"
	"sensor-ingest/pkg/apierror"
)

const msgInternalError = "Erro interno no servidor"

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.MessageResponse{Message: message})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := msgInternalError

	var validationErr *model.ValidationError
	var apiErr *apierror.APIError
	if errors.As(err, &validationErr) {
		status = http.StatusBadRequest
		message = validationErr.Message
	} else if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		message = apiErr.Message
	} else if errors.Is(err, model.ErrUserAlreadyExists) {
		status = http.StatusBadRequest
		message = "Usuário já existe"
	} else if errors.Is(err, model.ErrInvalidCredentials) {
		status = http.StatusBadRequest
		message = "Usuário ou senha incorretos"
	} else if errors.Is(err, model.ErrMissingToken) {
		status = http.StatusUnauthorized
		message = "Token não fornecido"
	} else if errors.Is(err, model.ErrTokenExpired) {
		status = http.StatusUnauthorized
		message = "Token expirado"
	} else if errors.Is(err, model.ErrTokenInvalid) {
		status = http.StatusForbidden
		message = "Token inválido"
	} else if errors.Is(err, model.ErrForbidden) {
		status = http.StatusForbidden
		message = "Acesso negado, role insuficiente"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		message = "Corpo da requisição inválido."
	} else {
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeMessage(w, status, message)
}
