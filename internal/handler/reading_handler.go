package handler

import (
	"net/http"

	"sensor-ingest/internal/middleware"
	"sensor-ingest/internal/model"
	"sensor-ingest/internal/service"
	"sensor-ingest/pkg/apierror"
)

type ReadingHandler struct {
	service *service.ReadingService
}

func NewReadingHandler(service *service.ReadingService) *ReadingHandler {
	return &ReadingHandler{service: service}
}

// Create expects RequireAuth and ValidateReading to have run.
func (h *ReadingHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := middleware.ReadingInputFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Wrap(model.ErrInvalidInput, "INVALID_INPUT", "Corpo da requisição inválido.", http.StatusBadRequest))
		return
	}

	var actorID int64
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		actorID = claims.UserID
	}

	if _, err := h.service.Ingest(r.Context(), input, service.SourceHTTP, actorID); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusCreated, "Dados inseridos com sucesso")
}

// List answers with positional rows: [id, sensor_id, temperatura, umidade, timestamp].
func (h *ReadingHandler) List(w http.ResponseWriter, r *http.Request) {
	readings, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	rows := make([][]any, 0, len(readings))
	for _, reading := range readings {
		rows = append(rows, reading.Row())
	}

	writeJSON(w, http.StatusOK, rows)
}

func (h *ReadingHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var actorID int64
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		actorID = claims.UserID
	}

	if _, err := h.service.Clear(r.Context(), actorID); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Dados limpos com sucesso")
}

func (h *ReadingHandler) ChartFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.service.ChartFeed(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, feed)
}
