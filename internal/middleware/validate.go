package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"

	"sensor-ingest/internal/metrics"
	"sensor-ingest/internal/model"
)

const (
	readingInputContextKey contextKey = "reading_input"
	maxReadingBodyBytes               = 64 << 10
)

// ValidateReading parses the ingest body before it reaches the handler, so a
// rejected reading never touches the store.
func ValidateReading(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReadingBodyBytes))
		if err != nil {
			metrics.ReadingsRejected.WithLabelValues("http", "body").Inc()
			writeMessage(w, http.StatusBadRequest, "Corpo da requisição inválido.")
			return
		}

		input, err := model.ParseReadingInput(body)
		if err != nil {
			var validationErr *model.ValidationError
			if errors.As(err, &validationErr) {
				metrics.ReadingsRejected.WithLabelValues("http", validationErr.Field).Inc()
				writeMessage(w, http.StatusBadRequest, validationErr.Message)
				return
			}
			writeMessage(w, http.StatusBadRequest, "Corpo da requisição inválido.")
			return
		}

		ctx := context.WithValue(r.Context(), readingInputContextKey, input)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ReadingInputFromContext(ctx context.Context) (model.ReadingInput, bool) {
	input, ok := ctx.Value(readingInputContextKey).(model.ReadingInput)
	return input, ok
}
