package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sensor-ingest/internal/metrics"
	"sensor-ingest/internal/model"
	"sensor-ingest/internal/service"
)

const (
	ingestQoS     = 1
	ingestTimeout = 5 * time.Second
)

type tokenVerifier interface {
	Verify(token string) (*model.AuthClaims, error)
}

type readingIngester interface {
	Ingest(ctx context.Context, input model.ReadingInput, source string, actorID int64) (int64, error)
}

type subscriber interface {
	Subscribe(topic string, qos byte, handler MessageHandler) error
}

// IngestBridge feeds readings published on the broker into the same ingest
// path as POST /dados-sensores. Each message carries its own bearer token.
type IngestBridge struct {
	verifier tokenVerifier
	readings readingIngester
}

func NewIngestBridge(verifier tokenVerifier, readings readingIngester) *IngestBridge {
	return &IngestBridge{verifier: verifier, readings: readings}
}

func (b *IngestBridge) Start(client subscriber, topic string) error {
	if err := client.Subscribe(topic, ingestQoS, b.handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	slog.Info("mqtt ingest bridge subscribed", "topic", topic)
	return nil
}

func (b *IngestBridge) handle(topic string, payload []byte) error {
	var envelope struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Token == "" {
		metrics.ReadingsRejected.WithLabelValues(service.SourceMQTT, "token").Inc()
		return model.ErrMissingToken
	}

	claims, err := b.verifier.Verify(envelope.Token)
	if err != nil {
		metrics.ReadingsRejected.WithLabelValues(service.SourceMQTT, "token").Inc()
		return err
	}

	input, err := model.ParseReadingInput(payload)
	if err != nil {
		field := "body"
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			field = validationErr.Field
		}
		metrics.ReadingsRejected.WithLabelValues(service.SourceMQTT, field).Inc()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	id, err := b.readings.Ingest(ctx, input, service.SourceMQTT, claims.UserID)
	if err != nil {
		return fmt.Errorf("ingest reading: %w", err)
	}

	slog.Debug("mqtt reading stored", "topic", topic, "id", id, "sensor_id", input.SensorID)
	return nil
}
