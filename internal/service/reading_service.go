package service

import (
	"context"
	"time"

	"sensor-ingest/internal/event"
	"sensor-ingest/internal/metrics"
	"sensor-ingest/internal/model"
	"sensor-ingest/internal/repository"
)

const (
	SourceHTTP = "http"
	SourceMQTT = "mqtt"
)

type ReadingService struct {
	readings repository.ReadingStore
	bus      event.Bus
	now      func() time.Time
}

func NewReadingService(readings repository.ReadingStore, bus event.Bus) *ReadingService {
	return &ReadingService{readings: readings, bus: bus, now: time.Now}
}

// Ingest persists an already validated reading and announces it on the bus.
func (s *ReadingService) Ingest(ctx context.Context, input model.ReadingInput, source string, actorID int64) (int64, error) {
	id, err := s.readings.Insert(ctx, input.SensorID, input.Temperature, input.Humidity)
	if err != nil {
		return 0, err
	}

	metrics.ReadingsIngested.WithLabelValues(source).Inc()
	s.publish(event.TypeReadingCreated, model.Reading{
		ID:          id,
		SensorID:    input.SensorID,
		Temperature: input.Temperature,
		Humidity:    input.Humidity,
		RecordedAt:  s.now().UTC(),
	}, actorID)

	return id, nil
}

func (s *ReadingService) List(ctx context.Context) ([]model.Reading, error) {
	return s.readings.List(ctx)
}

func (s *ReadingService) Clear(ctx context.Context, actorID int64) (int64, error) {
	cleared, err := s.readings.Clear(ctx)
	if err != nil {
		return 0, err
	}

	metrics.ReadingsCleared.Add(float64(cleared))
	s.publish(event.TypeReadingsCleared, map[string]int64{"cleared": cleared}, actorID)

	return cleared, nil
}

func (s *ReadingService) ChartFeed(ctx context.Context) (model.ChartFeed, error) {
	readings, err := s.readings.List(ctx)
	if err != nil {
		return model.ChartFeed{}, err
	}

	return model.NewChartFeed(readings), nil
}

func (s *ReadingService) publish(eventType event.Type, payload any, actorID int64) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(event.Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		ActorID:   actorID,
	})
}
