package influx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/require"

	"sensor-ingest/internal/event"
	"sensor-ingest/internal/model"
)

type recordingWriter struct {
	points []*write.Point
}

func (w *recordingWriter) WritePoint(point *write.Point) {
	w.points = append(w.points, point)
}

func TestReadingPointLineProtocol(t *testing.T) {
	recorded := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	point := readingPoint(model.Reading{ID: 3, SensorID: 2, Temperature: 25.5, Humidity: 60, RecordedAt: recorded})

	line := write.PointToLineProtocol(point, time.Second)
	require.Equal(t, "sensor_readings,sensor_id=2 temperatura=25.5,umidade=60 1717236000", strings.TrimSpace(line))
}

func TestSinkWritesOnlyCreatedReadings(t *testing.T) {
	writer := &recordingWriter{}
	sink := NewSink(writer)

	events := make(chan event.Event, 3)
	events <- event.Event{Type: event.TypeReadingCreated, Payload: model.Reading{SensorID: 1, Temperature: 20, Humidity: 40, RecordedAt: time.Unix(0, 0)}}
	events <- event.Event{Type: event.TypeReadingsCleared, Payload: map[string]int64{"cleared": 1}}
	events <- event.Event{Type: event.TypeReadingCreated, Payload: "not a reading"}
	close(events)

	sink.Run(context.Background(), events)

	require.Len(t, writer.points, 1)
	require.Equal(t, Measurement, writer.points[0].Name())
}

func TestSinkStopsOnCancel(t *testing.T) {
	sink := NewSink(&recordingWriter{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		sink.Run(ctx, make(chan event.Event))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sink did not stop after cancel")
	}
}

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(Config{})
	require.ErrorIs(t, err, ErrDisabled)
}
