package influx

import (
	"context"
	"log/slog"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"sensor-ingest/internal/event"
	"sensor-ingest/internal/model"
)

type pointWriter interface {
	WritePoint(point *write.Point)
}

// Sink mirrors every stored reading into InfluxDB. Clears are not mirrored:
// the time series keeps its history.
type Sink struct {
	writer pointWriter
}

func NewSink(writer pointWriter) *Sink {
	return &Sink{writer: writer}
}

// Run consumes events until ctx is done or the channel is closed.
func (s *Sink) Run(ctx context.Context, events <-chan event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			s.handle(e)
		}
	}
}

func (s *Sink) handle(e event.Event) {
	if e.Type != event.TypeReadingCreated {
		return
	}

	reading, ok := e.Payload.(model.Reading)
	if !ok {
		slog.Warn("influx sink ignored event with unexpected payload", "event_id", e.ID)
		return
	}

	s.writer.WritePoint(readingPoint(reading))
}
