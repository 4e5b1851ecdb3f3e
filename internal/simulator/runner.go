package simulator

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const DefaultInterval = 5 * time.Second

type Runner struct {
	generator *Generator
	sender    Sender
	interval  time.Duration
}

func NewRunner(generator *Generator, sender Sender, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{generator: generator, sender: sender, interval: interval}
}

// Run sends one reading immediately and then one per interval until ctx is
// cancelled. Failures are logged and never stop the loop.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.tick(ctx)

		select {
		case <-ctx.Done():
			slog.Info("simulator stopped")
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	payload := r.generator.Next()
	attrs := []any{
		"sensor_id", payload.SensorID,
		"temperatura", payload.Temperature,
		"umidade", payload.Humidity,
	}

	err := r.sender.Send(ctx, payload)

	var statusErr *StatusError
	switch {
	case err == nil:
		slog.Info("reading sent", attrs...)
	case errors.As(err, &statusErr):
		slog.Warn("reading rejected", append(attrs, "status", statusErr.StatusCode, "body", statusErr.Body)...)
	case ctx.Err() != nil:
	default:
		slog.Error("reading send failed", append(attrs, "error", err)...)
	}
}
