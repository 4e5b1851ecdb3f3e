package repository

import (
	"context"

	"sensor-ingest/internal/model"
)

// UserStore persists credentials. Users are never updated or deleted.
type UserStore interface {
	Create(ctx context.Context, username string, passwordHash []byte, role string) (int64, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	Count(ctx context.Context) (int, error)
}

// ReadingStore persists sensor readings in insertion order.
type ReadingStore interface {
	Insert(ctx context.Context, sensorID int64, temperature float64, humidity float64) (int64, error)
	List(ctx context.Context) ([]model.Reading, error)
	Clear(ctx context.Context) (int64, error)
}
