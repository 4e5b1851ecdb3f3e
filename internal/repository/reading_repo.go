package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"sensor-ingest/internal/model"
)

type ReadingRepository struct {
	pool *pgxpool.Pool
}

func NewReadingRepository(pool *pgxpool.Pool) *ReadingRepository {
	return &ReadingRepository{pool: pool}
}

func (r *ReadingRepository) Insert(ctx context.Context, sensorID int64, temperature float64, humidity float64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO readings (sensor_id, temperature, humidity) VALUES ($1, $2, $3) RETURNING id`,
		sensorID, temperature, humidity).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert reading: %w", err)
	}
	return id, nil
}

func (r *ReadingRepository) List(ctx context.Context) ([]model.Reading, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, sensor_id, temperature, humidity, timestamp FROM readings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	readings := make([]model.Reading, 0)
	for rows.Next() {
		var rd model.Reading
		if err := rows.Scan(&rd.ID, &rd.SensorID, &rd.Temperature, &rd.Humidity, &rd.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, rd)
	}
	return readings, rows.Err()
}

func (r *ReadingRepository) Clear(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM readings`)
	if err != nil {
		return 0, fmt.Errorf("clear readings: %w", err)
	}
	return tag.RowsAffected(), nil
}
