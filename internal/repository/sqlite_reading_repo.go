package repository

import (
	"context"
	"database/sql"
	"fmt"

	"sensor-ingest/internal/model"
)

// SQLiteReadingRepository implements ReadingStore on a SQLite database.
type SQLiteReadingRepository struct {
	db *sql.DB
}

func NewSQLiteReadingRepository(db *sql.DB) *SQLiteReadingRepository {
	return &SQLiteReadingRepository{db: db}
}

func (r *SQLiteReadingRepository) Insert(ctx context.Context, sensorID int64, temperature float64, humidity float64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO readings (sensor_id, temperature, humidity) VALUES (?, ?, ?)`,
		sensorID, temperature, humidity)
	if err != nil {
		return 0, fmt.Errorf("insert reading: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read reading id: %w", err)
	}
	return id, nil
}

func (r *SQLiteReadingRepository) List(ctx context.Context) ([]model.Reading, error) {
	rows, err := r.db.QueryContext(ctx,
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return readings, nil
}

func (r *SQLiteReadingRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM readings`)
	if err != nil {
		return 0, fmt.Errorf("clear readings: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared readings: %w", err)
	}
	return affected, nil
}
