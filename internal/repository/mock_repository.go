package repository

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sensor-ingest/internal/model"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, username string, passwordHash []byte, role string) (int64, error) {
	args := m.Called(ctx, username, passwordHash, role)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserStore) FindByUsername(ctx context.Context, username string) (model.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockReadingStore struct {
	mock.Mock
}

func (m *MockReadingStore) Insert(ctx context.Context, sensorID int64, temperature float64, humidity float64) (int64, error) {
	args := m.Called(ctx, sensorID, temperature, humidity)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReadingStore) List(ctx context.Context) ([]model.Reading, error) {
	args := m.Called(ctx)
	readings, _ := args.Get(0).([]model.Reading)
	return readings, args.Error(1)
}

func (m *MockReadingStore) Clear(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
