package service

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sensor-ingest/internal/database"
	"sensor-ingest/internal/model"
	"sensor-ingest/internal/repository"
	"sensor-ingest/pkg/apierror"
)

func newSQLiteAuthService(t *testing.T) (*AuthService, *repository.SQLiteUserRepository) {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(context.Background()))

	tokens, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	users := repository.NewSQLiteUserRepository(db.DB)
	return NewAuthService(users, tokens, bcrypt.MinCost), users
}

func requireAPIStatus(t *testing.T, err error, status int) {
	t.Helper()

	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	require.Equal(t, status, apiErr.HTTPStatus)
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, users := newSQLiteAuthService(t)

	id, err := svc.Register(ctx, "operador", "senha-forte", "")
	require.NoError(t, err)

	stored, err := users.FindByUsername(ctx, "operador")
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, stored.Role)
	require.NotEqual(t, []byte("senha-forte"), stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("senha-forte")))

	token, err := svc.Login(ctx, "operador", "senha-forte")
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, id, claims.UserID)
	require.Equal(t, model.RoleUser, claims.Role)
}

func TestAuthServiceRejectsDuplicateWithoutMutation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, users := newSQLiteAuthService(t)

	_, err := svc.Register(ctx, "admin", "primeira", model.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "admin", "segunda", model.RoleUser)
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)
	requireAPIStatus(t, err, http.StatusBadRequest)

	count, err := users.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	stored, err := users.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, stored.Role)
	require.NoError(t, bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("primeira")))
}

func TestAuthServiceValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newSQLiteAuthService(t)

	_, err := svc.Register(ctx, "  ", "senha", "")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Register(ctx, "sem-senha", "", "")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	tooLong := make([]byte, 73)
	for i := range tooLong {
		tooLong[i] = 'a'
	}
	_, err = svc.Register(ctx, "longa", string(tooLong), "")
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestAuthServiceBadCredentials(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newSQLiteAuthService(t)

	_, err := svc.Register(ctx, "leitor", "correta", "")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "leitor", "errada")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
	requireAPIStatus(t, err, http.StatusBadRequest)
	require.Empty(t, token)

	token, err = svc.Login(ctx, "desconhecido", "qualquer")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
	require.Empty(t, token)
}

func TestAuthServicePropagatesStoreFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tokens, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	users := &repository.MockUserStore{}
	storeErr := errors.New("connection reset")
	users.On("FindByUsername", mock.Anything, "operador").Return(model.User{}, storeErr)
	users.On("Create", mock.Anything, "novo", mock.Anything, model.RoleUser).Return(int64(0), storeErr)

	svc := NewAuthService(users, tokens, bcrypt.MinCost)

	_, err = svc.Login(ctx, "operador", "senha")
	require.ErrorIs(t, err, storeErr)
	var apiErr *apierror.APIError
	require.False(t, errors.As(err, &apiErr))

	_, err = svc.Register(ctx, "novo", "senha", "")
	require.ErrorIs(t, err, storeErr)

	users.AssertExpectations(t)
}
