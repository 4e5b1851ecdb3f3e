package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sensor-ingest/internal/model"
)

type verifierFunc func(token string) (*model.AuthClaims, error)

func (f verifierFunc) Verify(token string) (*model.AuthClaims, error) {
	return f(token)
}

func stubVerifier() verifierFunc {
	return func(token string) (*model.AuthClaims, error) {
		switch token {
		case "admin-token":
			return &model.AuthClaims{UserID: 1, Role: model.RoleAdmin}, nil
		case "user-token":
			return &model.AuthClaims{UserID: 2, Role: model.RoleUser}, nil
		case "old-token":
			return nil, fmt.Errorf("%w: token is expired", model.ErrTokenExpired)
		default:
			return nil, model.ErrTokenInvalid
		}
	}
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body model.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	mw := NewAuthMiddleware(stubVerifier())
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(claims.Role))
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "no header", header: "", wantStatus: http.StatusUnauthorized, wantBody: msgMissingToken},
		{name: "scheme without token", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantBody: msgMissingToken},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized, wantBody: msgMissingToken},
		{name: "bare token", header: "admin-token", wantStatus: http.StatusUnauthorized, wantBody: msgMissingToken},
		{name: "expired", header: "Bearer old-token", wantStatus: http.StatusUnauthorized, wantBody: msgExpiredToken},
		{name: "garbage", header: "Bearer abc.def.ghi", wantStatus: http.StatusForbidden, wantBody: msgInvalidToken},
		{name: "valid", header: "Bearer user-token", wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer admin-token", wantStatus: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/dados-sensores", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantBody != "" {
				require.Equal(t, tc.wantBody, decodeMessage(t, rec))
			}
		})
	}
}

func TestRequireRoleExactMatch(t *testing.T) {
	t.Parallel()

	mw := NewAuthMiddleware(stubVerifier())
	reached := 0
	handler := mw.RequireAuth(mw.RequireRole(model.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/dados-sensores", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, msgInsufficientRole, decodeMessage(t, rec))
	require.Zero(t, reached)

	req = httptest.NewRequest(http.MethodGet, "/dados-sensores", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, reached)
}

func TestRequireRoleWithoutClaims(t *testing.T) {
	t.Parallel()

	mw := NewAuthMiddleware(stubVerifier())
	handler := mw.RequireRole(model.RoleAdmin)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dados-sensores", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateReading(t *testing.T) {
	t.Parallel()

	var got model.ReadingInput
	handler := ValidateReading(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		input, ok := ReadingInputFromContext(r.Context())
		require.True(t, ok)
		got = input
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/dados-sensores", strings.NewReader(`{"sensor_id": 2, "temperatura": 25.5, "umidade": 55}`))
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, model.ReadingInput{SensorID: 2, Temperature: 25.5, Humidity: 55}, got)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/dados-sensores", strings.NewReader(`{"sensor_id": "x", "temperatura": "hot"}`))
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "ID do sensor é obrigatório e deve ser um número.", decodeMessage(t, rec))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/dados-sensores", strings.NewReader(`not json`))
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRecoveryWritesInternalError(t *testing.T) {
	t.Parallel()

	handler := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Erro interno no servidor", decodeMessage(t, rec))
}
