package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"sensor-ingest/internal/model"
	"sensor-ingest/internal/repository"
	"sensor-ingest/pkg/apierror"
)

const DefaultBcryptCost = 12

// AuthService composes the credential store with the token service.
type AuthService struct {
	users      repository.UserStore
	tokens     *TokenService
	bcryptCost int
}

func NewAuthService(users repository.UserStore, tokens *TokenService, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = DefaultBcryptCost
	}

	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// Register stores a new user. An empty role falls back to "user"; any other
// role string is stored verbatim.
func (s *AuthService) Register(ctx context.Context, username string, password string, role string) (int64, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return 0, apierror.Wrap(model.ErrInvalidInput, "INVALID_INPUT", "Usuário e senha são obrigatórios", http.StatusBadRequest)
	}
	if role == "" {
		role = model.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return 0, apierror.Wrap(model.ErrInvalidInput, "INVALID_INPUT", "Senha deve ter no máximo 72 bytes", http.StatusBadRequest)
	}
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.users.Create(ctx, username, hash, role)
	if errors.Is(err, model.ErrUserAlreadyExists) {
		return 0, apierror.Wrap(err, "DUPLICATE_USER", "Usuário já existe", http.StatusBadRequest)
	}
	if err != nil {
		return 0, err
	}

	return id, nil
}

// Login checks the credentials and issues a bearer token. Unknown users and
// wrong passwords are reported identically.
func (s *AuthService) Login(ctx context.Context, username string, password string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return "", badCredentials()
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", badCredentials()
	}

	token, _, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", err
	}

	return token, nil
}

func (s *AuthService) VerifyToken(token string) (*model.AuthClaims, error) {
	return s.tokens.Verify(token)
}

func badCredentials() error {
	return apierror.Wrap(model.ErrInvalidCredentials, "BAD_CREDENTIALS", "Usuário ou senha incorretos", http.StatusBadRequest)
}
