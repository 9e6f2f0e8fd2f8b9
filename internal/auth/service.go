package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplight/shoplight-backend/internal/users"
	pkgauth "github.com/shoplight/shoplight-backend/pkg/auth"
	"github.com/shoplight/shoplight-backend/pkg/auth/session"
	"github.com/shoplight/shoplight-backend/pkg/config"
	"github.com/shoplight/shoplight-backend/pkg/db"
	"github.com/shoplight/shoplight-backend/pkg/db/models"
	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
	"github.com/shoplight/shoplight-backend/pkg/security"
)

const emailUniqueConstraint = "idx_users_email"

type userRepo interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service owns registration, login, token refresh, and logout.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (SessionDTO, error)
	Login(ctx context.Context, input LoginInput) (SessionDTO, error)
	Refresh(ctx context.Context, input RefreshInput) (SessionDTO, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	repo     userRepo
	sessions sessionManager
	jwt      config.JWTConfig
	password config.PasswordConfig
}

// NewService wires the auth flow.
func NewService(repo userRepo, sessions sessionManager, jwt config.JWTConfig, password config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if jwt.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{repo: repo, sessions: sessions, jwt: jwt, password: password}, nil
}

// Register creates the account and signs the user straight in.
func (s *service) Register(ctx context.Context, input RegisterInput) (SessionDTO, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return SessionDTO{}, err
	}
	if len(input.Password) < 8 {
		return SessionDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	displayName := users.TitleCaseName(input.DisplayName)
	if displayName == "" {
		return SessionDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		if db.IsUniqueViolation(err, emailUniqueConstraint) {
			return SessionDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return s.issueSession(ctx, &user)
}

// Login verifies credentials and issues a fresh session. Unknown emails
// and wrong passwords produce the same response.
func (s *service) Login(ctx context.Context, input LoginInput) (SessionDTO, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return SessionDTO{}, err
	}
	if input.Password == "" {
		return SessionDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionDTO{}, invalidCredentials()
		}
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return SessionDTO{}, invalidCredentials()
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp login")
	}

	return s.issueSession(ctx, user)
}

// Refresh rotates the refresh token and mints a new access token. The
// expired access token supplies the user identity; its signature is still
// verified.
func (s *service) Refresh(ctx context.Context, input RefreshInput) (SessionDTO, error) {
	if input.AccessToken == "" || input.RefreshToken == "" {
		return SessionDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "access and refresh tokens are required")
	}

	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwt, input.AccessToken)
	if err != nil {
		return SessionDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	if claims.ID == "" {
		return SessionDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, refreshToken, err := s.sessions.Rotate(ctx, claims.ID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return SessionDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	accessToken, err := pkgauth.MintAccessToken(s.jwt, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		JTI:         newAccessID,
	})
	if err != nil {
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return SessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: UserDTO{
			ID:          claims.UserID,
			DisplayName: claims.DisplayName,
		},
	}, nil
}

// Logout revokes the server-side session. The access token dies with it
// even before its expiry.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) issueSession(ctx context.Context, user *models.User) (SessionDTO, error) {
	accessID := session.NewAccessID()

	accessToken, err := pkgauth.MintAccessToken(s.jwt, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		JTI:         accessID,
	})
	if err != nil {
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refreshToken, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return SessionDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	return SessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: UserDTO{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			CreatedAt:   user.CreatedAt,
		},
	}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	return email, nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}
