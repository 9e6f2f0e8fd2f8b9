package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/shoplight/shoplight-backend/pkg/auth"
	"github.com/shoplight/shoplight-backend/pkg/auth/session"
	"github.com/shoplight/shoplight-backend/pkg/config"
	"github.com/shoplight/shoplight-backend/pkg/db/models"
	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
	created []*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: map[string]*models.User{}}
}

func (s *stubUserRepo) Create(_ context.Context, user *models.User) error {
	if _, exists := s.byEmail[user.Email]; exists {
		return &duplicateEmailError{}
	}
	s.byEmail[user.Email] = user
	s.created = append(s.created, user)
	return nil
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	for _, user := range s.byEmail {
		if user.ID == id {
			user.LastLoginAt = &at
		}
	}
	return nil
}

type duplicateEmailError struct{}

func (e *duplicateEmailError) Error() string {
	return `duplicate key value violates unique constraint "idx_users_email"`
}

type stubSessions struct {
	generated map[string]string
	revoked   []string
	rotateErr error
}

func newStubSessions() *stubSessions {
	return &stubSessions{generated: map[string]string{}}
}

func (s *stubSessions) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.generated[accessID] = token
	return token, nil
}

func (s *stubSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	stored, ok := s.generated[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.generated, oldAccessID)
	newAccessID := session.NewAccessID()
	token := "refresh-" + newAccessID
	s.generated[newAccessID] = token
	return newAccessID, token, nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	delete(s.generated, accessID)
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "shoplight-test", ExpirationMinutes: 15}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func newTestService(t *testing.T, repo *stubUserRepo, sessions *stubSessions) Service {
	t.Helper()
	svc, err := NewService(repo, sessions, testJWTConfig(), testPasswordConfig())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRegisterCreatesAccountAndSession(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessions()
	svc := newTestService(t, repo, sessions)

	dto, err := svc.Register(context.Background(), RegisterInput{
		Email:       "  Asha@Example.COM ",
		Password:    "correct horse",
		DisplayName: "asha rao",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if dto.User.Email != "asha@example.com" {
		t.Fatalf("expected normalized email, got %q", dto.User.Email)
	}
	if dto.User.DisplayName != "Asha Rao" {
		t.Fatalf("expected title-cased name, got %q", dto.User.DisplayName)
	}
	if dto.AccessToken == "" || dto.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if len(repo.created) != 1 || repo.created[0].PasswordHash == "correct horse" {
		t.Fatal("expected hashed password persisted")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), dto.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != dto.User.ID {
		t.Fatal("access token must carry the user id")
	}
	if _, ok := sessions.generated[claims.ID]; !ok {
		t.Fatal("expected refresh session stored under the token jti")
	}
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	svc := newTestService(t, newStubUserRepo(), newStubSessions())

	cases := []RegisterInput{
		{Email: "not-an-email", Password: "longenough", DisplayName: "Asha"},
		{Email: "asha@example.com", Password: "short", DisplayName: "Asha"},
		{Email: "asha@example.com", Password: "longenough", DisplayName: "   "},
	}
	for _, input := range cases {
		_, err := svc.Register(context.Background(), input)
		if err == nil {
			t.Fatalf("expected rejection of %+v", input)
		}
		var appErr *pkgerrors.Error
		if !pkgerrors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo, newStubSessions())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "asha@example.com", Password: "correct horse", DisplayName: "Asha Rao",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterInput{
		Email: "asha@example.com", Password: "correct horse", DisplayName: "Asha Rao",
	})
	if err == nil {
		t.Fatal("expected duplicate email rejection")
	}
	var appErr *pkgerrors.Error
	if !pkgerrors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessions()
	svc := newTestService(t, repo, sessions)

	if _, err := svc.Register(context.Background(), RegisterInput{
		Email: "asha@example.com", Password: "correct horse", DisplayName: "Asha Rao",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	dto, err := svc.Login(context.Background(), LoginInput{Email: "asha@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if dto.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if repo.byEmail["asha@example.com"].LastLoginAt == nil {
		t.Fatal("expected last login stamped")
	}

	_, err = svc.Login(context.Background(), LoginInput{Email: "asha@example.com", Password: "wrong"})
	var appErr *pkgerrors.Error
	if !pkgerrors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}

	_, err = svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever"})
	if !pkgerrors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessions()
	svc := newTestService(t, repo, sessions)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Email: "asha@example.com", Password: "correct horse", DisplayName: "Asha Rao",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  registered.AccessToken,
		RefreshToken: registered.RefreshToken,
	})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.AccessToken == registered.AccessToken {
		t.Fatal("expected a new access token")
	}
	if refreshed.RefreshToken == registered.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	// The old pair is dead after rotation.
	_, err = svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  registered.AccessToken,
		RefreshToken: registered.RefreshToken,
	})
	var appErr *pkgerrors.Error
	if !pkgerrors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for reused refresh token, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessions()
	svc := newTestService(t, repo, sessions)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Email: "asha@example.com", Password: "correct horse", DisplayName: "Asha Rao",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), registered.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}

	if err := svc.Logout(context.Background(), claims.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != claims.ID {
		t.Fatalf("expected session revoked, got %v", sessions.revoked)
	}

	if err := svc.Logout(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank access id")
	}
}
