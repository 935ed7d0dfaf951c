package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/uni-reg-api/internal/models"
	appErrors "github.com/noah-isme/uni-reg-api/pkg/errors"
)

type mockUserRepo struct {
	users map[string]models.User
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func newAuthFixture(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	studentID := "S1"
	repo := &mockUserRepo{users: map[string]models.User{
		"u-1": {ID: "u-1", Email: "aya@uni.edu", PasswordHash: string(hash), Role: models.RoleStudent, DisplayName: "Aya Nasser", StudentID: &studentID},
	}}
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "uni-reg-api",
	})
	return svc, repo
}

func TestLoginSuccess(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "aya@uni.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, models.RoleStudent, resp.User.Role)
	require.NotNil(t, resp.User.StudentID)
	assert.Equal(t, "S1", *resp.User.StudentID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "aya@uni.edu", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@uni.edu", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInvalidPayload(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: ""})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "aya@uni.edu", Password: "secret123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "S1", claims.StudentID)
	assert.NotEmpty(t, claims.SessionID)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken(context.Background(), "not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc, repo := newAuthFixture(t)
	other := NewAuthService(repo, nil, nil, zap.NewNop(), AuthConfig{
		Secret:     "different-secret",
		Expiration: time.Hour,
		Issuer:     "uni-reg-api",
	})

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "aya@uni.edu", Password: "secret123"})
	require.NoError(t, err)

	_, err = other.ValidateToken(context.Background(), resp.AccessToken)
	require.Error(t, err)
}
