package service

import (
	"net/http"
	"testing"

	"github.com/deppfellow/classroom/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerRequest(email string) *model.RegisterRequest {
	return &model.RegisterRequest{
		Name:                 "Siti Aminah",
		Email:                email,
		Password:             "Student@123",
		PasswordConfirmation: "Student@123",
		Role:                 model.RoleStudent,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	auth := f.services.Auth

	registered, err := auth.Register(f.ctx, registerRequest("Siti@Example.com"))
	require.NoError(t, err)
	assert.Equal(t, "siti@example.com", registered.User.Email)
	assert.Equal(t, "Bearer", registered.TokenType)
	assert.NotEmpty(t, registered.Token)
	assert.NotEqual(t, "Student@123", registered.User.Password)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := auth.Register(f.ctx, registerRequest("siti@example.com"))
		httpErr := requireHTTPError(t, err, http.StatusUnprocessableEntity)
		require.Len(t, httpErr.Errors, 1)
		assert.Equal(t, "email", httpErr.Errors[0].Field)
		assert.Equal(t, "The email has already been taken", httpErr.Errors[0].Error)
	})

	t.Run("login", func(t *testing.T) {
		result, err := auth.Login(f.ctx, &model.LoginRequest{Email: "SITI@example.com", Password: "Student@123"})
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, result.User.ID)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := auth.Login(f.ctx, &model.LoginRequest{Email: "nobody@example.com", Password: "Student@123"})
		httpErr := requireHTTPError(t, err, http.StatusUnauthorized)
		assert.Equal(t, "Email is not registered", httpErr.Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := auth.Login(f.ctx, &model.LoginRequest{Email: "siti@example.com", Password: "Wrong@1234"})
		httpErr := requireHTTPError(t, err, http.StatusUnauthorized)
		assert.Equal(t, "Wrong password", httpErr.Message)
	})
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	auth := f.services.Auth

	result, err := auth.Register(f.ctx, registerRequest("budi@example.com"))
	require.NoError(t, err)

	session, err := auth.Authenticate(f.ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, session.User.ID)
	assert.NotEmpty(t, session.TokenID)

	cached, err := f.store.GetCachedUser(f.ctx, result.User.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "budi@example.com", cached.Email)

	t.Run("garbage token", func(t *testing.T) {
		_, err := auth.Authenticate(f.ctx, "not-a-token")
		requireHTTPError(t, err, http.StatusUnauthorized)
	})

	t.Run("other secret", func(t *testing.T) {
		other, _ := newTestServer(t)
		other.Config.Auth.SecretKey = "ffffffffffffffffffffffffffffffff"
		foreign := NewAuthService(other, f.store, f.store)

		token, err := foreign.issue(result.User)
		require.NoError(t, err)

		_, err = auth.Authenticate(f.ctx, token.Token)
		requireHTTPError(t, err, http.StatusUnauthorized)
	})

	t.Run("revoked after logout", func(t *testing.T) {
		require.NoError(t, auth.Logout(f.ctx, session))

		_, err := auth.Authenticate(f.ctx, result.Token)
		requireHTTPError(t, err, http.StatusUnauthorized)

		cached, err := f.store.GetCachedUser(f.ctx, result.User.ID)
		require.NoError(t, err)
		assert.Nil(t, cached)
	})
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first, created, err := f.services.Auth.EnsureUser(f.ctx, "Pak Ahmad", "pak.ahmad@example.com", "Teacher@123", model.RoleTeacher)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.services.Auth.EnsureUser(f.ctx, "Pak Ahmad", "Pak.Ahmad@example.com", "Teacher@123", model.RoleTeacher)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}
