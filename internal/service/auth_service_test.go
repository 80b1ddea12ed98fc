package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/noteduco342/groupmeet-backend/internal/apperr"
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Username:        "john_doe",
		Email:           "john@example.com",
		Password:        "securepassword123",
		ConfirmPassword: "securepassword123",
		FirstName:       "John",
		LastName:        "Doe",
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "duplicate_user")

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		code   string
	}{
		{"valid registration", func(*RegisterInput) {}, ""},
		{"blank first name", func(in *RegisterInput) { in.FirstName = "   " }, "invalid_firstName"},
		{"malformed email", func(in *RegisterInput) { in.Email = "not-an-email" }, "invalid_email"},
		{"passwords differ", func(in *RegisterInput) { in.ConfirmPassword = "different123" }, "password_mismatch"},
		{"short password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "short", "short" }, "weak_password"},
		{"username taken", func(in *RegisterInput) { in.Username = "duplicate_user" }, "username_taken"},
		{"email taken", func(in *RegisterInput) { in.Email = "duplicate_user@example.com" }, "email_taken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegistration()
			tt.mutate(&in)
			if tt.code == "" {
				in.Username = "fresh_user"
				in.Email = "fresh@example.com"
			}

			user, err := f.auth.Register(in)
			if tt.code == "" {
				require.NoError(t, err)
				assert.NotZero(t, user.ID)
				assert.NotEqual(t, in.Password, user.PasswordHash)
				return
			}
			assertKind(t, err, apperr.KindValidation)
			assert.ErrorIs(t, err, apperr.Validation(tt.code, ""))
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	uid := f.addUser(t, "alice")

	res, err := f.auth.Login(" alice ", testPassword)
	require.NoError(t, err)
	assert.Equal(t, uid, res.UserID)
	assert.NotEmpty(t, res.Token)
	assert.False(t, res.Admin)

	_, err = f.auth.Login("alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login("nobody", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	uid := f.addUser(t, "alice")
	res, err := f.auth.Login("alice", testPassword)
	require.NoError(t, err)

	claims, err := f.auth.Authenticate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, uid, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)

	t.Run("garbage", func(t *testing.T) {
		_, err := f.auth.Authenticate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			UserID: uid,
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "forged",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		signed, err := forged.SignedString([]byte("other-secret"))
		require.NoError(t, err)
		_, err = f.auth.Authenticate(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		f.auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { f.auth.now = time.Now }()
		_, err := f.auth.Authenticate(res.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice")
	res, err := f.auth.Login("alice", testPassword)
	require.NoError(t, err)
	claims, err := f.auth.Authenticate(res.Token)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(claims))
	// Logging out twice is harmless.
	require.NoError(t, f.auth.Logout(claims))

	_, err = f.auth.Authenticate(res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := f.auth.Login("alice", testPassword)
	require.NoError(t, err)
	_, err = f.auth.Authenticate(other.Token)
	assert.NoError(t, err, "a fresh login is unaffected")
}

func TestPruneRevoked(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice")
	res, err := f.auth.Login("alice", testPassword)
	require.NoError(t, err)
	claims, err := f.auth.Authenticate(res.Token)
	require.NoError(t, err)
	require.NoError(t, f.auth.Logout(claims))

	n, err := f.auth.PruneRevoked()
	require.NoError(t, err)
	assert.Zero(t, n)

	f.auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err = f.auth.PruneRevoked()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	uid := f.addUser(t, "alice")

	err := f.auth.ChangePassword(uid, ChangePasswordInput{
		CurrentPassword: "wrong-password",
		NewPassword:     "newpassword456",
		ConfirmPassword: "newpassword456",
	})
	assert.ErrorIs(t, err, apperr.Validation("wrong_password", ""))

	err = f.auth.ChangePassword(uid, ChangePasswordInput{
		CurrentPassword: testPassword,
		NewPassword:     "newpassword456",
		ConfirmPassword: "newpassword789",
	})
	assert.ErrorIs(t, err, apperr.Validation("password_mismatch", ""))

	require.NoError(t, f.auth.ChangePassword(uid, ChangePasswordInput{
		CurrentPassword: testPassword,
		NewPassword:     "newpassword456",
		ConfirmPassword: "newpassword456",
	}))
	_, err = f.auth.Login("alice", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login("alice", "newpassword456")
	assert.NoError(t, err)
}

func TestChangePasswordEndsOtherSessions(t *testing.T) {
	f := newFixture(t)
	uid := f.addUser(t, "alice")

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.auth.now = func() time.Time { return start }
	laptop, err := f.auth.Login("alice", testPassword)
	require.NoError(t, err)
	phone, err := f.auth.Login("alice", testPassword)
	require.NoError(t, err)

	f.auth.now = func() time.Time { return start.Add(time.Minute) }
	require.NoError(t, f.auth.ChangePassword(uid, ChangePasswordInput{
		CurrentPassword: testPassword,
		NewPassword:     "newpassword456",
		ConfirmPassword: "newpassword456",
	}))

	for _, token := range []string{laptop.Token, phone.Token} {
		_, err = f.auth.Authenticate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}

	fresh, err := f.auth.Login("alice", "newpassword456")
	require.NoError(t, err)
	claims, err := f.auth.Authenticate(fresh.Token)
	require.NoError(t, err)
	assert.Equal(t, uid, claims.UserID)
}

func TestDeletedUserTokenRejected(t *testing.T) {
	ctx := context.Background()

	t.Run("self", func(t *testing.T) {
		f := newFixture(t)
		uid := f.addUser(t, "alice")
		res, err := f.auth.Login("alice", testPassword)
		require.NoError(t, err)

		require.NoError(t, f.users.DeleteAccount(ctx, uid))
		_, err = f.auth.Authenticate(res.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("by admin", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addUser(t, "root")
		f.store.users[admin].Role = models.RoleAdmin
		bob := f.addUser(t, "bob")
		res, err := f.auth.Login("bob", testPassword)
		require.NoError(t, err)

		require.NoError(t, f.users.AdminDeleteUser(ctx, admin, bob))
		_, err = f.auth.Authenticate(res.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuthenticateUsesCurrentRole(t *testing.T) {
	f := newFixture(t)
	uid := f.addUser(t, "alice")
	f.store.users[uid].Role = models.RoleAdmin
	res, err := f.auth.Login("alice", testPassword)
	require.NoError(t, err)

	f.store.users[uid].Role = models.RoleUser
	claims, err := f.auth.Authenticate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, claims.Role)
}
