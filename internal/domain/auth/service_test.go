package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bistro/internal/app/apptest"
	"bistro/internal/core/apperror"
	"bistro/internal/domain/auth"
	"bistro/internal/infrastructure/storage/memory"
)

const adminPassword = "Sup3rSecret!"

func login(t *testing.T, env *apptest.Env, username, password string) *auth.LoginResult {
	t.Helper()
	res, err := env.Services.Auth.Login(env.Ctx, auth.Credentials{Username: username, Password: password, IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	return res
}

func TestLogin_AuthenticateLogout(t *testing.T) {
	env := apptest.New(t)
	admin, err := env.Services.Auth.EnsureAdmin(env.Ctx, "Admin", adminPassword)
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Username)

	res := login(t, env, "admin", adminPassword)
	assert.NotEmpty(t, res.Token)
	assert.NotNil(t, res.User.LastLoginAt)

	user, err := env.Services.Auth.Authenticate(env.Ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID.String(), user.UserID)
	assert.True(t, user.IsAdmin)
	assert.ElementsMatch(t, auth.AllPermissions(), user.Permissions)

	require.NoError(t, env.Services.Auth.Logout(env.Ctx, user.SessionID))
	_, err = env.Services.Auth.Authenticate(env.Ctx, res.Token)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	env := apptest.New(t)
	_, err := env.Services.Auth.EnsureAdmin(env.Ctx, "admin", adminPassword)
	require.NoError(t, err)

	_, err = env.Services.Auth.Login(env.Ctx, auth.Credentials{Username: "admin", Password: "wrong-password"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	_, err = env.Services.Auth.Login(env.Ctx, auth.Credentials{Username: "ghost", Password: adminPassword})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestAuthenticate_RejectsForeignTokens(t *testing.T) {
	env := apptest.New(t)
	_, err := env.Services.Auth.EnsureAdmin(env.Ctx, "admin", adminPassword)
	require.NoError(t, err)
	res := login(t, env, "admin", adminPassword)

	_, err = env.Services.Auth.Authenticate(env.Ctx, res.Token+"x")
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	other := auth.NewJWTService(auth.DefaultJWTConfig("another-secret"))
	_, err = other.Parse(res.Token)
	assert.Error(t, err)
}

func TestEnsureAdmin_IsIdempotent(t *testing.T) {
	env := apptest.New(t)
	first, err := env.Services.Auth.EnsureAdmin(env.Ctx, "admin", adminPassword)
	require.NoError(t, err)

	second, err := env.Services.Auth.EnsureAdmin(env.Ctx, "admin", "a-different-password")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(second.PasswordHash), []byte(adminPassword)))
}

func TestUsers_CredentialChangesRevokeSessions(t *testing.T) {
	env := apptest.New(t)
	cashier := auth.NewRole("cashier", []string{auth.PermOrdersWrite, auth.PermOrdersRead, auth.PermOrdersRead})
	require.NoError(t, env.Services.Roles.Create(env.Ctx, cashier))
	assert.Equal(t, []string{auth.PermOrdersRead, auth.PermOrdersWrite}, cashier.Permissions)

	u, err := env.Services.Auth.CreateUser(env.Ctx, auth.UserInput{Username: "mia", Password: "cashier-pass", RoleID: cashier.ID})
	require.NoError(t, err)
	assert.True(t, u.IsActive)

	res := login(t, env, "mia", "cashier-pass")
	session, err := env.Services.Auth.Authenticate(env.Ctx, res.Token)
	require.NoError(t, err)
	assert.False(t, session.IsAdmin)
	assert.Equal(t, "cashier", session.Role)

	newPassword := "another-pass"
	_, err = env.Services.Auth.UpdateUser(env.Ctx, u.ID, auth.UserUpdate{Password: &newPassword})
	require.NoError(t, err)
	_, err = env.Services.Auth.Authenticate(env.Ctx, res.Token)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	disabled := false
	_, err = env.Services.Auth.UpdateUser(env.Ctx, u.ID, auth.UserUpdate{IsActive: &disabled})
	require.NoError(t, err)
	_, err = env.Services.Auth.Login(env.Ctx, auth.Credentials{Username: "mia", Password: newPassword})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestUsers_Validation(t *testing.T) {
	env := apptest.New(t)
	admin, err := env.Services.Auth.EnsureAdmin(env.Ctx, "admin", adminPassword)
	require.NoError(t, err)

	_, err = env.Services.Auth.CreateUser(env.Ctx, auth.UserInput{Username: "bob", Password: "short", RoleID: admin.RoleID})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	_, err = env.Services.Auth.CreateUser(env.Ctx, auth.UserInput{Username: "ADMIN", Password: adminPassword, RoleID: admin.RoleID})
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))

	err = env.Services.Roles.Create(env.Ctx, auth.NewRole("odd", []string{"orders:fly"}))
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	err = env.Services.Roles.Delete(env.Ctx, admin.RoleID)
	assert.True(t, apperror.HasCode(err, apperror.CodeReferentialBlock))
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func TestLogin_RateLimited(t *testing.T) {
	store := memory.New()
	svc := auth.NewService(
		memory.NewUserRepo(store),
		memory.NewRoleRepo(store),
		memory.NewSessionRepo(store),
		memory.NewTxManager(store),
		auth.NewJWTService(auth.DefaultJWTConfig("secret")),
		denyAll{},
		auth.DefaultServiceConfig(),
	)

	_, err := svc.Login(apptest.New(t).Ctx, auth.Credentials{Username: "admin", Password: adminPassword, IPAddress: "10.0.0.1"})
	assert.True(t, apperror.HasCode(err, apperror.CodeRateLimited))
}
