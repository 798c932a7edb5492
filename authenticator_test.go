package movieverse_test

import (
	"context"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-repository-bun"
	movieverse "github.com/movieverse/go-movieverse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	signingKey      string
	tokenExpiration int
}

func (c testConfig) GetSigningKey() string { return c.signingKey }
func (c testConfig) GetSigningMethod() string { return "HS256" }
func (c testConfig) GetContextKey() string { return "user" }
func (c testConfig) GetTokenExpiration() int {
	if c.tokenExpiration == 0 {
		return 168
	}
	return c.tokenExpiration
}
func (c testConfig) GetTokenLookup() string { return "header:" + fiber.HeaderAuthorization }
func (c testConfig) GetAuthScheme() string { return "Bearer" }
func (c testConfig) GetIssuer() string { return "movieverse-test" }
func (c testConfig) GetAudience() []string { return []string{"movieverse-test"} }

func TestAuther_Login(t *testing.T) {
	ctx := context.Background()
	user := newStoredUser(t, "alice123", "p4ss")

	store := &MockUserTracker{}
	store.On("GetByUsername", ctx, "alice123").Return(user, nil)
	store.On("TrackSuccessfulLogin", ctx, user).Return(nil)

	provider := movieverse.NewUserProvider(store, noopLogger{})
	auther := movieverse.NewAuthenticator(provider, testConfig{signingKey: "login-key"})

	token, err := auther.Login(ctx, "alice123", "p4ss")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := auther.TokenService().Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject())
}

func TestAuther_Login_BadCredentials(t *testing.T) {
	ctx := context.Background()
	user := newStoredUser(t, "alice123", "p4ss")

	store := &MockUserTracker{}
	store.On("GetByUsername", ctx, "alice123").Return(user, nil)
	store.On("TrackAttemptedLogin", ctx, user).Return(nil)

	provider := movieverse.NewUserProvider(store, noopLogger{})
	auther := movieverse.NewAuthenticator(provider, testConfig{signingKey: "login-key"})

	token, err := auther.Login(ctx, "alice123", "wrong")
	assert.Empty(t, token)
	assert.ErrorIs(t, err, movieverse.ErrInvalidCredentials)
}

func TestAuther_IdentityFromToken(t *testing.T) {
	ctx := context.Background()
	user := newStoredUser(t, "alice123", "p4ss")

	store := &MockUserTracker{}
	store.On("GetByUsername", ctx, "alice123").Return(user, nil)
	store.On("TrackSuccessfulLogin", ctx, user).Return(nil)
	store.On("GetByID", ctx, user.ID.String()).Return(user, nil)

	provider := movieverse.NewUserProvider(store, noopLogger{})
	auther := movieverse.NewAuthenticator(provider, testConfig{signingKey: "resolve-key"})

	token, err := auther.Login(ctx, "alice123", "p4ss")
	require.NoError(t, err)

	identity, err := auther.IdentityFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), identity.ID())
	assert.Equal(t, "alice123", identity.Username())
}

// A syntactically valid, unexpired token dies at the resolve step once
// the account behind it is gone.
func TestAuther_IdentityFromToken_DeletedSubject(t *testing.T) {
	ctx := context.Background()
	user := newStoredUser(t, "alice123", "p4ss")

	store := &MockUserTracker{}
	store.On("GetByUsername", ctx, "alice123").Return(user, nil)
	store.On("TrackSuccessfulLogin", ctx, user).Return(nil)
	store.On("GetByID", ctx, user.ID.String()).
		Return(nil, repository.NewRecordNotFound())

	provider := movieverse.NewUserProvider(store, noopLogger{})
	auther := movieverse.NewAuthenticator(provider, testConfig{signingKey: "revoke-key"})

	token, err := auther.Login(ctx, "alice123", "p4ss")
	require.NoError(t, err)

	identity, err := auther.IdentityFromToken(ctx, token)
	assert.Nil(t, identity)
	assert.ErrorIs(t, err, movieverse.ErrIdentityRevoked)
}

func TestAuther_IdentityFromToken_BadToken(t *testing.T) {
	store := &MockUserTracker{}
	provider := movieverse.NewUserProvider(store, noopLogger{})
	auther := movieverse.NewAuthenticator(provider, testConfig{signingKey: "bad-token-key"})

	identity, err := auther.IdentityFromToken(context.Background(), "not.a.token")
	assert.Nil(t, identity)
	assert.Error(t, err)

	// the store is never touched for tokens that fail cheap checks
	store.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
