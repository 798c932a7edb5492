package movieverse_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	movieverse "github.com/movieverse/go-movieverse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type testServer struct {
	app  *fiber.App
	db   *bun.DB
	repo movieverse.RepositoryManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := newTestDB(t)
	repo := movieverse.NewRepositoryManager(db)
	require.NoError(t, repo.Validate())

	cfg := testConfig{signingKey: "test-signing-key"}

	provider := movieverse.NewUserProvider(repo.Users(), noopLogger{})
	auther := movieverse.NewAuthenticator(provider, cfg)

	routeAuth, err := movieverse.NewHTTPAuthenticator(auther, cfg)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{
		ErrorHandler: movieverse.ErrorHandler(nil),
	})
	movieverse.RegisterRoutes(app, routeAuth, repo, noopLogger{})

	return &testServer{app: app, db: db, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := s.app.Test(req, -1)
	require.NoError(t, err)

	return res
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	defer res.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(raw)
}

func (s *testServer) register(t *testing.T, username, password string) map[string]any {
	t.Helper()

	res := s.do(t, http.MethodPost, "/users/register", "", fiber.Map{
		"Username": username,
		"Password": password,
		"Email":    strings.ReplaceAll(username, " ", ".") + "@example.com",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	return decodeBody(t, res)
}

func (s *testServer) login(t *testing.T, username, password string) (string, string) {
	t.Helper()

	res := s.do(t, http.MethodPost, "/login", "", fiber.Map{
		"Username": username,
		"Password": password,
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	body := decodeBody(t, res)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	id, _ := user["id"].(string)
	require.NotEmpty(t, id)

	return token, id
}

func TestHTTP_RegistrationStoresDigest(t *testing.T) {
	s := newTestServer(t)

	body := s.register(t, "alice in movies", "p4ssword")
	assert.Equal(t, "alice in movies", body["username"])

	// the response never leaks credential material
	_, exposed := body["password_hash"]
	assert.False(t, exposed)

	record, err := s.repo.Users().GetByUsername(context.Background(), "alice in movies")
	require.NoError(t, err)
	assert.NotEqual(t, "p4ssword", record.PasswordHash)
	assert.NoError(t, movieverse.ComparePasswordAndHash("p4ssword", record.PasswordHash))
}

func TestHTTP_RegistrationValidation(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodPost, "/users/register", "", fiber.Map{
		"Username": "a!",
		"Password": "",
		"Email":    "not-an-email",
	})
	require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	body := decodeBody(t, res)
	fields, _ := body["errors"].(map[string]any)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "Username")
	assert.Contains(t, fields, "Password")
	assert.Contains(t, fields, "Email")
}

func TestHTTP_RegistrationDuplicateUsername(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "alice in movies", "p4ssword")

	res := s.do(t, http.MethodPost, "/users/register", "", fiber.Map{
		"Username": "alice in movies",
		"Password": "another",
		"Email":    "other@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestHTTP_LoginFailuresAreUniform(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice in movies", "p4ssword")

	wrongPassword := s.do(t, http.MethodPost, "/login", "", fiber.Map{
		"Username": "alice in movies",
		"Password": "wrong",
	})
	unknownUser := s.do(t, http.MethodPost, "/login", "", fiber.Map{
		"Username": "nobody here",
		"Password": "wrong",
	})
	malformed := s.do(t, http.MethodPost, "/login", "", fiber.Map{
		"Username": "",
	})

	require.Equal(t, http.StatusBadRequest, wrongPassword.StatusCode)
	require.Equal(t, http.StatusBadRequest, unknownUser.StatusCode)
	require.Equal(t, http.StatusBadRequest, malformed.StatusCode)

	// identical bodies so callers cannot probe for registered usernames
	first := readBody(t, wrongPassword)
	assert.Equal(t, first, readBody(t, unknownUser))
	assert.Equal(t, first, readBody(t, malformed))
	assert.Contains(t, first, movieverse.LoginFailedMessage)
}

func TestHTTP_ProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodGet, "/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = s.do(t, http.MethodGet, "/movies/Some%20Title", "forged.token.here", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// the catalog listing itself is public
	res = s.do(t, http.MethodGet, "/movies", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestHTTP_LoginAndBrowseCatalog(t *testing.T) {
	s := newTestServer(t)
	seedMovie(t, s.db, "The Silence of the Lambs")

	s.register(t, "alice in movies", "p4ssword")
	token, _ := s.login(t, "alice in movies", "p4ssword")

	res := s.do(t, http.MethodGet, "/movies", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "The Silence of the Lambs")

	res = s.do(t, http.MethodGet, "/movies/The%20Silence%20of%20the%20Lambs", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = s.do(t, http.MethodGet, "/movies/genres/Thriller", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "Suspense driven stories")

	res = s.do(t, http.MethodGet, "/movies/directors/Jonathan%20Demme", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = s.do(t, http.MethodGet, "/movies/Unknown%20Movie", token, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestHTTP_FavoritesLifecycle(t *testing.T) {
	s := newTestServer(t)
	movie := seedMovie(t, s.db, "The Silence of the Lambs")

	s.register(t, "alice in movies", "p4ssword")
	token, userID := s.login(t, "alice in movies", "p4ssword")

	favorites := fmt.Sprintf("/users/%s/favorites", userID)

	res := s.do(t, http.MethodPost, favorites, token, fiber.Map{
		"movieId": movie.ID.String(),
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	body := decodeBody(t, res)
	list, _ := body["favorite_movies"].([]any)
	require.Len(t, list, 1)

	// adding the same favorite again does not duplicate it
	res = s.do(t, http.MethodPost, favorites, token, fiber.Map{
		"movieId": movie.ID.String(),
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	body = decodeBody(t, res)
	list, _ = body["favorite_movies"].([]any)
	require.Len(t, list, 1)

	res = s.do(t, http.MethodPost, favorites, token, fiber.Map{
		"movieId": uuid.NewString(),
	})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = s.do(t, http.MethodDelete, favorites+"/"+movie.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	body = decodeBody(t, res)
	_, present := body["favorite_movies"]
	assert.False(t, present)

	// removing an absent favorite is a no-op
	res = s.do(t, http.MethodDelete, favorites+"/"+movie.ID.String(), token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestHTTP_OwnershipGuard(t *testing.T) {
	s := newTestServer(t)
	movie := seedMovie(t, s.db, "The Silence of the Lambs")

	s.register(t, "alice in movies", "p4ssword")
	s.register(t, "mallory mallory", "p4ssword")

	token, _ := s.login(t, "alice in movies", "p4ssword")
	_, victimID := s.login(t, "mallory mallory", "p4ssword")

	res := s.do(t, http.MethodPost, fmt.Sprintf("/users/%s/favorites", victimID), token, fiber.Map{
		"movieId": movie.ID.String(),
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res = s.do(t, http.MethodDelete, "/users/"+victimID, token, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res = s.do(t, http.MethodPut, "/users/"+victimID, token, fiber.Map{
		"Email": "evil@example.com",
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	// reading another profile is allowed, mutating it is not
	res = s.do(t, http.MethodGet, "/users/"+victimID, token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestHTTP_UpdateProfile(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "alice in movies", "p4ssword")
	token, userID := s.login(t, "alice in movies", "p4ssword")

	res := s.do(t, http.MethodPut, "/users/"+userID, token, fiber.Map{
		"Email": "new@example.com",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	body := decodeBody(t, res)
	assert.Equal(t, "new@example.com", body["email"])
	assert.Equal(t, "alice in movies", body["username"])

	// updating the password rotates the stored digest
	res = s.do(t, http.MethodPut, "/users/"+userID, token, fiber.Map{
		"Password": "n3w-password",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	record, err := s.repo.Users().GetByUsername(context.Background(), "alice in movies")
	require.NoError(t, err)
	assert.NoError(t, movieverse.ComparePasswordAndHash("n3w-password", record.PasswordHash))
}

func TestHTTP_DeletedAccountTokenStopsWorking(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "alice in movies", "p4ssword")
	token, userID := s.login(t, "alice in movies", "p4ssword")

	res := s.do(t, http.MethodDelete, "/users/"+userID, token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "was deregistered")

	// the token is signed and unexpired, but its subject is gone
	res = s.do(t, http.MethodGet, "/users/"+userID, token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestHTTP_Welcome(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "Welcome")
}
