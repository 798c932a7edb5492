package movieverse

import (
	"context"
	stderrors "errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/movieverse/go-movieverse/middleware/jwtware"
)

// RouteAuthenticator wires the Authenticator into fiber routes: it
// builds the token-checking middleware and the ownership guard.
type RouteAuthenticator struct {
	auth   Authenticator
	cfg    Config
	Logger Logger
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	return &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}, nil
}

// ProtectedRoute returns middleware that admits a request only when it
// carries a token that passes signature, expiry, and subject-resolution
// checks. Any failure yields a 401, never a 403.
func (a *RouteAuthenticator) ProtectedRoute() fiber.Handler {
	return jwtware.New(jwtware.Config{
		ErrorHandler:   a.authErrorHandler,
		TokenValidator: tokenValidatorAdapter{svc: a.auth.TokenService()},
		IdentityResolver: func(ctx context.Context, raw string) (any, error) {
			return a.auth.IdentityFromToken(ctx, raw)
		},
		ContextKey:  a.cfg.GetContextKey(),
		TokenLookup: a.cfg.GetTokenLookup(),
		AuthScheme:  a.cfg.GetAuthScheme(),
	})
}

// RequireSelf returns middleware that rejects requests whose token
// subject does not match the route's user id param. This is an
// ownership failure, not an authentication failure, so it maps to 403.
func (a *RouteAuthenticator) RequireSelf(param string) fiber.Handler {
	contextKey := a.cfg.GetContextKey()
	return func(c *fiber.Ctx) error {
		claims, err := GetClaims(c, contextKey)
		if err != nil {
			return a.authErrorHandler(c, err)
		}

		if claims.Subject() != c.Params(param) {
			return ErrOwnershipRequired
		}

		return c.Next()
	}
}

func (a *RouteAuthenticator) authErrorHandler(c *fiber.Ctx, err error) error {
	var richErr *errors.Error

	if errors.As(err, &richErr) && richErr.Category == errors.CategoryAuth {
		// keep the categorized error
	} else if IsTokenExpiredError(err) {
		richErr = ErrTokenExpired
	} else {
		richErr = errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication rejected",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
		"message": richErr.Message,
	})
}

// tokenValidatorAdapter narrows the root AuthClaims to the middleware's
// claim surface. Subject resolution runs separately through the
// middleware's IdentityResolver so a deleted account fails validation.
type tokenValidatorAdapter struct {
	svc TokenValidator
}

func (a tokenValidatorAdapter) Validate(raw string) (jwtware.AuthClaims, error) {
	claims, err := a.svc.Validate(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// GetClaims retrieves the validated claims the middleware stored on the
// request context.
func GetClaims(c *fiber.Ctx, key string) (AuthClaims, error) {
	val := c.Locals(key)
	if val == nil {
		return nil, ErrUnableToFindSession
	}

	claims, ok := val.(AuthClaims)
	if !ok {
		return nil, ErrUnableToFindSession
	}

	return claims, nil
}

// FormatValidationErrorToMap flattens an ozzo validation error into a
// field to message map for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if stderrors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

// ErrorHandler translates errors escaping route handlers into JSON
// responses. Validation failures carry their field map; anything
// uncategorized collapses to a generic 500 with details kept server side.
func ErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if stderrors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"message": fiberErr.Message,
			})
		}

		var richErr *errors.Error
		if !errors.As(err, &richErr) {
			logger.Error("unhandled error", "error", err, "path", c.OriginalURL())
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"message": "Internal Server Error",
			})
		}

		status := statusFromError(richErr)

		if status >= http.StatusInternalServerError {
			logger.Error("internal error",
				"error", richErr,
				"text_code", richErr.TextCode,
				"path", c.OriginalURL(),
			)
			return c.Status(status).JSON(fiber.Map{
				"message": "Internal Server Error",
			})
		}

		body := fiber.Map{
			"message": richErr.Message,
		}

		if richErr.Category == errors.CategoryValidation {
			if fields := richErr.ValidationMap(); len(fields) > 0 {
				body["errors"] = fields
			}
		}

		return c.Status(status).JSON(body)
	}
}

// RegisterRoutes mounts the whole API surface. The login and register
// endpoints are public; everything else sits behind the token check,
// and self-service mutations additionally pass the ownership guard.
func RegisterRoutes(app *fiber.App, routeAuth *RouteAuthenticator, repo RepositoryManager, logger Logger) {
	auth := NewAuthController(
		WithAuthControllerRepo(repo),
		WithAuthControllerAuther(routeAuth.auth),
		WithAuthControllerLogger(logger),
	)
	users := NewUserController(repo, logger)
	movies := NewMovieController(repo, logger)

	protected := routeAuth.ProtectedRoute()
	self := routeAuth.RequireSelf("userId")

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Welcome to the Movieverse API!")
	})

	app.Post("/login", auth.LoginPost)
	app.Post("/users/register", users.RegistrationCreate)

	app.Get("/users", protected, users.List)
	app.Get("/users/:userId", protected, users.Show)
	app.Put("/users/:userId", protected, self, users.Update)
	app.Delete("/users/:userId", protected, self, users.Delete)

	app.Post("/users/:userId/favorites", protected, self, users.AddFavorite)
	app.Delete("/users/:userId/favorites/:movieId", protected, self, users.RemoveFavorite)

	// the catalog listing is public; record-level reads are not. The
	// static genre/director segments must register before /movies/:title.
	app.Get("/movies", movies.List)
	app.Get("/movies/genres/:name", protected, movies.GenreShow)
	app.Get("/movies/directors/:name", protected, movies.DirectorShow)
	app.Get("/movies/:title", protected, movies.Show)
}

func statusFromError(err *errors.Error) int {
	if err.Code > 0 {
		return err.Code
	}

	switch err.Category {
	case errors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusBadRequest
	case errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
