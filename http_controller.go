package movieverse

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// LoginFailedMessage is the uniform rejection body for any login
// failure. Unknown username and wrong password produce byte-identical
// responses.
const LoginFailedMessage = "Something is not right"

type AuthController struct {
	Debug  bool
	Logger Logger
	Repo   RepositoryManager
	Auther Authenticator
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

func WithAuthControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithAuthControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthControllerAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

// LoginRequest payload
type LoginRequest struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginPost verifies credentials and issues a token. Every failure
// path, malformed body included, produces the same 400 body so callers
// cannot probe for registered usernames.
func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.loginRejected(c)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload", "error", err)
		return a.loginRejected(c)
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(fiber.Map{"username": payload.Username}))
		fmt.Println("=========================")
	}

	token, err := a.Auther.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) && richErr.Category == errors.CategoryInternal {
			return err
		}
		a.Logger.Info("login rejected", "username", payload.Username)
		return a.loginRejected(c)
	}

	user, err := a.Repo.Users().GetByUsername(c.UserContext(), payload.Username)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to load user after login")
	}

	record, err := a.Repo.Users().GetWithFavorites(c.UserContext(), user.ID.String())
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to load user after login")
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user":  record,
		"token": token,
	})
}

func (a *AuthController) loginRejected(c *fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{
		"message": LoginFailedMessage,
		"user":    nil,
	})
}
