package movieverse

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

var usernameRx = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

type UserController struct {
	Logger Logger
	Repo   RepositoryManager
}

func NewUserController(repo RepositoryManager, logger Logger) *UserController {
	if logger == nil {
		logger = defLogger{}
	}

	if repo == nil {
		panic("Missing RepositoryManager in user controller...")
	}

	return &UserController{
		Logger: logger,
		Repo:   repo,
	}
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	Username string     `json:"Username"`
	Password string     `json:"Password"`
	Email    string     `json:"Email"`
	Birthday *time.Time `json:"Birthday,omitempty"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(
				&r.Username,
				validation.Required,
				validation.Length(5, 100),
				validation.Match(usernameRx).
					Error("contains non alphanumeric characters"),
			),
			validation.Field(&r.Password, validation.Required),
			validation.Field(&r.Email, validation.Required, is.Email),
		)
	}, "Invalid registration payload")
}

func (u *UserController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(RegistrationCreatePayload)

	if err := c.BodyParser(payload); err != nil {
		u.Logger.Error("register user parse payload", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "Error parsing body").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		u.Logger.Error("register user validate payload", "error", err)
		return err
	}

	var record *User
	req := RegisterUserMessage{
		Username: payload.Username,
		Password: payload.Password,
		Email:    payload.Email,
		Birthday: payload.Birthday,
		OnResponse: func(user *User) {
			record = user
		},
	}

	registerUser := NewRegisterUserHandler(u.Repo)
	if err := registerUser.Execute(c.UserContext(), req); err != nil {
		u.Logger.Error("register user execute", "error", err)
		return err
	}

	return c.Status(http.StatusCreated).JSON(record)
}

func (u *UserController) List(c *fiber.Ctx) error {
	records, err := u.Repo.Users().ListUsers(c.UserContext())
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(records)
}

func (u *UserController) Show(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	record, err := u.Repo.Users().GetWithFavorites(c.UserContext(), id.String())
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(record)
}

// UserUpdatePayload carries optional profile fields. Absent fields are
// left untouched; a present password is re-hashed before storage.
type UserUpdatePayload struct {
	Username string     `json:"Username"`
	Password string     `json:"Password"`
	Email    string     `json:"Email"`
	Birthday *time.Time `json:"Birthday,omitempty"`
}

// Validate will validate the payload. Rules other than Required skip
// blank values, so absent fields pass.
func (r UserUpdatePayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(
				&r.Username,
				validation.Length(5, 100),
				validation.Match(usernameRx).
					Error("contains non alphanumeric characters"),
			),
			validation.Field(&r.Email, is.Email),
		)
	}, "Invalid update payload")
}

func (u *UserController) Update(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	payload := new(UserUpdatePayload)
	if err := c.BodyParser(payload); err != nil {
		u.Logger.Error("update user parse payload", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "Error parsing body").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		u.Logger.Error("update user validate payload", "error", err)
		return err
	}

	record := &User{}
	record.ID = id
	record.Username = payload.Username
	record.Email = payload.Email
	record.Birthday = payload.Birthday

	if payload.Password != "" {
		hash, err := HashPassword(payload.Password)
		if err != nil {
			return err
		}
		record.PasswordHash = hash
	}

	if _, err := u.Repo.Users().Update(
		c.UserContext(),
		record,
		repository.UpdateByID(id.String()),
		repository.UpdateSkipZeroValues(),
	); err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return err
	}

	updated, err := u.Repo.Users().GetWithFavorites(c.UserContext(), id.String())
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(updated)
}

func (u *UserController) Delete(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	if err := u.Repo.Users().DeleteAccount(c.UserContext(), id); err != nil {
		return err
	}

	// Tokens already issued for this account are not touched here; they
	// die when the verifier fails to re-resolve the subject.
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": fmt.Sprintf("%s was deregistered", id),
	})
}

// AddFavoritePayload is the favorites mutation body
type AddFavoritePayload struct {
	MovieID string `json:"movieId"`
}

// Validate will validate the payload
func (r AddFavoritePayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.MovieID, validation.Required, is.UUID),
		)
	}, "Invalid favorite payload")
}

func (u *UserController) AddFavorite(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	payload := new(AddFavoritePayload)
	if err := c.BodyParser(payload); err != nil {
		u.Logger.Error("add favorite parse payload", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "Error parsing body").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		u.Logger.Error("add favorite validate payload", "error", err)
		return err
	}

	movieID, _ := uuid.Parse(payload.MovieID)

	record, err := u.Repo.Users().AddFavorite(c.UserContext(), id, movieID)
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(record)
}

func (u *UserController) RemoveFavorite(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	movieID, err := uuid.Parse(c.Params("movieId"))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid movie id").
			WithCode(goerrors.CodeBadRequest)
	}

	record, err := u.Repo.Users().RemoveFavorite(c.UserContext(), id, movieID)
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(record)
}

func parseUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid user id").
			WithCode(goerrors.CodeBadRequest)
	}
	return id, nil
}
