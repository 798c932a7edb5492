package movieverse

import (
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"
)

type MovieController struct {
	Logger Logger
	Repo   RepositoryManager
}

func NewMovieController(repo RepositoryManager, logger Logger) *MovieController {
	if logger == nil {
		logger = defLogger{}
	}

	if repo == nil {
		panic("Missing RepositoryManager in movie controller...")
	}

	return &MovieController{
		Logger: logger,
		Repo:   repo,
	}
}

func (m *MovieController) List(c *fiber.Ctx) error {
	records, err := m.Repo.Movies().ListMovies(c.UserContext())
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(records)
}

func (m *MovieController) Show(c *fiber.Ctx) error {
	title, err := pathParam(c, "title")
	if err != nil {
		return err
	}

	record, err := m.Repo.Movies().GetByTitle(c.UserContext(), title)
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(record)
}

func (m *MovieController) GenreShow(c *fiber.Ctx) error {
	name, err := pathParam(c, "name")
	if err != nil {
		return err
	}

	record, err := m.Repo.Movies().GetGenreByName(c.UserContext(), name)
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(record)
}

func (m *MovieController) DirectorShow(c *fiber.Ctx) error {
	name, err := pathParam(c, "name")
	if err != nil {
		return err
	}

	record, err := m.Repo.Movies().GetDirectorByName(c.UserContext(), name)
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(record)
}

// pathParam unescapes a route parameter, so titles and names with
// spaces arrive the way they were stored.
func pathParam(c *fiber.Ctx, name string) (string, error) {
	val, err := url.PathUnescape(c.Params(name))
	if err != nil || val == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "missing route parameter: "+name)
	}
	return val, nil
}
