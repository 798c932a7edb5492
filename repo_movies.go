package movieverse

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type Movies interface {
	ListMovies(ctx context.Context) ([]*Movie, error)
	GetByTitle(ctx context.Context, title string) (*Movie, error)
	GetGenreByName(ctx context.Context, name string) (*Genre, error)
	GetDirectorByName(ctx context.Context, name string) (*Director, error)
}

type movies struct {
	db *bun.DB
}

var _ Movies = (*movies)(nil)

func NewMoviesRepository(db *bun.DB) Movies {
	return &movies{db: db}
}

func (m *movies) ListMovies(ctx context.Context) ([]*Movie, error) {
	var records []*Movie
	err := m.db.NewSelect().
		Model(&records).
		Order("mov.title ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (m *movies) GetByTitle(ctx context.Context, title string) (*Movie, error) {
	record := &Movie{}
	err := m.db.NewSelect().
		Model(record).
		Where("?TableAlias.title = ?", title).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"title": title,
				})
		}
		return nil, err
	}

	return record, nil
}

// GetGenreByName returns the genre description from any movie tagged
// with it.
func (m *movies) GetGenreByName(ctx context.Context, name string) (*Genre, error) {
	record := &Movie{}
	err := m.db.NewSelect().
		Model(record).
		Where("?TableAlias.genre_name = ?", name).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"genre": name,
				})
		}
		return nil, err
	}

	return &record.Genre, nil
}

// GetDirectorByName returns the director bio from any movie they
// directed. The match is case-insensitive.
func (m *movies) GetDirectorByName(ctx context.Context, name string) (*Director, error) {
	record := &Movie{}
	err := m.db.NewSelect().
		Model(record).
		Where("lower(?TableAlias.director_name) = lower(?)", name).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"director": name,
				})
		}
		return nil, err
	}

	return &record.Director, nil
}
