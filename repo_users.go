package movieverse

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Users interface {
	repository.Repository[*User]

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetWithFavorites(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error

	AddFavorite(ctx context.Context, userID, movieID uuid.UUID) (*User, error)
	RemoveFavorite(ctx context.Context, userID, movieID uuid.UUID) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
	_ UserTracker                  = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"username": username,
				})
		}
		return nil, err
	}

	return record, nil
}

// GetWithFavorites loads a user together with its favorite movies
// through the join table.
func (a *users) GetWithFavorites(ctx context.Context, id string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Favorites").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) ListUsers(ctx context.Context) ([]*User, error) {
	var records []*User
	err := a.db.NewSelect().
		Model(&records).
		Relation("Favorites").
		Order("usr.created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *users) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	// NOTE: Updating using the ORM wont reset login_attempt_at and
	// login_attempts to their zero values.
	loggedInAt := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?);
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	criteria := []repository.UpdateCriteria{
		repository.UpdateByID(user.ID.String()),
		repository.UpdateSkipZeroValues(),
	}

	record := &User{}
	record.ID = user.ID
	record.LoginAttempts = user.LoginAttempts + 1
	now := time.Now()
	record.LoginAttemptAt = &now

	_, err := a.Repository.Update(ctx, record, criteria...)

	return err
}

// AddFavorite links a movie to a user's favorites. Both ends of the
// link must exist; an account deleted mid-flight surfaces as a not
// found error rather than a constraint violation. The insert goes
// through ON CONFLICT DO NOTHING so adding a movie that is already a
// favorite is a no-op rather than an error, and two concurrent adds of
// different movies cannot clobber each other.
func (a *users) AddFavorite(ctx context.Context, userID, movieID uuid.UUID) (*User, error) {
	exists, err := a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", userID).
		Exists(ctx)

	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, ErrIdentityNotFound
	}

	exists, err = a.db.NewSelect().
		Model((*Movie)(nil)).
		Where("?TableAlias.id = ?", movieID).
		Exists(ctx)

	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, ErrMovieNotFound
	}

	fav := &UserFavorite{
		UserID:  userID,
		MovieID: movieID,
	}

	if _, err := a.db.NewInsert().
		Model(fav).
		On("CONFLICT DO NOTHING").
		Exec(ctx); err != nil {
		return nil, err
	}

	return a.GetWithFavorites(ctx, userID.String())
}

// RemoveFavorite unlinks a movie from a user's favorites. Removing a
// movie that is not in the set is a no-op.
func (a *users) RemoveFavorite(ctx context.Context, userID, movieID uuid.UUID) (*User, error) {
	if _, err := a.db.NewDelete().
		Model((*UserFavorite)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.movie_id = ?", movieID).
		Exec(ctx); err != nil {
		return nil, err
	}

	return a.GetWithFavorites(ctx, userID.String())
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
