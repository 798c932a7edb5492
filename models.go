package movieverse

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model. PasswordHash never serializes to JSON; API
// responses carry the account sans credential material.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	Birthday       *time.Time `bun:"birthday,nullzero" json:"birthday,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at,nullzero" json:"-"`
	LoggedInAt     *time.Time `bun:"loggedin_at,nullzero" json:"loggedin_at,omitempty"`
	Favorites      []*Movie   `bun:"m2m:user_favorites,join:User=Movie" json:"favorite_movies,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Genre describes a movie's genre
type Genre struct {
	Name        string `bun:"name" json:"name,omitempty"`
	Description string `bun:"description" json:"description,omitempty"`
}

// Director describes a movie's director
type Director struct {
	Name  string `bun:"name" json:"name,omitempty"`
	Bio   string `bun:"bio" json:"bio,omitempty"`
	Birth string `bun:"birth" json:"birth,omitempty"`
	Death string `bun:"death" json:"death,omitempty"`
}

// Movie is a catalog record. The auth/favorites core consumes it
// read-only and stores only its id.
type Movie struct {
	bun.BaseModel `bun:"table:movies,alias:mov"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	Genre         Genre      `bun:"embed:genre_" json:"genre,omitempty"`
	Director      Director   `bun:"embed:director_" json:"director,omitempty"`
	ImagePath     string     `bun:"image_path" json:"image_path,omitempty"`
	Featured      bool       `bun:"featured" json:"featured,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// UserFavorite is the join model backing a user's favorites set. The
// composite primary key gives the set its no-duplicates invariant at
// the store layer.
type UserFavorite struct {
	bun.BaseModel `bun:"table:user_favorites,alias:fav"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	MovieID       uuid.UUID `bun:"movie_id,pk,type:uuid" json:"movie_id"`
	Movie         *Movie    `bun:"rel:belongs-to,join:movie_id=id" json:"-"`
}

// RegisterModels registers the relation models bun needs to resolve
// the favorites m2m join before any query uses it.
func RegisterModels(db *bun.DB) {
	db.RegisterModel((*UserFavorite)(nil))
}
