package models

type Category struct {
	ID   int64  `db:"id" json:"-"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

type Genre struct {
	ID   int64  `db:"id" json:"-"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

// Title is a work that can be reviewed. Rating is the mean review score and
// stays nil while the title has no reviews.
type Title struct {
	ID          int64    `db:"id"`
	Name        string   `db:"name"`
	Year        int      `db:"year"`
	Description string   `db:"description"`
	CategoryID  *int64   `db:"category_id"`
	Rating      *float64 `db:"rating"`

	Category *Category `db:"-"`
	Genres   []Genre   `db:"-"`
}

// TitleInput carries the writable title fields. Slugs reference existing
// categories and genres.
type TitleInput struct {
	Name         *string
	Year         *int
	Description  *string
	CategorySlug *string
	GenreSlugs   []string
	SetGenres    bool
}
